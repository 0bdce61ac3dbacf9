// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package slogchatgrpc

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/pjscruggs/slogchat"
)

// RPC kinds recorded as the Method of [slogchat.RequestInfo].
const (
	KindUnary        = "unary"
	KindClientStream = "client_stream"
	KindServerStream = "server_stream"
	KindBidiStream   = "bidi_stream"
)

// UnaryServerInterceptor records the RPC on the handler context.
func UnaryServerInterceptor(opts ...Option) grpc.UnaryServerInterceptor {
	cfg := applyOptions(opts)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = serverContext(ctx, cfg, info.FullMethod, KindUnary)
		resp, err := handler(ctx, req)
		if err != nil {
			reportError(ctx, cfg, info.FullMethod, req, err)
		}
		return resp, err
	}
}

// StreamServerInterceptor records the RPC on the stream context.
func StreamServerInterceptor(opts ...Option) grpc.StreamServerInterceptor {
	cfg := applyOptions(opts)

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := serverContext(ss.Context(), cfg, info.FullMethod, streamKind(info))
		err := handler(srv, &serverStream{ServerStream: ss, ctx: ctx})
		if err != nil {
			reportError(ctx, cfg, info.FullMethod, nil, err)
		}
		return err
	}
}

// ServerOptions returns grpc.ServerOptions that install the otelgrpc stats
// handler and the slogchat interceptors.
func ServerOptions(opts ...Option) []grpc.ServerOption {
	cfg := applyOptions(opts)
	var serverOpts []grpc.ServerOption

	if cfg.enableOTel {
		serverOpts = append(serverOpts, grpc.StatsHandler(otelgrpc.NewServerHandler(statsHandlerOptions(cfg)...)))
	}

	serverOpts = append(serverOpts,
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(opts...)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor(opts...)),
	)
	return serverOpts
}

// statsHandlerOptions configures otelgrpc instrumentation.
func statsHandlerOptions(cfg *config) []otelgrpc.Option {
	var opts []otelgrpc.Option
	if cfg.tracerProvider != nil {
		opts = append(opts, otelgrpc.WithTracerProvider(cfg.tracerProvider))
	}
	if cfg.propagatorsSet && cfg.propagators != nil {
		opts = append(opts, otelgrpc.WithPropagators(cfg.propagators))
	}
	for _, f := range cfg.filters {
		opts = append(opts, otelgrpc.WithFilter(f))
	}
	return opts
}

// serverContext extracts trace context and attaches the request description.
func serverContext(ctx context.Context, cfg *config, fullMethod, kind string) context.Context {
	md, _ := metadata.FromIncomingContext(ctx)
	ctx = ensureServerSpanContext(ctx, md, cfg)
	return slogchat.ContextWithRequest(ctx, slogchat.RequestInfo{
		Method: kind,
		URL:    rpcURL(md, fullMethod),
		Route:  fullMethod,
	})
}

// rpcURL renders "grpc://authority/pkg.Service/Method", or the bare method
// when the authority is unknown.
func rpcURL(md metadata.MD, fullMethod string) string {
	if !strings.HasPrefix(fullMethod, "/") {
		fullMethod = "/" + fullMethod
	}
	if authority := first(md, ":authority"); authority != "" {
		return "grpc://" + authority + fullMethod
	}
	return fullMethod
}

// reportError logs err when its status code is one of the reporting codes.
func reportError(ctx context.Context, cfg *config, fullMethod string, req any, err error) {
	if cfg.errorLogger == nil {
		return
	}
	code := status.Code(err)
	if _, ok := cfg.errorCodes[code]; !ok {
		return
	}
	attrs := []slog.Attr{
		slog.String("grpc.method", fullMethod),
		slog.String("grpc.code", code.String()),
		slog.Any("error", err),
	}
	if msg, ok := req.(proto.Message); ok {
		attrs = append(attrs, slog.String("grpc.request", string(proto.MessageName(msg))))
	}
	cfg.errorLogger.LogAttrs(ctx, slog.LevelError, "rpc failed", attrs...)
}

// streamKind reports the RPC kind of a server stream.
func streamKind(info *grpc.StreamServerInfo) string {
	switch {
	case info.IsClientStream && info.IsServerStream:
		return KindBidiStream
	case info.IsClientStream:
		return KindClientStream
	case info.IsServerStream:
		return KindServerStream
	default:
		return KindUnary
	}
}

// serverStream overrides the context of a wrapped grpc.ServerStream.
type serverStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the context carrying the request description.
func (s *serverStream) Context() context.Context { return s.ctx }

type metadataCarrier struct {
	metadata.MD
}

// Get returns the first value for the provided metadata key.
func (mc metadataCarrier) Get(key string) string {
	return first(mc.MD, key)
}

// Set stores the value under the provided metadata key.
func (mc metadataCarrier) Set(key, value string) {
	mc.MD.Set(key, value)
}

// Keys reports all metadata keys present in the carrier.
func (mc metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(mc.MD))
	for k := range mc.MD {
		keys = append(keys, k)
	}
	return keys
}

// ensureServerSpanContext extracts a remote span context from metadata when
// the context carries none.
func ensureServerSpanContext(ctx context.Context, md metadata.MD, cfg *config) context.Context {
	if !cfg.propagateTrace || md == nil || trace.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}
	propagator := cfg.propagators
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	extracted := propagator.Extract(ctx, metadataCarrier{md})
	if !trace.SpanContextFromContext(extracted).IsValid() {
		return ctx
	}
	return extracted
}

func first(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
