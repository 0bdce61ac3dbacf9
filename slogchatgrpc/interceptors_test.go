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
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/pjscruggs/slogchat"
)

type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
	infos   []slogchat.RequestInfo
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	info, _ := slogchat.RequestFromContext(ctx)
	h.mu.Lock()
	h.records = append(h.records, r.Clone())
	h.infos = append(h.infos, info)
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func attrsOf(r slog.Record) map[string]string {
	out := map[string]string{}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.String()
		return true
	})
	return out
}

func TestUnaryServerInterceptorRecordsRequest(t *testing.T) {
	t.Parallel()

	md := metadata.Pairs(":authority", "orders.internal:443")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: "/shop.v1.Orders/Create"}

	var got slogchat.RequestInfo
	_, err := UnaryServerInterceptor()(ctx, nil, info, func(ctx context.Context, _ any) (any, error) {
		got, _ = slogchat.RequestFromContext(ctx)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor returned %v", err)
	}
	want := slogchat.RequestInfo{
		Method: KindUnary,
		URL:    "grpc://orders.internal:443/shop.v1.Orders/Create",
		Route:  "/shop.v1.Orders/Create",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("RequestInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestUnaryServerInterceptorReportsErrors(t *testing.T) {
	t.Parallel()

	capture := &captureHandler{}
	intercept := UnaryServerInterceptor(WithErrorLogger(slog.New(capture)))
	info := &grpc.UnaryServerInfo{FullMethod: "/shop.v1.Orders/Create"}
	req := wrapperspb.String("order-1")

	failures := []error{
		status.Error(codes.Internal, "db down"),
		status.Error(codes.NotFound, "no order"),
		errors.New("plain failure"),
	}
	for _, fail := range failures {
		_, err := intercept(context.Background(), req, info, func(context.Context, any) (any, error) {
			return nil, fail
		})
		if !errors.Is(err, fail) {
			t.Fatalf("interceptor returned %v, want %v", err, fail)
		}
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if len(capture.records) != 2 {
		t.Fatalf("logged %d records, want 2", len(capture.records))
	}
	got := attrsOf(capture.records[0])
	want := map[string]string{
		"grpc.method":  "/shop.v1.Orders/Create",
		"grpc.code":    "Internal",
		"error":        "rpc error: code = Internal desc = db down",
		"grpc.request": "google.protobuf.StringValue",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("attrs mismatch (-want +got):\n%s", diff)
	}
	if got := attrsOf(capture.records[1])["grpc.code"]; got != "Unknown" {
		t.Fatalf("second code = %q, want Unknown", got)
	}
	if capture.infos[0].Route != "/shop.v1.Orders/Create" {
		t.Fatalf("log context missing request info: %+v", capture.infos[0])
	}
}

func TestWithErrorCodes(t *testing.T) {
	t.Parallel()

	capture := &captureHandler{}
	intercept := UnaryServerInterceptor(WithErrorLogger(slog.New(capture)), WithErrorCodes(codes.NotFound))
	info := &grpc.UnaryServerInfo{FullMethod: "/svc/M"}
	for _, code := range []codes.Code{codes.Internal, codes.NotFound} {
		_, _ = intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
			return nil, status.Error(code, "x")
		})
	}
	if len(capture.records) != 1 || attrsOf(capture.records[0])["grpc.code"] != "NotFound" {
		t.Fatalf("records = %v", capture.records)
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s fakeServerStream) Context() context.Context { return s.ctx }

func TestStreamServerInterceptor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info grpc.StreamServerInfo
		want string
	}{
		{name: "bidi", info: grpc.StreamServerInfo{IsClientStream: true, IsServerStream: true}, want: KindBidiStream},
		{name: "client", info: grpc.StreamServerInfo{IsClientStream: true}, want: KindClientStream},
		{name: "server", info: grpc.StreamServerInfo{IsServerStream: true}, want: KindServerStream},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			info := tc.info
			info.FullMethod = "/shop.v1.Orders/Watch"
			var got slogchat.RequestInfo
			err := StreamServerInterceptor()(nil, fakeServerStream{ctx: context.Background()}, &info, func(_ any, ss grpc.ServerStream) error {
				got, _ = slogchat.RequestFromContext(ss.Context())
				return nil
			})
			if err != nil {
				t.Fatalf("interceptor returned %v", err)
			}
			if got.Method != tc.want || got.URL != "/shop.v1.Orders/Watch" {
				t.Fatalf("RequestInfo = %+v", got)
			}
		})
	}
}

func TestEnsureServerSpanContext(t *testing.T) {
	t.Parallel()

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	md := metadata.Pairs("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	cfg := applyOptions([]Option{WithPropagators(propagation.TraceContext{})})

	ctx := ensureServerSpanContext(context.Background(), md, cfg)
	if sc := trace.SpanContextFromContext(ctx); sc.TraceID().String() != traceID {
		t.Fatalf("trace id = %s, want %s", sc.TraceID(), traceID)
	}

	cfg = applyOptions([]Option{WithPropagators(propagation.TraceContext{}), WithTracePropagation(false)})
	ctx = ensureServerSpanContext(context.Background(), md, cfg)
	if trace.SpanContextFromContext(ctx).IsValid() {
		t.Fatalf("span context extracted with propagation disabled")
	}
}

func TestServerOptions(t *testing.T) {
	t.Parallel()

	if got := len(ServerOptions()); got != 3 {
		t.Fatalf("len(ServerOptions()) = %d, want 3", got)
	}
	if got := len(ServerOptions(WithOTel(false))); got != 2 {
		t.Fatalf("len(ServerOptions(WithOTel(false))) = %d, want 2", got)
	}
	srv := grpc.NewServer(ServerOptions()...)
	srv.Stop()
}
