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


package slogchathttp

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/pjscruggs/slogchat"
)

const instrumentationName = "github.com/pjscruggs/slogchat/slogchathttp"

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// detectRuntime is swapped by tests to avoid metadata server lookups.
var detectRuntime = slogchat.DetectRuntimeInfo

// Middleware returns an http.Handler middleware that stores a
// [slogchat.RequestInfo] for each request and makes inbound trace context
// available to handlers.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	cfg := applyOptions(opts)
	if !cfg.trustXForwardedProtoSet {
		cfg.trustXForwardedProto = trustsForwardedProto(detectRuntime().Kind)
	}

	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}

		chain := wrapWithOTel(cfg, recordRequest(cfg, next))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if newCtx := ensureSpanContext(ctx, r, cfg); newCtx != ctx {
				r = r.WithContext(newCtx)
			}
			chain.ServeHTTP(w, r)
		})
	}
}

// recordRequest stores the request description before calling next.
func recordRequest(cfg *config, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := slogchat.ContextWithRequest(r.Context(), requestInfo(r, cfg))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestInfo describes r the way [Middleware] configured with opts records
// it. X-Forwarded-Proto is only trusted when opts enable it.
func RequestInfo(r *http.Request, opts ...Option) slogchat.RequestInfo {
	return requestInfo(r, applyOptions(opts))
}

func requestInfo(r *http.Request, cfg *config) slogchat.RequestInfo {
	if r == nil {
		return slogchat.RequestInfo{}
	}
	info := slogchat.RequestInfo{
		Method: r.Method,
		URL:    requestURL(r, cfg),
	}
	if cfg.routeGetter != nil {
		info.Route = strings.TrimSpace(cfg.routeGetter(r))
	} else {
		info.Route = r.Pattern
	}
	return info
}

// requestURL rebuilds the absolute URL the client requested.
func requestURL(r *http.Request, cfg *config) string {
	if r.URL == nil {
		return ""
	}
	u := *r.URL
	if u.Scheme == "" {
		u.Scheme = inferScheme(r, cfg)
	}
	if u.Host == "" {
		u.Host = r.Host
	}
	if !cfg.includeQuery {
		u.RawQuery = ""
		u.ForceQuery = false
	}
	u.Fragment = ""
	u.User = nil
	if u.Host == "" {
		return u.RequestURI()
	}
	return u.String()
}

// inferScheme prefers a trusted X-Forwarded-Proto and otherwise falls back
// to TLS presence.
func inferScheme(r *http.Request, cfg *config) string {
	if cfg.trustXForwardedProto {
		if proto := xForwardedProto(r.Header.Get("X-Forwarded-Proto")); proto != "" {
			return proto
		}
	}
	if r.TLS != nil {
		return schemeHTTPS
	}
	return schemeHTTP
}

// xForwardedProto returns the first hop of an X-Forwarded-Proto value when
// it names http or https.
func xForwardedProto(value string) string {
	value = strings.TrimSpace(value)
	if token, _, ok := strings.Cut(value, ","); ok {
		value = token
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if value == schemeHTTP || value == schemeHTTPS {
		return value
	}
	return ""
}

// trustsForwardedProto reports whether TLS terminates in front of the
// application on the given runtime.
func trustsForwardedProto(kind slogchat.RuntimeKind) bool {
	switch kind {
	case slogchat.RuntimeCloudRunService,
		slogchat.RuntimeCloudFunctions,
		slogchat.RuntimeAppEngine:
		return true
	default:
		return false
	}
}

// wrapWithOTel wraps handler with otelhttp middleware when enabled.
func wrapWithOTel(cfg *config, handler http.Handler) http.Handler {
	if !cfg.enableOTel {
		return handler
	}
	return otelhttp.NewHandler(handler, instrumentationName, otelOptions(cfg)...)
}

// otelOptions builds otelhttp handler options from configuration.
func otelOptions(cfg *config) []otelhttp.Option {
	var otelOpts []otelhttp.Option
	if cfg.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(cfg.tracerProvider))
	}
	if cfg.propagateTrace {
		if cfg.propagatorsSet && cfg.propagators != nil {
			otelOpts = append(otelOpts, otelhttp.WithPropagators(cfg.propagators))
		}
	} else {
		otelOpts = append(otelOpts, otelhttp.WithPropagators(noopPropagator{}))
	}
	if cfg.publicEndpoint {
		otelOpts = append(otelOpts, otelhttp.WithPublicEndpointFn(func(*http.Request) bool {
			return true
		}))
	}
	if cfg.spanNameFormatter != nil {
		otelOpts = append(otelOpts, otelhttp.WithSpanNameFormatter(cfg.spanNameFormatter))
	}
	for _, filter := range cfg.filters {
		otelOpts = append(otelOpts, otelhttp.WithFilter(filter))
	}
	return otelOpts
}

type noopPropagator struct{}

func (noopPropagator) Inject(context.Context, propagation.TextMapCarrier) {}

func (noopPropagator) Extract(ctx context.Context, _ propagation.TextMapCarrier) context.Context {
	return ctx
}

func (noopPropagator) Fields() []string { return nil }

// ensureSpanContext extracts remote trace context from the request headers
// when the context carries no span yet.
func ensureSpanContext(ctx context.Context, r *http.Request, cfg *config) context.Context {
	if !cfg.propagateTrace || trace.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}
	propagator := cfg.propagators
	if propagator == nil {
		if cfg.propagatorsSet {
			return ctx
		}
		propagator = otel.GetTextMapPropagator()
	}
	extracted := propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
	if !trace.SpanContextFromContext(extracted).IsValid() {
		return ctx
	}
	return extracted
}
