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
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures the HTTP middleware.
type Option func(*config)

type config struct {
	enableOTel              bool
	tracerProvider          trace.TracerProvider
	propagators             propagation.TextMapPropagator
	propagatorsSet          bool
	propagateTrace          bool
	publicEndpoint          bool
	spanNameFormatter       func(string, *http.Request) string
	filters                 []otelhttp.Filter
	routeGetter             func(*http.Request) string
	includeQuery            bool
	trustXForwardedProto    bool
	trustXForwardedProtoSet bool
}

// defaultConfig returns the baseline middleware configuration.
func defaultConfig() *config {
	return &config{
		enableOTel:     true,
		propagateTrace: true,
	}
}

// applyOptions applies the provided options on top of defaultConfig.
func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithOTel enables or disables automatic otelhttp instrumentation. It is
// enabled by default.
func WithOTel(enabled bool) Option {
	return func(cfg *config) {
		cfg.enableOTel = enabled
	}
}

// WithTracerProvider installs the tracer provider used by the otelhttp
// handler.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.tracerProvider = tp
	}
}

// WithPropagators supplies the propagator used to extract inbound trace
// context. When omitted, otel.GetTextMapPropagator() is used.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(cfg *config) {
		cfg.propagators = p
		cfg.propagatorsSet = true
	}
}

// WithTracePropagation toggles extraction of inbound trace context. Enabled
// by default.
func WithTracePropagation(enabled bool) Option {
	return func(cfg *config) {
		cfg.propagateTrace = enabled
	}
}

// WithPublicEndpoint toggles the otelhttp public endpoint hint.
func WithPublicEndpoint(enabled bool) Option {
	return func(cfg *config) {
		cfg.publicEndpoint = enabled
	}
}

// WithSpanNameFormatter customizes otelhttp span naming.
func WithSpanNameFormatter(formatter func(string, *http.Request) string) Option {
	return func(cfg *config) {
		cfg.spanNameFormatter = formatter
	}
}

// WithFilter appends an otelhttp filter applied before span creation.
func WithFilter(filter otelhttp.Filter) Option {
	return func(cfg *config) {
		if filter != nil {
			cfg.filters = append(cfg.filters, filter)
		}
	}
}

// WithRouteGetter overrides how the middleware resolves the route template
// of a request. By default r.Pattern is used.
func WithRouteGetter(fn func(*http.Request) string) Option {
	return func(cfg *config) {
		cfg.routeGetter = fn
	}
}

// WithIncludeQuery toggles inclusion of the raw query string in the
// recorded URL. Queries are omitted by default since they often carry
// tokens.
func WithIncludeQuery(enabled bool) Option {
	return func(cfg *config) {
		cfg.includeQuery = enabled
	}
}

// WithTrustXForwardedProto controls whether the X-Forwarded-Proto header
// decides the scheme of the recorded URL. When unset it is trusted on
// serverless runtimes that terminate TLS in front of the application.
func WithTrustXForwardedProto(enabled bool) Option {
	return func(cfg *config) {
		cfg.trustXForwardedProto = enabled
		cfg.trustXForwardedProtoSet = true
	}
}
