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
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
)

// Option configures the gRPC interceptors and ServerOptions.
type Option func(*config)

type config struct {
	enableOTel     bool
	tracerProvider trace.TracerProvider
	propagators    propagation.TextMapPropagator
	propagatorsSet bool
	propagateTrace bool
	filters        []otelgrpc.Filter
	errorLogger    *slog.Logger
	errorCodes     map[codes.Code]struct{}
}

// defaultErrorCodes are the status codes reported by WithErrorLogger.
var defaultErrorCodes = []codes.Code{
	codes.Unknown,
	codes.Internal,
	codes.DataLoss,
	codes.Unavailable,
	codes.Unimplemented,
}

func defaultConfig() *config {
	cfg := &config{
		enableOTel:     true,
		propagateTrace: true,
	}
	cfg.setErrorCodes(defaultErrorCodes)
	return cfg
}

func (cfg *config) setErrorCodes(list []codes.Code) {
	cfg.errorCodes = make(map[codes.Code]struct{}, len(list))
	for _, c := range list {
		cfg.errorCodes[c] = struct{}{}
	}
}

// applyOptions applies the provided Option list, starting from defaultConfig.
func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithOTel toggles the otelgrpc stats handler installed by ServerOptions.
// Enabled by default.
func WithOTel(enabled bool) Option {
	return func(cfg *config) {
		cfg.enableOTel = enabled
	}
}

// WithTracerProvider sets the tracer provider of the otelgrpc stats handler.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.tracerProvider = tp
	}
}

// WithPropagators supplies the propagator used to extract trace context from
// incoming metadata. When omitted, otel.GetTextMapPropagator() is used.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(cfg *config) {
		cfg.propagators = p
		cfg.propagatorsSet = true
	}
}

// WithTracePropagation toggles extraction of trace context from incoming
// metadata. Enabled by default.
func WithTracePropagation(enabled bool) Option {
	return func(cfg *config) {
		cfg.propagateTrace = enabled
	}
}

// WithFilter appends an otelgrpc filter to the stats handler.
func WithFilter(filter otelgrpc.Filter) Option {
	return func(cfg *config) {
		if filter != nil {
			cfg.filters = append(cfg.filters, filter)
		}
	}
}

// WithErrorLogger logs RPCs that fail with one of the reporting codes to
// logger at error level. The default codes are Unknown, Internal, DataLoss,
// Unavailable and Unimplemented.
func WithErrorLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.errorLogger = logger
	}
}

// WithErrorCodes replaces the status codes reported by WithErrorLogger.
func WithErrorCodes(list ...codes.Code) Option {
	return func(cfg *config) {
		cfg.setErrorCodes(list)
	}
}
