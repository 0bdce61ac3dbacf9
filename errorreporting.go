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


package slogchat

import (
	"context"
	"log/slog"
	"strings"
)

// ExceptionOption configures ExceptionAttr and ReportError.
type ExceptionOption func(*exceptionConfig)

type exceptionConfig struct {
	message string
	class   string
}

// WithExceptionMessage overrides the message recorded in the exception map.
func WithExceptionMessage(msg string) ExceptionOption {
	return func(cfg *exceptionConfig) {
		cfg.message = strings.TrimSpace(msg)
	}
}

// WithExceptionClass overrides the class recorded in the exception map,
// which otherwise is the Go type of err.
func WithExceptionClass(class string) ExceptionOption {
	return func(cfg *exceptionConfig) {
		cfg.class = strings.TrimSpace(class)
	}
}

// ExceptionAttr returns an "exception" attribute describing err. Frames come
// from err when it records its origin, otherwise from the caller of
// ExceptionAttr. The attribute is rendered as the inline exception block of
// the chat message.
func ExceptionAttr(err error, opts ...ExceptionOption) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	cfg := exceptionConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	exc := exceptionValue(err, CaptureStack(nil)).Map()
	if cfg.class != "" {
		exc.Set("class", StringValue(cfg.class))
	}
	if cfg.message != "" {
		exc.Set("message", StringValue(cfg.message))
	}
	return slog.Any(exceptionKey, MapValue(exc))
}

// ReportError logs err using logger at error level with an exception
// attribute captured at the call site.
func ReportError(ctx context.Context, logger *slog.Logger, err error, msg string, opts ...ExceptionOption) {
	if logger == nil || err == nil {
		return
	}
	logger.LogAttrs(ctx, LevelError.Level(), msg, ExceptionAttr(err, opts...))
}
