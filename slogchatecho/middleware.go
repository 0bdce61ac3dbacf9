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


// Package slogchatecho provides Echo middleware that records the request
// being served for Google Chat notifications and can report handler errors.
package slogchatecho

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pjscruggs/slogchat"
)

// Option configures the Echo middleware.
type Option func(*config)

type config struct {
	skipper      middleware.Skipper
	includeQuery bool
	errorLogger  *slog.Logger
	minStatus    int
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		skipper:   middleware.DefaultSkipper,
		minStatus: http.StatusInternalServerError,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithSkipper skips requests for which fn returns true.
func WithSkipper(fn middleware.Skipper) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.skipper = fn
		}
	}
}

// WithIncludeQuery keeps the raw query string in the recorded URL.
func WithIncludeQuery(enabled bool) Option {
	return func(cfg *config) {
		cfg.includeQuery = enabled
	}
}

// WithErrorLogger logs errors returned by handlers to logger at error level
// once their HTTP status reaches minStatus (500 when zero or negative).
func WithErrorLogger(logger *slog.Logger, minStatus int) Option {
	return func(cfg *config) {
		cfg.errorLogger = logger
		if minStatus > 0 {
			cfg.minStatus = minStatus
		}
	}
}

// Middleware stores a [slogchat.RequestInfo] on the request context.
func Middleware(opts ...Option) echo.MiddlewareFunc {
	cfg := applyOptions(opts)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.skipper(c) {
				return next(c)
			}
			req := c.Request()
			ctx := slogchat.ContextWithRequest(req.Context(), requestInfo(c, cfg))
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil && cfg.errorLogger != nil {
				if status := statusOf(err); status >= cfg.minStatus {
					cfg.errorLogger.LogAttrs(ctx, slog.LevelError, "request failed",
						slog.Int("status", status),
						slog.Any("error", err),
					)
				}
			}
			return err
		}
	}
}

// requestInfo describes the request of c. Echo resolves the scheme from TLS
// and the X-Forwarded-* headers.
func requestInfo(c echo.Context, cfg *config) slogchat.RequestInfo {
	req := c.Request()
	u := *req.URL
	u.Scheme = c.Scheme()
	u.Host = req.Host
	u.User = nil
	u.Fragment = ""
	if !cfg.includeQuery {
		u.RawQuery = ""
		u.ForceQuery = false
	}
	return slogchat.RequestInfo{
		Method: req.Method,
		URL:    u.String(),
		Route:  c.Path(),
	}
}

// statusOf maps a handler error to the status Echo will answer with.
func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
