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
	"sync"
)

// Handler delivers slog records to a Google Chat space through an incoming
// webhook. Each handled record results in exactly one synchronous POST; the
// record then continues to the next handler when one is configured.
type Handler struct {
	slog.Handler

	cfg            *handlerConfig
	formatter      *Formatter
	dispatcher     *Dispatcher
	internalLogger *slog.Logger
	levelVar       *slog.LevelVar

	closeOnce sync.Once
}

// detectRuntime is swapped by tests to avoid metadata server lookups.
var detectRuntime = DetectRuntimeInfo

// NewHandler builds a Google Chat [Handler]. Configuration is read from
// SLOGCHAT_* environment variables, then webhookURL (when not empty), then
// opts in order. The application name and environment default to values
// derived from the detected runtime.
//
// Example:
//
//	h, err := slogchat.NewHandler(os.Getenv("CHAT_WEBHOOK"),
//		slogchat.WithLevel(slog.LevelError),
//		slogchat.WithNext(slog.NewJSONHandler(os.Stderr, nil)),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	logger := slog.New(h)
//	logger.Error("DB down", slog.Any("error", err))
func NewHandler(webhookURL string, opts ...Option) (*Handler, error) {
	builder := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(builder)
		}
	}

	internalLogger := builder.internalLogger
	if internalLogger == nil {
		internalLogger = slog.New(slog.DiscardHandler)
	}

	cfg := loadConfigFromEnv(internalLogger)
	if u := strings.TrimSpace(webhookURL); u != "" {
		cfg.WebhookURL = u
	}
	applyOptions(&cfg, builder)
	if builder.levelVar != nil && builder.level == nil {
		cfg.Level = builder.levelVar.Level()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	applyRuntimeDefaults(&cfg, detectRuntime)

	dispatcher, err := NewDispatcher(cfg.WebhookURL,
		WithHTTPClient(cfg.HTTPClient),
		WithDispatchThreadKey(cfg.ThreadKey),
		WithOTelTransport(cfg.OTelTransport),
	)
	if err != nil {
		return nil, err
	}

	levelVar := builder.levelVar
	if levelVar == nil {
		levelVar = new(slog.LevelVar)
	}
	levelVar.Set(cfg.Level)

	cfgPtr := &cfg
	formatter := NewFormatter(cfg.Formatter)
	core := newChatHandler(cfgPtr, levelVar, formatter, dispatcher, internalLogger)
	handler := slog.Handler(core)
	for i := len(cfgPtr.Middlewares) - 1; i >= 0; i-- {
		handler = cfgPtr.Middlewares[i](handler)
	}

	return &Handler{
		Handler:        handler,
		cfg:            cfgPtr,
		formatter:      formatter,
		dispatcher:     dispatcher,
		internalLogger: internalLogger,
		levelVar:       levelVar,
	}, nil
}

// Close releases idle webhook connections. It is safe to call multiple
// times; only the first invocation performs work.
func (h *Handler) Close() error {
	h.closeOnce.Do(func() {
		if h.dispatcher != nil {
			h.dispatcher.CloseIdleConnections()
		}
	})
	return nil
}

// Formatter returns the formatter used to render records.
func (h *Handler) Formatter() *Formatter {
	if h == nil {
		return nil
	}
	return h.formatter
}

// WebhookURL returns the URL messages are posted to.
func (h *Handler) WebhookURL() string {
	if h == nil || h.dispatcher == nil {
		return ""
	}
	return h.dispatcher.URL()
}

// SetLevel updates the minimum level delivered to the chat space at runtime.
// Calls are safe for concurrent use.
func (h *Handler) SetLevel(level slog.Level) {
	if h == nil || h.levelVar == nil {
		return
	}
	h.levelVar.Set(level)
}

// Level reports the handler's current minimum delivery level.
func (h *Handler) Level() slog.Level {
	if h == nil || h.levelVar == nil {
		return slog.LevelInfo
	}
	return h.levelVar.Level()
}

// LevelVar returns the underlying slog.LevelVar used to gate delivery.
func (h *Handler) LevelVar() *slog.LevelVar {
	if h == nil {
		return nil
	}
	return h.levelVar
}

// NoticeContext logs at notice level for operational events worth a look
// that do not indicate an outage.
func NoticeContext(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Log(ctx, LevelNotice.Level(), msg, args...)
}

// CriticalContext logs at critical level indicating immediate attention is
// required.
func CriticalContext(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Log(ctx, LevelCritical.Level(), msg, args...)
}

// AlertContext logs at alert level for non-recoverable issues.
func AlertContext(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Log(ctx, LevelAlert.Level(), msg, args...)
}

// EmergencyContext logs at emergency level for application-wide failures.
func EmergencyContext(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Log(ctx, LevelEmergency.Level(), msg, args...)
}
