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
	"log/slog"
	"net/http"
	"strings"
)

// Option mutates Handler construction behaviour when supplied to [NewHandler].
//
// Options follow the functional options pattern and are applied in the order
// they are provided by the caller. They take precedence over the webhook
// URL argument and over SLOGCHAT_* environment variables.
type Option func(*options)

// Middleware adapts a [slog.Handler] before it is exposed by [Handler].
// Middleware functions run in the order they are supplied, wrapping the core
// handler from last to first to mirror idiomatic HTTP middleware composition.
type Middleware func(slog.Handler) slog.Handler

// options holds explicitly configured settings. Pointer fields separate an
// explicit zero value from an unset option.
type options struct {
	webhookURL     *string
	level          *slog.Level
	levelVar       *slog.LevelVar
	appName        *string
	environment    *string
	basePath       *string
	excludeFields  []string
	excludeSet     bool
	attachment     *bool
	short          *bool
	includeContext *bool
	mentions       NotificationConfig
	variant        *Variant
	customRows     CustomRowsFunc
	traceProjectID *string
	next           slog.Handler
	bubble         *bool
	threadKey      *string
	httpClient     *http.Client
	otelTransport  *bool
	middlewares    []Middleware
	attrs          []groupedAttr
	groups         []string
	groupsSet      bool
	internalLogger *slog.Logger
}

// WithWebhookURL sets the incoming webhook the handler posts to.
func WithWebhookURL(url string) Option {
	return func(o *options) {
		o.webhookURL = &url
	}
}

// WithInternalLogger injects a logger for slogchat's own diagnostics, such
// as invalid environment values and failed deliveries.
func WithInternalLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.internalLogger = logger
	}
}

// WithLevel sets the minimum level delivered to the chat space.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = &level
	}
}

// WithLevelVar shares levelVar with the handler so the threshold can be
// changed at runtime. The handler stores the resolved level into it.
func WithLevelVar(levelVar *slog.LevelVar) Option {
	return func(o *options) {
		if levelVar != nil {
			o.levelVar = levelVar
		}
	}
}

// WithAppName sets the application name shown in every message.
func WithAppName(name string) Option {
	return func(o *options) {
		o.appName = &name
	}
}

// WithEnvironment sets the environment label of notifying cards.
func WithEnvironment(env string) Option {
	return func(o *options) {
		o.environment = &env
	}
}

// WithBasePath strips path from exception file names and trace entries.
func WithBasePath(path string) Option {
	return func(o *options) {
		o.basePath = &path
	}
}

// WithExcludeFields removes the given dot paths (for example
// "context.user_id" or "extra.request.headers") before rendering.
func WithExcludeFields(paths ...string) Option {
	return func(o *options) {
		o.excludeSet = true
		o.excludeFields = append(o.excludeFields, paths...)
	}
}

// WithAttachment renders context and extra as card widgets when enabled,
// or inline in the message text when disabled.
func WithAttachment(enabled bool) Option {
	return func(o *options) {
		o.attachment = &enabled
	}
}

// WithShortAttachment renders one summarized widget per category.
func WithShortAttachment(enabled bool) Option {
	return func(o *options) {
		o.short = &enabled
	}
}

// WithContextAndExtra toggles rendering of context and extra data.
func WithContextAndExtra(enabled bool) Option {
	return func(o *options) {
		o.includeContext = &enabled
	}
}

// WithMentions configures the users mentioned per level by the notifying
// variant.
func WithMentions(mentions NotificationConfig) Option {
	return func(o *options) {
		o.mentions = mentions
	}
}

// WithVariant selects the payload layout.
func WithVariant(v Variant) Option {
	return func(o *options) {
		o.variant = &v
	}
}

// WithCustomRows appends the rows returned by fn to every notifying card.
func WithCustomRows(fn CustomRowsFunc) Option {
	return func(o *options) {
		o.customRows = fn
	}
}

// WithTraceProjectID links trace rows to the Cloud Trace console of id.
func WithTraceProjectID(id string) Option {
	return func(o *options) {
		o.traceProjectID = &id
	}
}

// WithNext forwards records to next after they are delivered, unless
// bubbling is disabled with [WithBubble].
func WithNext(next slog.Handler) Option {
	return func(o *options) {
		o.next = next
	}
}

// WithBubble controls whether records continue to the next handler.
// Bubbling is enabled by default.
func WithBubble(enabled bool) Option {
	return func(o *options) {
		o.bubble = &enabled
	}
}

// WithThreadKey groups every message into the Google Chat thread named key.
func WithThreadKey(key string) Option {
	return func(o *options) {
		o.threadKey = &key
	}
}

// WithClient sends webhook requests through client.
func WithClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithOTelWebhookTransport instruments webhook requests with otelhttp.
func WithOTelWebhookTransport(enabled bool) Option {
	return func(o *options) {
		o.otelTransport = &enabled
	}
}

// WithMiddleware appends mw to the chain wrapped around the core handler.
func WithMiddleware(mw Middleware) Option {
	return func(o *options) {
		if mw != nil {
			o.middlewares = append(o.middlewares, mw)
		}
	}
}

// WithAttrs preloads attributes rendered as extra on every record.
func WithAttrs(attrs []slog.Attr) Option {
	return func(o *options) {
		currentGroups := append([]string(nil), o.groups...)
		for _, attr := range attrs {
			o.attrs = append(o.attrs, groupedAttr{groups: currentGroups, attr: attr})
		}
	}
}

// WithGroup nests subsequent attributes under the supplied group name.
func WithGroup(name string) Option {
	trimmed := strings.TrimSpace(name)
	return func(o *options) {
		o.groupsSet = true
		if trimmed == "" {
			o.groups = nil
			return
		}
		o.groups = append(o.groups, trimmed)
	}
}
