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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	envWebhookURL      = "SLOGCHAT_WEBHOOK_URL"
	envLevel           = "SLOGCHAT_LEVEL"
	envAppName         = "SLOGCHAT_APP_NAME"
	envEnvironment     = "SLOGCHAT_ENVIRONMENT"
	envBasePath        = "SLOGCHAT_BASE_PATH"
	envExcludeFields   = "SLOGCHAT_EXCLUDE_FIELDS"
	envAttachment      = "SLOGCHAT_ATTACHMENT"
	envShortAttachment = "SLOGCHAT_SHORT_ATTACHMENT"
	envIncludeContext  = "SLOGCHAT_INCLUDE_CONTEXT"
	envMentions        = "SLOGCHAT_MENTIONS"
	envVariant         = "SLOGCHAT_VARIANT"
	envThreadKey       = "SLOGCHAT_THREAD_KEY"
	envBubble          = "SLOGCHAT_BUBBLE"
	envTraceProjectID  = "SLOGCHAT_TRACE_PROJECT_ID"
)

var configValidator = validator.New()

// handlerConfig is the resolved configuration of a Handler.
type handlerConfig struct {
	WebhookURL string `validate:"required,url"`
	Level      slog.Level
	ThreadKey  string `validate:"omitempty,max=4000"`
	Bubble     bool

	Formatter FormatterConfig

	Next          slog.Handler
	HTTPClient    *http.Client
	OTelTransport bool
	Middlewares   []Middleware
	InitialAttrs  []groupedAttr
	InitialGroups []string
}

// loadConfigFromEnv reads SLOGCHAT_* overrides on top of the defaults.
// Unparseable values are reported to logger and ignored.
func loadConfigFromEnv(logger *slog.Logger) handlerConfig {
	cfg := handlerConfig{
		Level:     slog.LevelInfo,
		Bubble:    true,
		Formatter: DefaultFormatterConfig(),
	}

	cfg.WebhookURL = trimmedEnv(envWebhookURL)
	cfg.Level = parseLevelEnv(os.Getenv(envLevel), cfg.Level, logger)
	cfg.ThreadKey = trimmedEnv(envThreadKey)
	cfg.Bubble = parseBoolEnv(os.Getenv(envBubble), cfg.Bubble, logger)

	f := &cfg.Formatter
	f.AppName = trimmedEnv(envAppName)
	f.Environment = trimmedEnv(envEnvironment)
	f.BasePath = trimmedEnv(envBasePath)
	f.TraceProjectID = trimmedEnv(envTraceProjectID)
	f.ExcludeFields = splitList(os.Getenv(envExcludeFields))
	f.UseAttachment = parseBoolEnv(os.Getenv(envAttachment), f.UseAttachment, logger)
	f.UseShortAttachment = parseBoolEnv(os.Getenv(envShortAttachment), f.UseShortAttachment, logger)
	f.IncludeContextAndExtra = parseBoolEnv(os.Getenv(envIncludeContext), f.IncludeContextAndExtra, logger)

	if raw := os.Getenv(envMentions); strings.TrimSpace(raw) != "" {
		mentions, err := ParseMentions(raw)
		if err != nil {
			logDiagnostic(logger, slog.LevelWarn, "invalid mentions environment variable", slog.String("value", raw), slog.Any("error", err))
		} else {
			f.Mentions = mentions
		}
	}
	if raw := os.Getenv(envVariant); strings.TrimSpace(raw) != "" {
		v, err := ParseVariant(raw)
		if err != nil {
			logDiagnostic(logger, slog.LevelWarn, "invalid variant environment variable", slog.String("value", raw))
		} else {
			f.Variant = v
		}
	}
	return cfg
}

// applyOptions merges user-supplied options into the derived handler
// configuration.
func applyOptions(cfg *handlerConfig, o *options) {
	if o.webhookURL != nil {
		cfg.WebhookURL = strings.TrimSpace(*o.webhookURL)
	}
	if o.level != nil {
		cfg.Level = *o.level
	}
	if o.threadKey != nil {
		cfg.ThreadKey = strings.TrimSpace(*o.threadKey)
	}
	if o.bubble != nil {
		cfg.Bubble = *o.bubble
	}
	if o.next != nil {
		cfg.Next = o.next
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}
	if o.otelTransport != nil {
		cfg.OTelTransport = *o.otelTransport
	}
	if len(o.middlewares) > 0 {
		cfg.Middlewares = append([]Middleware(nil), o.middlewares...)
	}
	cfg.InitialAttrs = append(cfg.InitialAttrs, o.attrs...)
	if o.groupsSet {
		cfg.InitialGroups = append([]string(nil), o.groups...)
	}

	f := &cfg.Formatter
	if o.appName != nil {
		f.AppName = strings.TrimSpace(*o.appName)
	}
	if o.environment != nil {
		f.Environment = strings.TrimSpace(*o.environment)
	}
	if o.basePath != nil {
		f.BasePath = *o.basePath
	}
	if o.excludeSet {
		f.ExcludeFields = append([]string(nil), o.excludeFields...)
	}
	if o.attachment != nil {
		f.UseAttachment = *o.attachment
	}
	if o.short != nil {
		f.UseShortAttachment = *o.short
	}
	if o.includeContext != nil {
		f.IncludeContextAndExtra = *o.includeContext
	}
	if o.mentions != nil {
		f.Mentions = o.mentions
	}
	if o.variant != nil {
		f.Variant = *o.variant
	}
	if o.customRows != nil {
		f.CustomRows = o.customRows
	}
	if o.traceProjectID != nil {
		f.TraceProjectID = strings.TrimSpace(*o.traceProjectID)
	}
}

// applyRuntimeDefaults fills the application name, environment and trace
// project from the detected runtime when they are still unset.
func applyRuntimeDefaults(cfg *handlerConfig, detect func() RuntimeInfo) {
	f := &cfg.Formatter
	if f.AppName != "" && f.Environment != "" && f.TraceProjectID != "" {
		return
	}
	info := detect()
	if f.AppName == "" {
		f.AppName = info.AppName()
	}
	if f.Environment == "" {
		f.Environment = info.EnvironmentName()
	}
	if f.TraceProjectID == "" {
		f.TraceProjectID = info.ProjectID
	}
}

// validate checks the resolved configuration.
func (cfg *handlerConfig) validate() error {
	if cfg.WebhookURL == "" {
		return ErrMissingWebhookURL
	}
	if err := configValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("slogchat: invalid %s: failed %q validation: %w", verrs[0].Field(), verrs[0].Tag(), err)
		}
		return fmt.Errorf("slogchat: invalid config: %w", err)
	}
	if cfg.Formatter.Variant != VariantMinimal && cfg.Formatter.Variant != VariantNotifying {
		return fmt.Errorf("slogchat: unknown variant %d", int(cfg.Formatter.Variant))
	}
	return nil
}

// parseBoolEnv interprets truthy environment variable values with validation
// diagnostics.
func parseBoolEnv(value string, current bool, logger *slog.Logger) bool {
	if strings.TrimSpace(value) == "" {
		return current
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		logDiagnostic(logger, slog.LevelWarn, "invalid boolean environment variable", slog.String("value", value), slog.Any("error", err))
		return current
	}
	return b
}

// parseLevelEnv parses slog levels from environment variables, retaining the
// current level on failure.
func parseLevelEnv(value string, current slog.Level, logger *slog.Logger) slog.Level {
	if strings.TrimSpace(value) == "" {
		return current
	}
	level, err := ParseLevel(value)
	if err != nil {
		logDiagnostic(logger, slog.LevelWarn, "invalid log level environment variable", slog.String("value", value))
		return current
	}
	return level.Level()
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// logDiagnostic emits internal diagnostic messages, guarding against nil
// loggers in tests.
func logDiagnostic(logger *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}
