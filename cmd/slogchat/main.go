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


// Command slogchat posts a single notification to a Google Chat webhook.
//
// Configuration is read from SLOGCHAT_* environment variables, optionally
// seeded from a .env file:
//
//	SLOGCHAT_WEBHOOK_URL=https://chat.googleapis.com/v1/spaces/... \
//	slogchat -level critical -message "backup failed" host=db-1 attempt=3
//
// Trailing key=value arguments are attached to the message context. The
// exit status is 1 when the message could not be delivered.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/pjscruggs/slogchat"
)

const envPrefix = "SLOGCHAT_"

// cliConfig is the environment configuration consumed by the command.
type cliConfig struct {
	WebhookURL  string `koanf:"webhook_url" validate:"required,url"`
	AppName     string `koanf:"app_name"`
	Environment string `koanf:"environment"`
	Variant     string `koanf:"variant" validate:"omitempty,oneof=minimal notifying notify"`
	ThreadKey   string `koanf:"thread_key" validate:"omitempty,max=4000"`
	Mentions    string `koanf:"mentions"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns its exit status.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	diag := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := send(ctx, args, stderr, diag); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		diag.Error("slogchat failed", slog.Any("error", err))
		return 1
	}
	return 0
}

func send(ctx context.Context, args []string, stderr io.Writer, diag *slog.Logger) error {
	fset := flag.NewFlagSet("slogchat", flag.ContinueOnError)
	fset.SetOutput(stderr)
	envFile := fset.String("env-file", ".env", "dotenv file loaded before reading SLOGCHAT_* variables")
	levelName := fset.String("level", "error", "level of the message (debug, info, notice, warning, error, critical, alert, emergency)")
	message := fset.String("message", "", "message text")
	timeout := fset.Duration("timeout", 10*time.Second, "webhook request timeout")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*message) == "" {
		return errors.New("-message is required")
	}
	level, err := slogchat.ParseLevel(*levelName)
	if err != nil {
		return err
	}
	attrs, err := parseContextArgs(fset.Args())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*envFile)
	if err != nil {
		return err
	}
	opts, err := handlerOptions(cfg, level.Level(), diag)
	if err != nil {
		return err
	}
	h, err := slogchat.NewHandler(cfg.WebhookURL, opts...)
	if err != nil {
		return err
	}
	defer h.Close()

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	r := slog.NewRecord(time.Now(), level.Level(), *message, 0)
	r.AddAttrs(attrs...)
	return h.Handle(ctx, r)
}

// loadConfig seeds the environment from path, when it exists, and reads the
// SLOGCHAT_* variables.
func loadConfig(path string) (cliConfig, error) {
	var cfg cliConfig
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", path, err)
		}
	}

	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("decode environment: %w", err)
	}
	cfg.Variant = strings.ToLower(strings.TrimSpace(cfg.Variant))
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// handlerOptions turns cfg into handler options. The level threshold is the
// message level so the message is always delivered.
func handlerOptions(cfg cliConfig, level slog.Level, diag *slog.Logger) ([]slogchat.Option, error) {
	opts := []slogchat.Option{
		slogchat.WithLevel(level),
		slogchat.WithInternalLogger(diag),
	}
	if cfg.AppName != "" {
		opts = append(opts, slogchat.WithAppName(cfg.AppName))
	}
	if cfg.Environment != "" {
		opts = append(opts, slogchat.WithEnvironment(cfg.Environment))
	}
	if cfg.ThreadKey != "" {
		opts = append(opts, slogchat.WithThreadKey(cfg.ThreadKey))
	}
	if cfg.Variant != "" {
		variant, err := slogchat.ParseVariant(cfg.Variant)
		if err != nil {
			return nil, err
		}
		opts = append(opts, slogchat.WithVariant(variant))
	}
	if cfg.Mentions != "" {
		mentions, err := slogchat.ParseMentions(cfg.Mentions)
		if err != nil {
			return nil, err
		}
		opts = append(opts, slogchat.WithMentions(mentions))
	}
	return opts, nil
}

// parseContextArgs converts key=value arguments into attributes.
func parseContextArgs(args []string) ([]slog.Attr, error) {
	attrs := make([]slog.Attr, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", arg)
		}
		attrs = append(attrs, slog.String(key, value))
	}
	return attrs, nil
}
