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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pjscruggs/slogchat/chat"
)

// replyFallbackToNewThread posts into the keyed thread, creating it when
// it does not exist yet.
const replyFallbackToNewThread = "REPLY_MESSAGE_FALLBACK_TO_NEW_THREAD"

// maxErrorBody bounds the response bytes kept on a StatusError.
const maxErrorBody = 512

var (
	// ErrMissingWebhookURL indicates that no webhook URL was configured.
	ErrMissingWebhookURL = errors.New("slogchat: missing webhook URL")
	// ErrNilMessage is returned by Send when called without a message.
	ErrNilMessage = errors.New("slogchat: nil message")
)

// StatusError reports a webhook response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Status     string
	// Body holds the start of the response body, if any.
	Body string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("slogchat: webhook responded %s", e.Status)
	}
	return fmt.Sprintf("slogchat: webhook responded %s: %s", e.Status, e.Body)
}

// DispatcherOption configures a [Dispatcher].
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	client    *http.Client
	threadKey string
	otel      bool
}

// WithHTTPClient sends requests through client instead of a client built
// on http.DefaultTransport.
func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.client = client
	}
}

// WithDispatchThreadKey posts every message into the Google Chat thread
// identified by key.
func WithDispatchThreadKey(key string) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.threadKey = strings.TrimSpace(key)
	}
}

// WithOTelTransport wraps the client transport with otelhttp so each
// webhook POST becomes a client span.
func WithOTelTransport(enabled bool) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.otel = enabled
	}
}

// Dispatcher posts chat messages to one incoming webhook. Each Send is a
// single blocking POST with no retry.
type Dispatcher struct {
	client *http.Client
	url    string
}

// NewDispatcher validates webhookURL and returns a Dispatcher for it.
func NewDispatcher(webhookURL string, opts ...DispatcherOption) (*Dispatcher, error) {
	o := dispatcherOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil, ErrMissingWebhookURL
	}
	u, err := url.Parse(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("slogchat: parse webhook URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("slogchat: webhook URL %q must be absolute http(s)", u.Redacted())
	}
	if o.threadKey != "" {
		q := u.Query()
		q.Set("threadKey", o.threadKey)
		q.Set("messageReplyOption", replyFallbackToNewThread)
		u.RawQuery = q.Encode()
	}

	client := o.client
	if client == nil {
		client = &http.Client{}
	}
	if o.otel {
		wrapped := *client
		base := wrapped.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped.Transport = otelhttp.NewTransport(base,
			otelhttp.WithSpanNameFormatter(func(string, *http.Request) string {
				return "slogchat.webhook"
			}),
		)
		client = &wrapped
	}

	return &Dispatcher{client: client, url: u.String()}, nil
}

// URL returns the webhook URL including any thread parameters.
func (d *Dispatcher) URL() string { return d.url }

// Send encodes msg and posts it. Transport failures are wrapped; a non-2xx
// response yields a *StatusError.
func (d *Dispatcher) Send(ctx context.Context, msg *chat.Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msg); err != nil {
		return fmt.Errorf("slogchat: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, &body)
	if err != nil {
		return fmt.Errorf("slogchat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("slogchat: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, resp.Body)
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(snippet)),
	}
}

// CloseIdleConnections releases idle keep-alive connections of the client.
func (d *Dispatcher) CloseIdleConnections() {
	d.client.CloseIdleConnections()
}
