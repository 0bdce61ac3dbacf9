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
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/pjscruggs/slogchat/chat"
)

var projectIDPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{4,28}[a-z0-9]$`)

// ExtractTraceSpan extracts OpenTelemetry trace details from ctx. It returns
// the 32-char hex trace ID, the 16-char hex span ID, the sampling decision
// and the span context itself (valid only when a trace is present).
//
// It does not create spans or parse headers; middleware such as
// slogchathttp.Middleware populates the span context upstream.
func ExtractTraceSpan(ctx context.Context) (rawTraceID, rawSpanID string, sampled bool, sc trace.SpanContext) {
	if ctx == nil {
		return "", "", false, trace.SpanContext{}
	}
	sc = trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", "", false, sc
	}
	return sc.TraceID().String(), sc.SpanID().String(), sc.IsSampled(), sc
}

// TraceConsoleURL returns the Cloud Trace console link for traceID in
// projectID, or the empty string when the project is unknown or invalid.
func TraceConsoleURL(projectID, traceID string) string {
	project, ok := normalizeTraceProjectID(projectID)
	if !ok || traceID == "" {
		return ""
	}
	q := url.Values{}
	q.Set("project", project)
	q.Set("tid", traceID)
	return "https://console.cloud.google.com/traces/list?" + q.Encode()
}

// traceWidget renders the trace row of a notifying card. With a known
// project the trace ID links to the Cloud Trace console.
func traceWidget(ctx context.Context, projectID string) (chat.Widget, bool) {
	traceID, spanID, _, sc := ExtractTraceSpan(ctx)
	if !sc.IsValid() {
		return chat.Widget{}, false
	}
	text := fmt.Sprintf("%s / %s", traceID, spanID)
	if link := TraceConsoleURL(projectID, traceID); link != "" {
		text = fmt.Sprintf(`<a href="%s">%s</a> / %s`, link, traceID, spanID)
	}
	return chat.NewWidget(chat.IconMembership, "Trace", text), true
}

// normalizeTraceProjectID trims, strips a "projects/" prefix and validates
// a Cloud project identifier.
func normalizeTraceProjectID(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(s), "projects/") {
		s = s[len("projects/"):]
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || strings.Contains(s, "/") {
		return "", false
	}
	if !projectIDPattern.MatchString(s) {
		return "", false
	}
	return s, true
}
