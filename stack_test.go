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
	"runtime"
	"strings"
	"testing"
)

type tracedError struct {
	msg string
	pcs []uintptr
}

func (e *tracedError) Error() string { return e.msg }

func (e *tracedError) StackTrace() []uintptr { return e.pcs }

func newTracedError(msg string) error {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(1, pcs)
	return &tracedError{msg: msg, pcs: pcs[:n]}
}

// TestSkipInternalStackFrame hides runtime, slog and library frames.
func TestSkipInternalStackFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fn   string
		want bool
	}{
		{"", false},
		{"runtime.Callers", true},
		{"log/slog.(*Logger).log", true},
		{"github.com/pjscruggs/slogchat.(*chatHandler).Handle", true},
		{"github.com/pjscruggs/slogchatx.Do", false},
		{"main.main", false},
	}
	for _, tc := range tests {
		if got := SkipInternalStackFrame(tc.fn); got != tc.want {
			t.Errorf("SkipInternalStackFrame(%q) = %v, want %v", tc.fn, got, tc.want)
		}
	}
}

// TestExceptionValueUsesErrorStack prefers frames recorded by the error.
func TestExceptionValueUsesErrorStack(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", newTracedError("boom"))
	exc := exceptionValue(err, nil).Map()

	class, _ := exc.Get("class")
	if class.Str() != "*fmt.wrapError" {
		t.Fatalf("class = %q", class.Str())
	}
	msg, _ := exc.Get("message")
	if msg.Str() != "wrapped: boom" {
		t.Fatalf("message = %q", msg.Str())
	}
	file, _ := exc.Get("file")
	if !strings.HasSuffix(file.Str(), "stack_test.go") {
		t.Fatalf("file = %q, want stack_test.go", file.Str())
	}
	trace, _ := exc.Get("trace")
	if len(trace.List()) == 0 || !strings.Contains(trace.List()[0].Str(), "stack_test.go:") {
		t.Fatalf("trace = %v", trace)
	}
}

// TestExceptionValueFallback uses the supplied frames for plain errors.
func TestExceptionValueFallback(t *testing.T) {
	t.Parallel()

	frames := []runtime.Frame{{File: "/src/app/main.go", Line: 12}, {File: "/src/app/run.go", Line: 3}}
	got := exceptionValue(errors.New("plain"), frames).String()
	want := `{"class":"*errors.errorString","message":"plain","file":"/src/app/main.go","line":12,"trace":["/src/app/main.go:12","/src/app/run.go:3"]}`
	if got != want {
		t.Fatalf("exceptionValue() = %s, want %s", got, want)
	}

	bare := exceptionValue(errors.New("plain"), nil).Map()
	if _, ok := bare.Get("file"); ok {
		t.Fatalf("file set without frames")
	}
}

// TestCaptureStackStartsOutsideLibrary returns at least one frame.
func TestCaptureStackStartsOutsideLibrary(t *testing.T) {
	t.Parallel()

	frames := CaptureStack(func(fn string) bool {
		return strings.HasPrefix(fn, "runtime.") || strings.HasSuffix(fn, ".CaptureStack")
	})
	if len(frames) == 0 {
		t.Fatalf("CaptureStack() returned no frames")
	}
	if !strings.HasSuffix(frames[0].Function, "TestCaptureStackStartsOutsideLibrary") {
		t.Fatalf("first frame = %q, want the test function", frames[0].Function)
	}
}

// TestExceptionAttrOptions overrides class and message.
func TestExceptionAttrOptions(t *testing.T) {
	t.Parallel()

	attr := ExceptionAttr(errors.New("raw"), WithExceptionClass("DatabaseError"), WithExceptionMessage("connection refused"))
	if attr.Key != exceptionKey {
		t.Fatalf("Key = %q", attr.Key)
	}
	exc := ValueOf(attr.Value).Map()
	class, _ := exc.Get("class")
	msg, _ := exc.Get("message")
	if class.Str() != "DatabaseError" || msg.Str() != "connection refused" {
		t.Fatalf("exception = %s", MapValue(exc))
	}
	if got := ExceptionAttr(nil); !got.Equal(slog.Attr{}) {
		t.Fatalf("ExceptionAttr(nil) = %v, want empty attr", got)
	}
}

// TestReportErrorLogsAtErrorLevel records the exception attribute.
func TestReportErrorLogsAtErrorLevel(t *testing.T) {
	t.Parallel()

	rec := &recordingHandler{}
	ReportError(context.Background(), slog.New(rec), errors.New("boom"), "failed")
	ReportError(context.Background(), slog.New(rec), nil, "ignored")

	if len(rec.records) != 1 {
		t.Fatalf("recorded %d records, want 1", len(rec.records))
	}
	r := rec.records[0]
	if r.Level != slog.LevelError || r.Message != "failed" {
		t.Fatalf("record = %v %q", r.Level, r.Message)
	}
	var found bool
	r.Attrs(func(a slog.Attr) bool {
		found = found || a.Key == exceptionKey
		return true
	})
	if !found {
		t.Fatalf("record lacks exception attribute")
	}
}
