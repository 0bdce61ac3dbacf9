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
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// maxStackFrames bounds the trace entries rendered for one exception.
const maxStackFrames = 64

var stackPCPool = sync.Pool{
	New: func() any {
		buf := make([]uintptr, maxStackFrames)
		return &buf
	},
}

// stackTracer is implemented by errors that carry the program counters of
// their origin. Compatible with github.com/pkg/errors style wrappers that
// expose []uintptr.
type stackTracer interface {
	StackTrace() []uintptr
}

// originStack returns the program counters recorded by err or any error it
// wraps, or nil when none is available.
func originStack(err error) []uintptr {
	var st stackTracer
	if !errors.As(err, &st) {
		return nil
	}
	pcs := st.StackTrace()
	if len(pcs) > maxStackFrames {
		pcs = pcs[:maxStackFrames]
	}
	return pcs
}

// trimStackPCs removes leading frames that match skipFn while preserving the remainder.
func trimStackPCs(pcs []uintptr, skipFn func(string) bool) []uintptr {
	if len(pcs) == 0 {
		return pcs
	}

	frames := runtime.CallersFrames(pcs)
	skip := 0
	for {
		frame, more := frames.Next()
		if skipFn == nil || !skipFn(frame.Function) {
			break
		}
		skip++
		if !more {
			return nil
		}
	}
	return pcs[skip:]
}

// SkipInternalStackFrame reports whether a stack frame belongs to slogchat,
// log/slog or runtime internals and should be hidden from exception traces.
func SkipInternalStackFrame(funcName string) bool {
	if funcName == "" {
		return false
	}
	if strings.HasPrefix(funcName, "runtime.") {
		return true
	}
	return strings.HasPrefix(funcName, "github.com/pjscruggs/slogchat.") ||
		strings.HasPrefix(funcName, "github.com/pjscruggs/slogchat/chat.") ||
		strings.HasPrefix(funcName, "log/slog.")
}

// CaptureStack captures the calling goroutine's stack with internal frames
// trimmed by skipFn (SkipInternalStackFrame when nil).
func CaptureStack(skipFn func(string) bool) []runtime.Frame {
	bufPtr := stackPCPool.Get().(*[]uintptr)
	defer stackPCPool.Put(bufPtr)
	pcs := (*bufPtr)[:cap(*bufPtr)]

	n := runtime.Callers(1, pcs)
	if n == 0 {
		return nil
	}
	pcs = pcs[:n]

	if skipFn == nil {
		skipFn = SkipInternalStackFrame
	}
	trimmed := trimStackPCs(pcs, skipFn)
	if len(trimmed) == 0 {
		trimmed = pcs
	}
	return framesOf(trimmed)
}

// framesOf expands program counters into frames, dropping runtime exit and
// anonymous frames.
func framesOf(pcs []uintptr) []runtime.Frame {
	if len(pcs) == 0 {
		return nil
	}
	out := make([]runtime.Frame, 0, len(pcs))
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if frame.Function != "" && frame.Function != "runtime.goexit" {
			out = append(out, frame)
		}
		if !more || len(out) >= maxStackFrames {
			break
		}
	}
	return out
}

// exceptionValue describes err as an exception map with the keys class,
// message, file, line and trace. Frames come from the error itself when it
// records them, otherwise from fallback.
func exceptionValue(err error, fallback []runtime.Frame) Value {
	frames := framesOf(originStack(err))
	if len(frames) == 0 {
		frames = fallback
	}

	exc := NewMap()
	exc.Set("class", StringValue(fmt.Sprintf("%T", err)))
	exc.Set("message", StringValue(fixUTF8(err.Error())))
	if len(frames) > 0 {
		exc.Set("file", StringValue(frames[0].File))
		exc.Set("line", IntValue(int64(frames[0].Line)))
	}
	trace := make([]Value, 0, len(frames))
	for _, frame := range frames {
		trace = append(trace, StringValue(frame.File+":"+strconv.Itoa(frame.Line)))
	}
	exc.Set("trace", ListValue(trace...))
	return MapValue(exc)
}
