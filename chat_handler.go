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
	"log/slog"
	"runtime"
	"sync"
)

type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

// extractErrorFromValue unwraps an error from a slog.Value when possible.
func extractErrorFromValue(v slog.Value) error {
	v = v.Resolve()
	if v.Kind() != slog.KindAny {
		return nil
	}
	if err, ok := v.Any().(error); ok && err != nil {
		return err
	}
	return nil
}

// chatHandler is the core slog.Handler: it converts records, formats them
// and posts the result, then bubbles to the next handler.
type chatHandler struct {
	cfg            *handlerConfig
	leveler        slog.Leveler
	formatter      *Formatter
	dispatcher     *Dispatcher
	next           slog.Handler
	internalLogger *slog.Logger

	groupedAttrs []groupedAttr
	groups       []string
}

// newChatHandler constructs the core handler with the configured initial
// attributes and groups.
func newChatHandler(cfg *handlerConfig, leveler slog.Leveler, formatter *Formatter, dispatcher *Dispatcher, internalLogger *slog.Logger) *chatHandler {
	if leveler == nil {
		leveler = slog.LevelInfo
	}
	h := &chatHandler{
		cfg:            cfg,
		leveler:        leveler,
		formatter:      formatter,
		dispatcher:     dispatcher,
		next:           cfg.Next,
		internalLogger: internalLogger,
		groupedAttrs:   append([]groupedAttr(nil), cfg.InitialAttrs...),
		groups:         append([]string(nil), cfg.InitialGroups...),
	}
	if h.next != nil && len(cfg.InitialAttrs) > 0 {
		h.next = withGroupedAttrs(h.next, cfg.InitialAttrs)
	}
	if h.next != nil {
		for _, g := range cfg.InitialGroups {
			h.next = h.next.WithGroup(g)
		}
	}
	return h
}

// withGroupedAttrs replays grouped attributes onto next.
func withGroupedAttrs(next slog.Handler, attrs []groupedAttr) slog.Handler {
	for _, ga := range attrs {
		attr := ga.attr
		for i := len(ga.groups) - 1; i >= 0; i-- {
			attr = slog.Attr{Key: ga.groups[i], Value: slog.GroupValue(attr)}
		}
		next = next.WithAttrs([]slog.Attr{attr})
	}
	return next
}

func (h *chatHandler) delivers(level slog.Level) bool {
	return level >= h.leveler.Level()
}

func (h *chatHandler) bubbles() bool {
	return h.next != nil && h.cfg.Bubble
}

// Enabled reports whether the record is delivered to the chat space or
// would be forwarded to the next handler.
func (h *chatHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.delivers(level) {
		return true
	}
	return h.bubbles() && h.next.Enabled(ctx, level)
}

// Handle delivers r to the chat space when its level passes the threshold
// and then bubbles it. Errors from both paths are joined.
func (h *chatHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	if h.delivers(r.Level) {
		if err := h.deliver(ctx, r); err != nil {
			h.internalLogger.LogAttrs(ctx, slog.LevelError, "chat delivery failed",
				slog.String("level", Level(r.Level).String()),
				slog.Any("error", err),
			)
			errs = append(errs, err)
		}
	}
	if h.bubbles() && h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// deliver formats and posts one record.
func (h *chatHandler) deliver(ctx context.Context, r slog.Record) error {
	msg, err := h.formatter.Format(ctx, h.record(r))
	if err != nil {
		return err
	}
	return h.dispatcher.Send(ctx, msg)
}

// record converts r into a Record: bound attributes become extra, call
// attributes become context.
func (h *chatHandler) record(r slog.Record) Record {
	frames := sync.OnceValue(func() []runtime.Frame { return CaptureStack(nil) })

	extra := newAttrSink(frames)
	for _, ga := range h.groupedAttrs {
		extra.add(ga.groups, ga.attr)
	}
	ctxData := newAttrSink(frames)
	r.Attrs(func(a slog.Attr) bool {
		ctxData.add(h.groups, a)
		return true
	})

	level := Level(r.Level)
	app := h.formatter.cfg.AppName
	return Record{
		Level:     level,
		Message:   r.Message,
		Time:      r.Time,
		Context:   ctxData.root,
		Extra:     extra.root,
		Formatted: formatLine(r.Time, app, level, r.Message),
	}
}

// WithAttrs returns a handler that renders attrs as extra on every record.
func (h *chatHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	groups := append([]string(nil), h.groups...)
	for _, attr := range attrs {
		clone.groupedAttrs = append(clone.groupedAttrs, groupedAttr{groups: groups, attr: attr})
	}
	if clone.next != nil {
		clone.next = clone.next.WithAttrs(attrs)
	}
	return clone
}

// WithGroup nests subsequent attributes under name.
func (h *chatHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	if clone.next != nil {
		clone.next = clone.next.WithGroup(name)
	}
	return clone
}

func (h *chatHandler) clone() *chatHandler {
	c := *h
	c.groupedAttrs = append([]groupedAttr(nil), h.groupedAttrs...)
	c.groups = append([]string(nil), h.groups...)
	return &c
}

// attrSink accumulates attributes into a nested Map. The first error
// valued attribute becomes the "exception" entry.
type attrSink struct {
	root   *Map
	frames func() []runtime.Frame
}

func newAttrSink(frames func() []runtime.Frame) *attrSink {
	return &attrSink{root: NewMap(), frames: frames}
}

func (s *attrSink) add(groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if err := extractErrorFromValue(a.Value); err != nil && !s.hasException() {
		s.root.Set(exceptionKey, exceptionValue(err, s.frames()))
		return
	}

	v := ValueOf(a.Value)
	if a.Value.Kind() == slog.KindGroup && v.Map().Len() == 0 {
		return
	}
	if a.Key == "" && a.Value.Kind() != slog.KindGroup {
		return
	}

	target := s.target(groups)
	if a.Key == "" {
		v.Map().Range(func(key string, child Value) bool {
			target.Set(key, child)
			return true
		})
		return
	}
	target.Set(a.Key, v)
}

func (s *attrSink) hasException() bool {
	v, ok := s.root.Get(exceptionKey)
	return ok && v.Kind() == KindMap
}

// target returns the map addressed by groups, creating it as needed.
func (s *attrSink) target(groups []string) *Map {
	m := s.root
	for _, g := range groups {
		if v, ok := m.Get(g); ok && v.Kind() == KindMap {
			m = v.Map()
			continue
		}
		child := NewMap()
		m.Set(g, MapValue(child))
		m = child
	}
	return m
}
