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
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pjscruggs/slogchat/chat"
)

var fieldIcons = map[string]chat.KnownIcon{
	"exception":   chat.IconDescription,
	"context":     chat.IconDescription,
	"extra":       chat.IconDescription,
	"user":        chat.IconPerson,
	"user_id":     chat.IconPerson,
	"username":    chat.IconPerson,
	"email":       chat.IconEmail,
	"url":         chat.IconBookmark,
	"uri":         chat.IconBookmark,
	"route":       chat.IconBookmark,
	"request":     chat.IconBookmark,
	"request_url": chat.IconBookmark,
	"time":        chat.IconClock,
	"timestamp":   chat.IconClock,
	"datetime":    chat.IconClock,
	"date":        chat.IconClock,
	"env":         chat.IconMapPin,
	"environment": chat.IconMapPin,
	"level":       chat.IconStar,
	"store":       chat.IconStore,
	"tenant":      chat.IconStore,
}

// iconFor returns the icon shown next to a field, TICKET when unknown.
func iconFor(field string) chat.KnownIcon {
	if icon, ok := fieldIcons[strings.ToLower(field)]; ok {
		return icon
	}
	return chat.IconTicket
}

// upperFirst upper-cases the first letter of s.
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// fieldWidget renders one title/value pair.
func fieldWidget(title string, v Value) chat.Widget {
	return chat.NewWidget(iconFor(title), upperFirst(title), renderValue(v))
}

// relativizeException strips basePath from the file attribute and every
// trace entry of an exception map, in place.
func relativizeException(exc *Map, basePath string) {
	if exc == nil || basePath == "" {
		return
	}
	if file, ok := exc.Get("file"); ok && file.Kind() == KindString {
		exc.Set("file", StringValue(strings.TrimPrefix(file.Str(), basePath)))
	}
	trace, ok := exc.Get("trace")
	if !ok || trace.Kind() != KindList {
		return
	}
	entries := trace.List()
	stripped := make([]Value, len(entries))
	for i, entry := range entries {
		if entry.Kind() == KindString {
			stripped[i] = StringValue(strings.TrimPrefix(entry.Str(), basePath))
			continue
		}
		stripped[i] = entry
	}
	exc.Set("trace", ListValue(stripped...))
}

// categoryWidgets renders extra then context. In short mode every non-empty
// category becomes one widget. Otherwise each key becomes a widget, except
// the first structured "exception" entry which is returned separately.
func (f *Formatter) categoryWidgets(data recordData) (widgets []chat.Widget, exception *chat.Widget) {
	categories := []struct {
		name   string
		values *Map
	}{
		{fieldExtra, data.extra},
		{fieldContext, data.context},
	}

	for _, cat := range categories {
		if cat.values.Len() == 0 {
			continue
		}
		if exc, ok := cat.values.Get(exceptionKey); ok && exc.Kind() == KindMap {
			relativizeException(exc.Map(), f.cfg.BasePath)
		}
		if f.cfg.UseShortAttachment {
			widgets = append(widgets, fieldWidget(cat.name, MapValue(cat.values)))
			continue
		}
		cat.values.Range(func(key string, v Value) bool {
			if key == exceptionKey && v.IsContainer() && exception == nil {
				w := fieldWidget(key, v)
				exception = &w
				return true
			}
			widgets = append(widgets, fieldWidget(key, v))
			return true
		})
	}
	return widgets, exception
}

// inlineWidgets renders widgets as text lines for non-attachment mode.
func inlineWidgets(widgets []chat.Widget) string {
	var sb strings.Builder
	for _, w := range widgets {
		sb.WriteString("\n*")
		sb.WriteString(w.Label())
		sb.WriteString(":* ")
		sb.WriteString(w.Text())
	}
	return sb.String()
}
