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
	"slices"
	"strconv"
	"strings"

	"github.com/pjscruggs/slogchat/chat"
)

// ErrCustomRows wraps failures of a CustomRowsFunc.
var ErrCustomRows = errors.New("slogchat: custom rows")

// CustomRowsFunc supplies extra label/value rows appended to every notifying
// card. It receives the context of the log call so it can read request
// scoped data. Returning an error aborts delivery of the record.
type CustomRowsFunc func(ctx context.Context) (map[string]any, error)

// customRowWidgets invokes fn and renders its rows. Numeric keys show the
// bare value; named keys render as "**Label:** value".
func customRowWidgets(ctx context.Context, fn CustomRowsFunc) ([]chat.Widget, error) {
	if fn == nil {
		return nil, nil
	}
	rows, err := fn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCustomRows, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	widgets := make([]chat.Widget, 0, len(rows))
	for _, key := range customRowOrder(rows) {
		text, err := customRowText(rows[key])
		if err != nil {
			return nil, fmt.Errorf("%w: encode value of %q: %w", ErrCustomRows, key, err)
		}
		if !isIndexKey(key) {
			text = "**" + humanizeKey(key) + ":** " + text
		}
		widgets = append(widgets, chat.NewWidget(iconFor(key), "", text))
	}
	return widgets, nil
}

// customRowText returns strings verbatim and JSON-encodes everything else.
func customRowText(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// customRowOrder sorts index-like keys numerically first, then named keys.
func customRowOrder(rows map[string]any) []string {
	keys := sortedKeys(rows)
	slices.SortStableFunc(keys, func(a, b string) int {
		ai, aIdx := indexKey(a)
		bi, bIdx := indexKey(b)
		switch {
		case aIdx && bIdx:
			return ai - bi
		case aIdx:
			return -1
		case bIdx:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	return keys
}

func indexKey(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	return n, err == nil && n >= 0
}

func isIndexKey(key string) bool {
	_, ok := indexKey(key)
	return ok
}

// humanizeKey turns "request_id" into "Request Id".
func humanizeKey(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = upperFirst(w)
	}
	return strings.Join(words, " ")
}
