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
	"encoding/json"
	"unicode/utf8"
)

const (
	// maxBlockRunes bounds the body of a code block rendered in a widget.
	maxBlockRunes = 1990
	// maxTextBytes bounds the top-level message text.
	maxTextBytes = 4096

	codeFence  = "```"
	jsonIndent = "    "
)

// stringify renders v as JSON. Maps and lists holding containers use the
// indented multi-line form; flat lists and scalars use the compact form.
func stringify(v Value) string {
	compact, _ := v.MarshalJSON()
	if !prefersPretty(v) {
		return string(compact)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", jsonIndent); err != nil {
		return string(compact)
	}
	return out.String()
}

// prefersPretty reports whether v reads better indented: any map (named
// fields) or a list holding a nested container.
func prefersPretty(v Value) bool {
	switch v.Kind() {
	case KindMap:
		return true
	case KindList:
		for _, item := range v.List() {
			if item.IsContainer() {
				return true
			}
		}
	}
	return false
}

// codeBlock truncates s to maxBlockRunes characters and wraps it in a
// fixed-width block.
func codeBlock(s string) string {
	return codeFence + truncateRunes(s, maxBlockRunes) + codeFence
}

// renderValue returns the widget body for v: a code block for containers,
// the verbatim text otherwise.
func renderValue(v Value) string {
	if v.IsContainer() {
		return codeBlock(stringify(v))
	}
	if v.Kind() == KindNull {
		return "null"
	}
	return v.String()
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// truncateBytes returns the longest prefix of s that fits in n bytes without
// splitting a rune. The result is also at most n characters long.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
