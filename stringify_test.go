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
	"testing"
	"unicode/utf8"
)

// TestStringify picks the pretty form for maps and nested lists only.
func TestStringify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"scalar", IntValue(4), "4"},
		{"flat list", ListValue(IntValue(1), StringValue("a")), `[1,"a"]`},
		{"nested list", ListValue(ListValue(IntValue(1))), "[\n    [\n        1\n    ]\n]"},
		{"map", MapValue(mapOf("a", 1)), "{\n    \"a\": 1\n}"},
		{"html", StringValue("<b>&"), `"<b>&"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := stringify(tc.in); got != tc.want {
				t.Fatalf("stringify() = %q, want %q", got, tc.want)
			}
		})
	}
}

// TestRenderValue wraps only containers in code blocks.
func TestRenderValue(t *testing.T) {
	t.Parallel()

	if got := renderValue(StringValue("plain")); got != "plain" {
		t.Fatalf("renderValue(string) = %q", got)
	}
	if got := renderValue(NullValue()); got != "null" {
		t.Fatalf("renderValue(null) = %q", got)
	}
	if got := renderValue(ListValue(IntValue(1))); got != "```[1]```" {
		t.Fatalf("renderValue(list) = %q", got)
	}
}

// TestTruncation respects rune boundaries.
func TestTruncation(t *testing.T) {
	t.Parallel()

	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Fatalf("truncateRunes() = %q, want %q", got, "hé")
	}
	if got := truncateRunes("abc", 0); got != "" {
		t.Fatalf("truncateRunes(0) = %q", got)
	}

	s := strings.Repeat("a", 4095) + "é"
	got := truncateBytes(s, maxTextBytes)
	if len(got) != 4095 || !utf8.ValidString(got) {
		t.Fatalf("truncateBytes() split a rune: len %d", len(got))
	}
	if got := truncateBytes("short", maxTextBytes); got != "short" {
		t.Fatalf("truncateBytes(short) = %q", got)
	}
}

// TestExcludePaths walks maps and lists and ignores missing parents.
func TestExcludePaths(t *testing.T) {
	t.Parallel()

	data, err := valueFromJSON([]byte(`{"message":"m","context":{"a":{"b":1,"c":2},"list":[{"x":1},{"x":2}]},"extra":{}}`))
	if err != nil {
		t.Fatalf("valueFromJSON() returned %v", err)
	}
	excludePaths(data.Map(), []string{
		"context.a.b",
		"context.list.1.x",
		"context.list.0",
		"context.missing.deep",
		"extra.none",
		"",
		"message",
	})

	want := `{"context":{"a":{"c":2},"list":[null,{}]},"extra":{}}`
	if got := data.String(); got != want {
		t.Fatalf("after exclusion = %s, want %s", got, want)
	}
}
