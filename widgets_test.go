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
	"testing"

	"github.com/pjscruggs/slogchat/chat"
)

func TestIconFor(t *testing.T) {
	t.Parallel()

	tests := map[string]chat.KnownIcon{
		"exception": chat.IconDescription,
		"Email":     chat.IconEmail,
		"user_id":   chat.IconPerson,
		"route":     chat.IconBookmark,
		"tenant":    chat.IconStore,
		"region":    chat.IconTicket,
	}
	for field, want := range tests {
		if got := iconFor(field); got != want {
			t.Errorf("iconFor(%q) = %q, want %q", field, got, want)
		}
	}
}

func TestUpperFirst(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{"": "", "db": "Db", "élan": "Élan", "Already": "Already", "1st": "1st"} {
		if got := upperFirst(in); got != want {
			t.Errorf("upperFirst(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRelativizeException(t *testing.T) {
	t.Parallel()

	exc := NewMap()
	exc.Set("file", StringValue("/app/src/db.go"))
	exc.Set("trace", ListValue(StringValue("/app/src/db.go:10"), StringValue("/usr/lib/go/x.go:3"), IntValue(7)))
	relativizeException(exc, "/app/")

	if file, _ := exc.Get("file"); file.Str() != "src/db.go" {
		t.Fatalf("file = %q", file.Str())
	}
	trace, _ := exc.Get("trace")
	entries := trace.List()
	if entries[0].Str() != "src/db.go:10" || entries[1].Str() != "/usr/lib/go/x.go:3" || entries[2].Kind() != KindNumber {
		t.Fatalf("trace = %v", entries)
	}
}

func TestInlineWidgets(t *testing.T) {
	t.Parallel()

	got := inlineWidgets([]chat.Widget{
		chat.NewWidget(chat.IconTicket, "Region", "eu"),
		chat.NewWidget(chat.IconTicket, "Db", "```{}```"),
	})
	if want := "\n*Region:* eu\n*Db:* ```{}```"; got != want {
		t.Fatalf("inlineWidgets() = %q, want %q", got, want)
	}
}
