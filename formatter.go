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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pjscruggs/slogchat/chat"
)

// Fixed count of widgets a section shows before collapsing, per variant.
const (
	minimalUncollapsible   = 5
	notifyingUncollapsible = 3
)

// Variant selects the payload layout produced by a [Formatter].
type Variant int

const (
	// VariantMinimal renders "*app : LEVEL:* message" and attaches a card
	// only when context or extra data exists.
	VariantMinimal Variant = iota
	// VariantNotifying prefixes mentions, always attaches a card with a
	// header, environment, level and time rows and appends custom rows.
	VariantNotifying
)

// String returns the lower-case variant name.
func (v Variant) String() string {
	switch v {
	case VariantMinimal:
		return "minimal"
	case VariantNotifying:
		return "notifying"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant maps "minimal" or "notifying" (case-insensitive) to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "minimal":
		return VariantMinimal, nil
	case "notifying", "notify":
		return VariantNotifying, nil
	default:
		return VariantMinimal, fmt.Errorf("slogchat: unknown variant %q", s)
	}
}

// FormatterConfig controls how records are rendered. It is copied by
// [NewFormatter] and never changes afterwards.
type FormatterConfig struct {
	// UseAttachment renders context and extra as card widgets. When false
	// they are appended to the text instead.
	UseAttachment bool
	// UseShortAttachment renders one summarized widget per category.
	UseShortAttachment bool
	// IncludeContextAndExtra renders context and extra at all.
	IncludeContextAndExtra bool
	// ExcludeFields lists dot paths such as "context.user_id" removed
	// before rendering.
	ExcludeFields []string

	AppName     string
	Environment string
	// BasePath is stripped from exception file and trace entries.
	BasePath string
	Variant  Variant

	// Mentions and CustomRows apply to the notifying variant only.
	Mentions   NotificationConfig
	CustomRows CustomRowsFunc
	// TraceProjectID turns the trace row into a Cloud Trace console link.
	TraceProjectID string
}

// DefaultFormatterConfig returns the configuration used when no option
// overrides it: attachments on, context and extra included.
func DefaultFormatterConfig() FormatterConfig {
	return FormatterConfig{
		UseAttachment:          true,
		IncludeContextAndExtra: true,
	}
}

// newCardID generates the cardId of each cardsV2 entry.
var newCardID = uuid.NewString

// Formatter turns a [Record] into a Google Chat message. It performs no
// I/O and is safe for concurrent use.
type Formatter struct {
	cfg FormatterConfig
}

// NewFormatter returns a Formatter bound to a private copy of cfg.
func NewFormatter(cfg FormatterConfig) *Formatter {
	cfg.ExcludeFields = append([]string(nil), cfg.ExcludeFields...)
	if cfg.Mentions != nil {
		mentions := make(NotificationConfig, len(cfg.Mentions))
		for k, v := range cfg.Mentions {
			mentions[strings.ToLower(k)] = v
		}
		cfg.Mentions = mentions
	}
	return &Formatter{cfg: cfg}
}

// Config returns a copy of the formatter configuration.
func (f *Formatter) Config() FormatterConfig {
	cfg := f.cfg
	cfg.ExcludeFields = append([]string(nil), f.cfg.ExcludeFields...)
	return cfg
}

// Format renders r. ctx supplies the request URL and trace rows and is
// handed to the custom rows callback of the notifying variant.
func (f *Formatter) Format(ctx context.Context, r Record) (*chat.Message, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	data := r.tree()
	excludePaths(data, f.cfg.ExcludeFields)
	rd := fromTree(data)

	var (
		widgets   []chat.Widget
		exception *chat.Widget
	)
	if f.cfg.IncludeContextAndExtra {
		widgets, exception = f.categoryWidgets(rd)
	}

	if f.cfg.Variant == VariantNotifying {
		return f.notifying(ctx, r, rd, widgets, exception)
	}
	return f.minimal(r, rd, widgets, exception), nil
}

// minimal builds "*app : LEVEL:* message" with an optional card.
func (f *Formatter) minimal(r Record, rd recordData, widgets []chat.Widget, exception *chat.Widget) *chat.Message {
	text := fmt.Sprintf("*%s : %s:* %s", f.cfg.AppName, r.Level, rd.message)
	if exception != nil {
		text += "\n" + exception.Text()
	}
	if !f.cfg.UseAttachment {
		text += inlineWidgets(widgets)
		widgets = nil
	}

	msg := &chat.Message{Text: truncateBytes(text, maxTextBytes)}
	if len(widgets) > 0 {
		msg.CardsV2 = []chat.CardWith{{
			CardID: newCardID(),
			Card: chat.Card{Sections: []chat.Section{{
				Collapsible:               true,
				UncollapsibleWidgetsCount: minimalUncollapsible,
				Widgets:                   widgets,
			}}},
		}}
	}
	return msg
}

// notifying builds the mention-prefixed message whose card always carries
// the environment, level and time rows.
func (f *Formatter) notifying(ctx context.Context, r Record, rd recordData, widgets []chat.Widget, exception *chat.Widget) (*chat.Message, error) {
	custom, err := customRowWidgets(ctx, f.cfg.CustomRows)
	if err != nil {
		return nil, err
	}

	formatted := r.Formatted
	if formatted == "" {
		formatted = formatLine(r.Time, f.cfg.AppName, r.Level, rd.message)
	}
	text := mentionPrefix(f.cfg.Mentions, r.Level) + formatted
	if exception != nil {
		text += "\n" + exception.Text()
	}
	if !f.cfg.UseAttachment {
		text += inlineWidgets(widgets)
		widgets = nil
	}

	rows := []chat.Widget{
		chat.NewWidget(chat.IconMapPin, "Environment", f.cfg.Environment),
		chat.NewWidget(chat.IconStar, "Level", r.Level.Badge()),
	}
	if !r.Time.IsZero() {
		rows = append(rows, chat.NewWidget(chat.IconClock, "Time", r.Time.Format(time.RFC3339)))
	}
	if req, ok := RequestFromContext(ctx); ok {
		rows = append(rows, chat.NewWidget(chat.IconBookmark, "Request URL", req.URL))
	}
	if w, ok := traceWidget(ctx, f.cfg.TraceProjectID); ok {
		rows = append(rows, w)
	}
	rows = append(rows, custom...)
	rows = append(rows, widgets...)

	return &chat.Message{
		Text: truncateBytes(text, maxTextBytes),
		CardsV2: []chat.CardWith{{
			CardID: newCardID(),
			Card: chat.Card{
				Header: &chat.CardHeader{
					Title:    fmt.Sprintf("%s: %s", r.Level, rd.message),
					Subtitle: f.cfg.Environment,
				},
				Sections: []chat.Section{{
					Collapsible:               true,
					UncollapsibleWidgetsCount: notifyingUncollapsible,
					Widgets:                   rows,
				}},
			},
		}},
	}, nil
}

// formatLine renders the single-line form of an event:
// "[2006-01-02T15:04:05Z07:00] app.LEVEL: message".
func formatLine(t time.Time, app string, level Level, message string) string {
	if t.IsZero() {
		return fmt.Sprintf("%s.%s: %s", app, level, message)
	}
	return fmt.Sprintf("[%s] %s.%s: %s", t.Format(time.RFC3339), app, level, message)
}
