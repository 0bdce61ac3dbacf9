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


package chat

// KnownIcon names one of the built-in Google Chat icons.
type KnownIcon string

// Icons used by slogchat widgets.
const (
	IconBookmark    KnownIcon = "BOOKMARK"
	IconClock       KnownIcon = "CLOCK"
	IconDescription KnownIcon = "DESCRIPTION"
	IconEmail       KnownIcon = "EMAIL"
	IconMapPin      KnownIcon = "MAP_PIN"
	IconMembership  KnownIcon = "MEMBERSHIP"
	IconPerson      KnownIcon = "PERSON"
	IconStar        KnownIcon = "STAR"
	IconStore       KnownIcon = "STORE"
	IconTicket      KnownIcon = "TICKET"
)

// Message is the JSON body posted to a Google Chat incoming webhook.
type Message struct {
	Text    string     `json:"text"`
	CardsV2 []CardWith `json:"cardsV2,omitempty"`
}

// CardWith pairs a card with the identifier Google Chat requires for it.
type CardWith struct {
	CardID string `json:"cardId"`
	Card   Card   `json:"card"`
}

// Card is a single card attached to a message.
type Card struct {
	Header   *CardHeader `json:"header,omitempty"`
	Sections []Section   `json:"sections"`
}

// CardHeader is rendered at the top of a card.
type CardHeader struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Section groups widgets. When Collapsible is set only the first
// UncollapsibleWidgetsCount widgets are visible until the reader expands it.
type Section struct {
	Header                    string   `json:"header,omitempty"`
	Collapsible               bool     `json:"collapsible"`
	UncollapsibleWidgetsCount int      `json:"uncollapsibleWidgetsCount"`
	Widgets                   []Widget `json:"widgets"`
}

// Widget is one entry of a section. slogchat only emits decoratedText widgets.
type Widget struct {
	DecoratedText DecoratedText `json:"decoratedText"`
}

// DecoratedText is a labelled, icon-decorated block of text.
type DecoratedText struct {
	StartIcon Icon   `json:"startIcon"`
	TopLabel  string `json:"topLabel,omitempty"`
	Text      string `json:"text"`
}

// Icon references a built-in icon.
type Icon struct {
	KnownIcon KnownIcon `json:"knownIcon"`
}

// NewWidget builds a decoratedText widget.
func NewWidget(icon KnownIcon, label, text string) Widget {
	if icon == "" {
		icon = IconTicket
	}
	return Widget{DecoratedText: DecoratedText{
		StartIcon: Icon{KnownIcon: icon},
		TopLabel:  label,
		Text:      text,
	}}
}

// Text returns the widget body.
func (w Widget) Text() string { return w.DecoratedText.Text }

// Label returns the widget top label.
func (w Widget) Label() string { return w.DecoratedText.TopLabel }

// HasCard reports whether m carries at least one card.
func (m *Message) HasCard() bool {
	return m != nil && len(m.CardsV2) > 0
}

// Widgets returns the widgets of the first section of the first card, or nil.
func (m *Message) Widgets() []Widget {
	if !m.HasCard() || len(m.CardsV2[0].Card.Sections) == 0 {
		return nil
	}
	return m.CardsV2[0].Card.Sections[0].Widgets
}
