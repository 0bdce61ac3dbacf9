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
	"fmt"
	"strings"
)

const (
	mentionAllID    = "all"
	mentionDefault  = "default"
	mentionAllToken = "<users/all>"
)

// NotificationConfig maps a lower-case level name (for example "error") or
// "default" to a comma-separated list of Google Chat user ids to mention
// when a record of that level is delivered. The id "all" mentions everyone
// in the space.
type NotificationConfig map[string]string

// IDsFor returns the mention list configured for level, falling back to the
// "default" entry.
func (n NotificationConfig) IDsFor(level Level) string {
	if len(n) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(level.String(), "+")
	name = strings.ToLower(name)
	for key, ids := range n {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return ids
		}
	}
	for key, ids := range n {
		if strings.EqualFold(strings.TrimSpace(key), mentionDefault) {
			return ids
		}
	}
	return ""
}

// BuildMentions turns a comma-separated id list into Google Chat mention
// tokens. Ids are trimmed and de-duplicated; "all" (any case) becomes the
// broadcast token and is moved to the front, other ids keep their first-seen
// order.
func BuildMentions(ids string) []string {
	seen := make(map[string]struct{})
	var (
		users []string
		all   bool
	)
	for _, raw := range strings.Split(ids, ",") {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if strings.EqualFold(id, mentionAllID) {
			all = true
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		users = append(users, fmt.Sprintf("<users/%s>", id))
	}
	if all {
		return append([]string{mentionAllToken}, users...)
	}
	return users
}

// mentionPrefix returns the mention tokens for level followed by a space, or
// the empty string.
func mentionPrefix(n NotificationConfig, level Level) string {
	tokens := BuildMentions(n.IDsFor(level))
	if len(tokens) == 0 {
		return ""
	}
	return strings.Join(tokens, " ") + " "
}

// ParseMentions parses "error=all,5;default=7" into a NotificationConfig,
// the format of the SLOGCHAT_MENTIONS variable.
func ParseMentions(raw string) (NotificationConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	out := NotificationConfig{}
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		level, ids, ok := strings.Cut(entry, "=")
		level = strings.ToLower(strings.TrimSpace(level))
		if !ok || level == "" {
			return nil, fmt.Errorf("slogchat: invalid mention entry %q", entry)
		}
		out[level] = strings.TrimSpace(ids)
	}
	return out, nil
}
