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
	"log/slog"
	"strconv"
	"strings"
)

// Level represents the severity of a log event, extending slog.Level with
// the NOTICE, CRITICAL, ALERT and EMERGENCY severities. It keeps the
// underlying integer representation compatible with slog.Level.
type Level slog.Level

// Severity levels ordered Debug < Info < Notice < Warning < Error < Critical
// < Alert < Emergency. Debug, Info, Warning and Error coincide with the
// standard slog levels.
const (
	LevelDebug     Level = Level(slog.LevelDebug) // -4
	LevelInfo      Level = Level(slog.LevelInfo)  // 0
	LevelNotice    Level = 2
	LevelWarning   Level = Level(slog.LevelWarn) // 4
	LevelError     Level = Level(slog.LevelError) // 8
	LevelCritical  Level = 12
	LevelAlert     Level = 16
	LevelEmergency Level = 20
)

// Hex colors used for the level badge of notifying cards.
const (
	colorRed   = "#ff1100"
	colorAmber = "#ffc400"
	colorBlue  = "#00aeff"
	colorGreen = "#48d62f"
	colorBlack = "#000000"
)

var levelLadder = []struct {
	level Level
	name  string
}{
	{LevelDebug, "DEBUG"},
	{LevelInfo, "INFO"},
	{LevelNotice, "NOTICE"},
	{LevelWarning, "WARNING"},
	{LevelError, "ERROR"},
	{LevelCritical, "CRITICAL"},
	{LevelAlert, "ALERT"},
	{LevelEmergency, "EMERGENCY"},
}

// String returns the upper-case severity name. Values between two defined
// levels render as the nearest lower level plus the offset (for example
// "INFO+1"); values below Debug fall back to slog's formatting.
func (l Level) String() string {
	if l < LevelDebug {
		return slog.Level(l).String()
	}
	base := levelLadder[0]
	for _, step := range levelLadder {
		if step.level > l {
			break
		}
		base = step
	}
	if base.level == l {
		return base.name
	}
	return fmt.Sprintf("%s+%d", base.name, int(l-base.level))
}

// Level returns the underlying slog.Level so Level satisfies slog.Leveler.
func (l Level) Level() slog.Level {
	return slog.Level(l)
}

// Color returns the hex color used to highlight the level in cards. Levels
// that are not exactly one of the defined constants render red.
func (l Level) Color() string {
	switch l {
	case LevelDebug:
		return colorBlack
	case LevelInfo:
		return colorGreen
	case LevelNotice:
		return colorBlue
	case LevelWarning:
		return colorAmber
	case LevelError, LevelCritical, LevelAlert, LevelEmergency:
		return colorRed
	default:
		return colorRed
	}
}

// Badge wraps the level name in Google Chat color markup.
func (l Level) Badge() string {
	return fmt.Sprintf(`<font color="%s">%s</font>`, l.Color(), l.String())
}

// ParseLevel parses a severity name (case-insensitive, "warn" accepted as an
// alias of "warning") or a raw integer.
func ParseLevel(s string) (Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	switch trimmed {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "notice":
		return LevelNotice, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	case "alert":
		return LevelAlert, nil
	case "emergency":
		return LevelEmergency, nil
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return Level(n), nil
	}
	return LevelInfo, fmt.Errorf("slogchat: unknown level %q", s)
}
