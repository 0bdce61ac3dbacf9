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
	"log/slog"
	"testing"
)

// TestLevel_String verifies names for defined levels and intermediate values.
func TestLevel_String(t *testing.T) {
	testCases := []struct {
		level Level
		want  string
		name  string
	}{
		{LevelDebug, "DEBUG", "LevelDebug"},
		{LevelInfo, "INFO", "LevelInfo"},
		{LevelNotice, "NOTICE", "LevelNotice"},
		{LevelWarning, "WARNING", "LevelWarning"},
		{LevelError, "ERROR", "LevelError"},
		{LevelCritical, "CRITICAL", "LevelCritical"},
		{LevelAlert, "ALERT", "LevelAlert"},
		{LevelEmergency, "EMERGENCY", "LevelEmergency"},

		{LevelDebug + 1, "DEBUG+1", "DebugPlus1"},
		{LevelInfo + 1, "INFO+1", "InfoPlus1"},
		{LevelWarning - 1, "NOTICE+1", "BelowWarning"},
		{LevelError + 3, "ERROR+3", "ErrorPlus3"},
		{LevelEmergency + 100, "EMERGENCY+100", "FarAboveEmergency"},

		{LevelDebug - 1, slog.Level(LevelDebug - 1).String(), "BelowDebugDelegation"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.level.String(); got != tc.want {
				t.Errorf("Level(%d).String() = %q, want %q", tc.level, got, tc.want)
			}
			if got := tc.level.Level(); got != slog.Level(tc.level) {
				t.Errorf("Level(%d).Level() = %v, want %v", tc.level, got, slog.Level(tc.level))
			}
		})
	}

	t.Run("ConstantValueChecks", func(t *testing.T) {
		if LevelDebug.Level() != slog.LevelDebug {
			t.Errorf("LevelDebug (%v) does not match slog.LevelDebug", LevelDebug.Level())
		}
		if LevelWarning.Level() != slog.LevelWarn {
			t.Errorf("LevelWarning (%v) does not match slog.LevelWarn", LevelWarning.Level())
		}
		if LevelError.Level() != slog.LevelError {
			t.Errorf("LevelError (%v) does not match slog.LevelError", LevelError.Level())
		}
	})
}

// TestLevel_Color checks the documented color for every severity and the red
// fallback for out-of-range values.
func TestLevel_Color(t *testing.T) {
	testCases := []struct {
		level Level
		want  string
	}{
		{LevelEmergency, "#ff1100"},
		{LevelAlert, "#ff1100"},
		{LevelCritical, "#ff1100"},
		{LevelError, "#ff1100"},
		{LevelWarning, "#ffc400"},
		{LevelNotice, "#00aeff"},
		{LevelInfo, "#48d62f"},
		{LevelDebug, "#000000"},
		{Level(99), "#ff1100"},
		{Level(-42), "#ff1100"},
		{LevelInfo + 1, "#ff1100"},
	}
	for _, tc := range testCases {
		if got := tc.level.Color(); got != tc.want {
			t.Errorf("Level(%d).Color() = %q, want %q", tc.level, got, tc.want)
		}
	}
}

// TestLevel_Badge verifies the color markup wrapping the level name.
func TestLevel_Badge(t *testing.T) {
	want := `<font color="#ffc400">WARNING</font>`
	if got := LevelWarning.Badge(); got != want {
		t.Fatalf("Badge() = %q, want %q", got, want)
	}
}

// TestParseLevel covers names, aliases, integers and invalid input.
func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" NOTICE ", LevelNotice, false},
		{"warn", LevelWarning, false},
		{"Warning", LevelWarning, false},
		{"critical", LevelCritical, false},
		{"emergency", LevelEmergency, false},
		{"6", Level(6), false},
		{"loud", LevelInfo, true},
	}
	for _, tc := range testCases {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
