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
	"strconv"
	"strings"
)

// excludePaths removes every dot-separated path from data. Paths whose
// intermediate segments are missing are ignored. Numeric segments index into
// lists.
func excludePaths(data *Map, paths []string) {
	for _, path := range paths {
		excludePath(data, path)
	}
}

func excludePath(data *Map, path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	segments := strings.Split(path, ".")
	current := MapValue(data)
	for _, seg := range segments[:len(segments)-1] {
		next, ok := child(current, seg)
		if !ok {
			return
		}
		current = next
	}
	removeChild(current, segments[len(segments)-1])
}

// child returns the element of container addressed by seg.
func child(container Value, seg string) (Value, bool) {
	switch container.Kind() {
	case KindMap:
		return container.Map().Get(seg)
	case KindList:
		idx, err := strconv.Atoi(seg)
		items := container.List()
		if err != nil || idx < 0 || idx >= len(items) {
			return Value{}, false
		}
		return items[idx], true
	default:
		return Value{}, false
	}
}

// removeChild deletes seg from a map container. List elements are replaced
// by null so sibling indexes stay stable.
func removeChild(container Value, seg string) {
	switch container.Kind() {
	case KindMap:
		container.Map().Delete(seg)
	case KindList:
		idx, err := strconv.Atoi(seg)
		items := container.List()
		if err != nil || idx < 0 || idx >= len(items) {
			return
		}
		items[idx] = NullValue()
	}
}
