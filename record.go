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
	"time"
)

// Data tree keys addressed by exclusion paths.
const (
	fieldMessage = "message"
	fieldContext = "context"
	fieldExtra   = "extra"

	exceptionKey = "exception"
)

// Record is one log event as seen by the Formatter. Context holds the
// attributes supplied with the log call, Extra holds attributes bound to the
// logger ahead of time. An error attached to the event is carried as a map
// under the "exception" key of either category with the keys class,
// message, file, line and trace.
//
// Formatters never modify a Record; they work on a private copy.
type Record struct {
	Level     Level
	Message   string
	Time      time.Time
	Context   *Map
	Extra     *Map
	Formatted string
}

// tree returns a deep copy of the record's data addressed by exclusion
// paths: {"message": ..., "context": {...}, "extra": {...}}.
func (r Record) tree() *Map {
	data := NewMap()
	data.Set(fieldMessage, StringValue(r.Message))
	data.Set(fieldContext, MapValue(r.Context.Clone()))
	data.Set(fieldExtra, MapValue(r.Extra.Clone()))
	return data
}

// recordData is the pruned view of a Record used while rendering.
type recordData struct {
	message string
	context *Map
	extra   *Map
}

// fromTree reads back a tree produced by Record.tree after exclusions.
func fromTree(data *Map) recordData {
	var out recordData
	if v, ok := data.Get(fieldMessage); ok {
		out.message = v.String()
		if v.Kind() == KindNull {
			out.message = ""
		}
	}
	if v, ok := data.Get(fieldContext); ok {
		out.context = v.Map()
	}
	if v, ok := data.Get(fieldExtra); ok {
		out.extra = v.Map()
	}
	if out.context == nil {
		out.context = NewMap()
	}
	if out.extra == nil {
		out.extra = NewMap()
	}
	return out
}
