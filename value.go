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
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"
	"unicode/utf8"
)

const maxValueDepth = 32

// Kind is the variant tag of a Value.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a JSON-shaped datum: null, bool, number, string, list or ordered
// map. Records carry their context and extra data as Values so the formatter
// can walk, prune and render them without reflection.
type Value struct {
	kind Kind
	b    bool
	s    string // string payload or canonical number text
	list []Value
	m    *Map
}

// NullValue returns the null Value.
func NullValue() Value { return Value{} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue returns a numeric Value holding n.
func IntValue(n int64) Value { return Value{kind: KindNumber, s: strconv.FormatInt(n, 10)} }

// UintValue returns a numeric Value holding n.
func UintValue(n uint64) Value { return Value{kind: KindNumber, s: strconv.FormatUint(n, 10)} }

// FloatValue returns a numeric Value holding f. NaN and infinities are not
// representable in JSON and become strings.
func FloatValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return StringValue(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// NumberValue returns a numeric Value from its JSON text.
func NumberValue(n json.Number) Value { return Value{kind: KindNumber, s: n.String()} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ListValue returns a list Value holding items.
func ListValue(items ...Value) Value {
	return Value{kind: KindList, list: items}
}

// MapValue returns a map Value. A nil map is treated as empty.
func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.kind == KindBool && v.b }

// Number returns the numeric payload as JSON text; empty for other kinds.
func (v Value) Number() json.Number {
	if v.kind != KindNumber {
		return ""
	}
	return json.Number(v.s)
}

// Str returns the string payload; empty for other kinds.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// List returns the list payload; nil for other kinds.
func (v Value) List() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// Map returns the map payload; nil for other kinds.
func (v Value) Map() *Map {
	if v.kind != KindMap {
		return nil
	}
	return v.m
}

// IsContainer reports whether v is a list or a map.
func (v Value) IsContainer() bool {
	return v.kind == KindList || v.kind == KindMap
}

// IsEmpty reports whether v is null or an empty container.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindList:
		return len(v.list) == 0
	case KindMap:
		return v.m.Len() == 0
	default:
		return false
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.list))
		for i := range v.list {
			items[i] = v.list[i].Clone()
		}
		return Value{kind: KindList, list: items}
	case KindMap:
		return Value{kind: KindMap, m: v.m.Clone()}
	default:
		return v
	}
}

// String renders scalars verbatim and containers as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber, KindString:
		return v.s
	default:
		var buf bytes.Buffer
		v.appendJSON(&buf)
		return buf.String()
	}
}

// MarshalJSON encodes v as compact JSON without HTML escaping, preserving map
// key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	v.appendJSON(&buf)
	return buf.Bytes(), nil
}

// appendJSON writes the compact JSON form of v to buf.
func (v Value) appendJSON(buf *bytes.Buffer) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(v.s)
	case KindString:
		appendJSONString(buf, v.s)
	case KindList:
		buf.WriteByte('[')
		for i := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			v.list[i].appendJSON(buf)
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, key := range v.m.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			appendJSONString(buf, key)
			buf.WriteByte(':')
			val, _ := v.m.Get(key)
			val.appendJSON(buf)
		}
		buf.WriteByte('}')
	}
}

// appendJSONString writes s as a JSON string literal without escaping HTML
// characters, so chat markup survives rendering.
func appendJSONString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fixUTF8(s)); err != nil {
		buf.WriteString(`""`)
		return
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
}

// Map is an insertion-ordered string-keyed map of Values. The zero value is
// not usable; construct with NewMap. Read methods accept a nil receiver.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Set stores v under key. Overwriting keeps the key's original position.
func (m *Map) Set(key string, v Value) {
	if _, exists := m.vals[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Delete removes key, reporting whether it was present.
func (m *Map) Delete(key string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.vals[key]; !ok {
		return false
	}
	delete(m.vals, key)
	if idx := slices.Index(m.keys, key); idx >= 0 {
		m.keys = slices.Delete(m.keys, idx, idx+1)
	}
	return true
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Range calls fn for every entry in order until fn returns false.
func (m *Map) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, key := range m.keys {
		if !fn(key, m.vals[key]) {
			return
		}
	}
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	out := NewMap()
	m.Range(func(key string, v Value) bool {
		out.Set(key, v.Clone())
		return true
	})
	return out
}

// MarshalJSON encodes m as a JSON object preserving key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	return MapValue(m).MarshalJSON()
}

// ValueOf converts an slog.Value, resolving LogValuers and converting groups
// into maps.
func ValueOf(v slog.Value) Value {
	return slogValueToValue(v, 0)
}

// AnyValue converts an arbitrary Go value. Structs are normalized through
// their JSON encoding; values that cannot be encoded fall back to their
// %+v formatting.
func AnyValue(x any) Value {
	return anyToValue(x, 0)
}

func slogValueToValue(v slog.Value, depth int) Value {
	if depth > maxValueDepth {
		return StringValue("<" + v.Kind().String() + ">")
	}
	rv := v.Resolve()
	switch rv.Kind() {
	case slog.KindBool:
		return BoolValue(rv.Bool())
	case slog.KindDuration:
		return StringValue(rv.Duration().String())
	case slog.KindFloat64:
		return FloatValue(rv.Float64())
	case slog.KindInt64:
		return IntValue(rv.Int64())
	case slog.KindString:
		return StringValue(rv.String())
	case slog.KindTime:
		return StringValue(rv.Time().UTC().Format(time.RFC3339Nano))
	case slog.KindUint64:
		return UintValue(rv.Uint64())
	case slog.KindGroup:
		m := NewMap()
		addAttrsToMap(m, rv.Group(), depth+1)
		return MapValue(m)
	case slog.KindAny:
		return anyToValue(rv.Any(), depth+1)
	default:
		return NullValue()
	}
}

// addAttrsToMap stores attrs in m following slog conventions: empty keys are
// dropped and empty-key groups are inlined.
func addAttrsToMap(m *Map, attrs []slog.Attr, depth int) {
	for _, attr := range attrs {
		attr.Value = attr.Value.Resolve()
		if attr.Value.Kind() == slog.KindGroup {
			children := attr.Value.Group()
			if len(children) == 0 {
				continue
			}
			if attr.Key == "" {
				addAttrsToMap(m, children, depth)
				continue
			}
		}
		if attr.Key == "" {
			continue
		}
		m.Set(attr.Key, slogValueToValue(attr.Value, depth))
	}
}

func anyToValue(x any, depth int) Value {
	if depth > maxValueDepth {
		return StringValue(fmt.Sprintf("<%T>", x))
	}

	switch v := x.(type) {
	case nil:
		return NullValue()
	case Value:
		return v
	case *Map:
		if v == nil {
			return NullValue()
		}
		return MapValue(v)
	case slog.Value:
		return slogValueToValue(v, depth+1)
	case slog.LogValuer:
		return slogValueToValue(v.LogValue(), depth+1)
	case bool:
		return BoolValue(v)
	case string:
		return StringValue(v)
	case []byte:
		if utf8.Valid(v) {
			return StringValue(string(v))
		}
		return StringValue(base64.StdEncoding.EncodeToString(v))
	case error:
		return StringValue(v.Error())
	case json.Number:
		return NumberValue(v)
	case json.RawMessage:
		if parsed, err := valueFromJSON(v); err == nil {
			return parsed
		}
		return StringValue(string(v))
	case float32:
		return FloatValue(float64(v))
	case float64:
		return FloatValue(v)
	case int:
		return IntValue(int64(v))
	case int8:
		return IntValue(int64(v))
	case int16:
		return IntValue(int64(v))
	case int32:
		return IntValue(int64(v))
	case int64:
		return IntValue(v)
	case uint:
		return UintValue(uint64(v))
	case uint8:
		return UintValue(uint64(v))
	case uint16:
		return UintValue(uint64(v))
	case uint32:
		return UintValue(uint64(v))
	case uint64:
		return UintValue(v)
	case time.Duration:
		return StringValue(v.String())
	case time.Time:
		return StringValue(v.UTC().Format(time.RFC3339Nano))
	case json.Marshaler:
		return marshaledToValue(v)
	case fmt.Stringer:
		return StringValue(v.String())
	case map[string]any:
		return goMapToValue(v, depth)
	case map[string]string:
		m := NewMap()
		for _, key := range sortedKeys(v) {
			m.Set(key, StringValue(v[key]))
		}
		return MapValue(m)
	case []any:
		items := make([]Value, 0, len(v))
		for _, item := range v {
			items = append(items, anyToValue(item, depth+1))
		}
		return ListValue(items...)
	case []string:
		items := make([]Value, 0, len(v))
		for _, item := range v {
			items = append(items, StringValue(item))
		}
		return ListValue(items...)
	}

	rv := reflect.ValueOf(x)
	if !rv.IsValid() {
		return NullValue()
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NullValue()
		}
		return anyToValue(rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return NullValue()
		}
		items := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, anyToValue(rv.Index(i).Interface(), depth+1))
		}
		return ListValue(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return marshaledToValue(x)
		}
		generic := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			generic[iter.Key().String()] = iter.Value().Interface()
		}
		return goMapToValue(generic, depth)
	case reflect.Struct:
		return marshaledToValue(x)
	case reflect.Bool:
		return BoolValue(rv.Bool())
	case reflect.String:
		return StringValue(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntValue(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return UintValue(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return FloatValue(rv.Float())
	}

	return StringValue(fmt.Sprintf("%+v", x))
}

func goMapToValue(src map[string]any, depth int) Value {
	m := NewMap()
	for _, key := range sortedKeys(src) {
		m.Set(key, anyToValue(src[key], depth+1))
	}
	return MapValue(m)
}

// marshaledToValue normalizes x through encoding/json, falling back to %+v.
func marshaledToValue(x any) Value {
	data, err := json.Marshal(x)
	if err != nil {
		return StringValue(fmt.Sprintf("%+v", x))
	}
	v, err := valueFromJSON(data)
	if err != nil {
		return StringValue(fmt.Sprintf("%+v", x))
	}
	return v
}

// valueFromJSON decodes one JSON document into a Value, keeping object key
// order.
func valueFromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec, 0)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("slogchat: trailing data after JSON value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder, depth int) (Value, error) {
	if depth > maxValueDepth {
		return Value{}, errors.New("slogchat: JSON nesting too deep")
	}
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeJSONValue(dec, depth+1)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ListValue(items...), nil
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("slogchat: unexpected object key %v", keyTok)
				}
				val, err := decodeJSONValue(dec, depth+1)
				if err != nil {
					return Value{}, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return MapValue(m), nil
		}
	}
	return Value{}, fmt.Errorf("slogchat: unexpected JSON token %v", tok)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// fixUTF8 replaces invalid UTF-8 sequences with the replacement rune.
func fixUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	buf := make([]rune, 0, len(s))
	for _, r := range s {
		buf = append(buf, r)
	}
	return string(buf)
}
