package engine

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// DecodeResponse extracts the text the library wrote into buf. The text ends
// at the first NUL; without one the whole buffer is taken and truncated is
// true. The engine writes Windows-1252, so bytes >= 0x80 are decoded from it.
func DecodeResponse(buf []byte) (text string, truncated bool) {
	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		n = len(buf)
		truncated = true
	}
	raw := buf[:n]
	if isASCII(raw) {
		return string(raw), truncated
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�"), truncated
	}
	return string(decoded), truncated
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// Value is one returned value, split into its comma separated items. Items
// keep their quotes; only the string accessors strip them.
type Value struct {
	Raw   string
	Items []string
}

func newValue(raw string) Value {
	return Value{Raw: raw, Items: strings.Split(raw, ",")}
}

func unquote(item string) string {
	return strings.Trim(item, `"'`)
}

// IsList reports whether the value holds more than one item.
func (v Value) IsList() bool { return len(v.Items) > 1 }

// String returns the first item, unquoted.
func (v Value) String() string {
	return unquote(v.first())
}

func (v Value) first() string {
	if len(v.Items) == 0 {
		return ""
	}
	return v.Items[0]
}

// Strings returns all items, unquoted.
func (v Value) Strings() []string {
	out := make([]string, len(v.Items))
	for i, item := range v.Items {
		out[i] = unquote(item)
	}
	return out
}

func (v Value) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(v.first()))
}

func (v Value) Ints() ([]int, error) {
	out := make([]int, len(v.Items))
	for i, item := range v.Items {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (v Value) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(v.first()), 64)
}

func (v Value) Floats() ([]float64, error) {
	out := make([]float64, len(v.Items))
	for i, item := range v.Items {
		f, err := strconv.ParseFloat(strings.TrimSpace(item), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// Bool treats any non-zero number as true. Non-numeric values use
// strconv.ParseBool.
func (v Value) Bool() (bool, error) {
	s := strings.TrimSpace(v.String())
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0, nil
	}
	return strconv.ParseBool(s)
}

// Typed converts the value the way scripting bindings of the engine do: all
// items integers gives int or []int, all items floats gives float64 or
// []float64, anything else gives string or []string. Quoted items are
// strings. NaN and infinities stay strings so results remain JSON encodable.
func (v Value) Typed() any {
	if len(v.Items) == 0 {
		return ""
	}
	if ints, err := v.Ints(); err == nil {
		if len(ints) == 1 {
			return ints[0]
		}
		return ints
	}
	if floats, err := v.Floats(); err == nil && allFinite(floats) {
		if len(floats) == 1 {
			return floats[0]
		}
		return floats
	}
	return v.untyped()
}

func (v Value) untyped() any {
	if len(v.Items) == 1 {
		return v.String()
	}
	return v.Strings()
}

func allFinite(fs []float64) bool {
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Values holds the key=value pairs of a response in the order the library
// returned them. A repeated key keeps its first position and its last value.
type Values struct {
	keys []string
	m    map[string]Value
}

// ParseValues parses "key=v1,v2;key2=v;" text. Segments without '=' are
// skipped.
func ParseValues(text string) Values {
	vals := Values{m: make(map[string]Value)}
	for _, seg := range strings.Split(text, ";") {
		if seg == "" {
			continue
		}
		key, raw, found := strings.Cut(seg, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		if _, dup := vals.m[key]; !dup {
			vals.keys = append(vals.keys, key)
		}
		vals.m[key] = newValue(raw)
	}
	return vals
}

func (vs Values) Get(key string) (Value, bool) {
	v, ok := vs.m[key]
	return v, ok
}

// Keys returns the keys in response order.
func (vs Values) Keys() []string {
	out := make([]string, len(vs.keys))
	copy(out, vs.keys)
	return out
}

func (vs Values) Len() int { return len(vs.keys) }

// stringOnlyKeys hold channel names, which may look numeric.
var stringOnlyKeys = map[string]bool{
	"getchannels":       true,
	"getactivechannels": true,
}

// stringOnlyCommands return names (drivers, channels) in every value.
var stringOnlyCommands = map[string]bool{
	"getchannels":       true,
	"getactivechannels": true,
	"getdrivers":        true,
}

// TypedMap converts every value with Typed, except values that are always
// names for the given command.
func (vs Values) TypedMap(command string) map[string]any {
	out := make(map[string]any, len(vs.keys))
	forceString := stringOnlyCommands[command]
	for _, key := range vs.keys {
		v := vs.m[key]
		if forceString || stringOnlyKeys[key] {
			out[key] = v.untyped()
		} else {
			out[key] = v.Typed()
		}
	}
	return out
}
