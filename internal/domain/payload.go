package domain

import (
	"encoding/json"
	"strconv"
)

// Payload is the JSON-shaped structured output of an analysis unit: a mapping
// from string keys to arbitrary nested data. The scoring engine reads sparse
// payloads through the typed accessors below; a missing or mistyped field is a
// data-quality condition answered with the caller's default, never an error.
type Payload map[string]any

// Map returns the nested object at the given key path, or nil when any
// segment is missing or not an object.
func (p Payload) Map(path ...string) Payload {
	cur := p
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			// json.Unmarshal into Payload-typed fields yields Payload values.
			if typed, okTyped := cur[key].(Payload); okTyped {
				cur = typed
				continue
			}
			return nil
		}
		cur = next
	}
	return Payload(cur)
}

// String returns the string at key, or def when missing or not a string.
func (p Payload) String(key, def string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Float returns the numeric value at key, or def when missing or non-numeric.
// JSON numbers decode as float64, but payloads assembled in Go code may carry
// ints, and some backends quote their numbers, so all three shapes are accepted.
func (p Payload) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// Slice returns the array at key, or nil when missing or not an array.
func (p Payload) Slice(key string) []any {
	if s, ok := p[key].([]any); ok {
		return s
	}
	return nil
}

// Objects returns the array at key coerced to a slice of payloads, skipping
// entries that are not objects.
func (p Payload) Objects(key string) []Payload {
	raw := p.Slice(key)
	if raw == nil {
		return nil
	}
	out := make([]Payload, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Payload(m))
		}
	}
	return out
}

// Clone returns a shallow copy of the payload. Nil payloads clone to nil.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
