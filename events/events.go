// Package events defines the structured events systems publish each tick
// and the tagged variant value event payloads are built from.
package events

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Kind tags the active arm of a Variant. The numeric values are the binary
// serialization tag bytes.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindMap
	KindVec
)

// Variant is the event payload value: null, i32, f64, string, a string-keyed
// map of variants, or an ordered sequence of variants.
type Variant struct {
	Kind  Kind
	Int   int32
	Float float64
	Str   string
	Map   map[string]Variant
	Vec   []Variant
}

// Null returns the null variant.
func Null() Variant {
	return Variant{Kind: KindNull}
}

// Int returns an i32 variant.
func Int(v int32) Variant {
	return Variant{Kind: KindInt, Int: v}
}

// Float returns an f64 variant.
func Float(v float64) Variant {
	return Variant{Kind: KindFloat, Float: v}
}

// String returns a string variant.
func String(v string) Variant {
	return Variant{Kind: KindString, Str: v}
}

// Map returns a map variant.
func Map(v map[string]Variant) Variant {
	return Variant{Kind: KindMap, Map: v}
}

// Vec returns a sequence variant.
func Vec(v []Variant) Variant {
	return Variant{Kind: KindVec, Vec: v}
}

// MarshalJSON picks the JSON form by tag. Map keys are emitted sorted so
// identical payloads serialize identically.
func (v Variant) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return json.Marshal(v.Int)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindString:
		return json.Marshal(v.Str)
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			vb, err := json.Marshal(v.Map[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf = append(buf, vb...)
		}
		return append(buf, '}'), nil
	case KindVec:
		if v.Vec == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Vec)
	}
	return nil, fmt.Errorf("events: unknown variant kind %d", v.Kind)
}

// UnmarshalJSON infers the tag from the JSON form. Whole numbers within the
// i32 range decode as i32, everything else numeric as f64.
func (v *Variant) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := fromDecoded(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromDecoded(raw any) (Variant, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case json.Number:
		if i, err := t.Int64(); err == nil && i >= -2147483648 && i <= 2147483647 {
			return Int(int32(i)), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Variant{}, err
		}
		return Float(f), nil
	case string:
		return String(t), nil
	case bool:
		return Variant{}, fmt.Errorf("events: booleans are not valid variant values")
	case map[string]any:
		m := make(map[string]Variant, len(t))
		for k, raw := range t {
			inner, err := fromDecoded(raw)
			if err != nil {
				return Variant{}, err
			}
			m[k] = inner
		}
		return Map(m), nil
	case []any:
		vec := make([]Variant, len(t))
		for i, raw := range t {
			inner, err := fromDecoded(raw)
			if err != nil {
				return Variant{}, err
			}
			vec[i] = inner
		}
		return Vec(vec), nil
	}
	return Variant{}, fmt.Errorf("events: invalid variant value %T", raw)
}

// Event is one published simulation event.
type Event struct {
	Name string  `json:"name"`
	Data Variant `json:"data"`
}
