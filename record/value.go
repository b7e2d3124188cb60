package record

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// ErrUnrepresentable is returned when a payload value can't be
// expressed as string, number, bool, or ordered list of strings —
// e.g. a nested object. Spec §4.3 calls this out as BAD_REQUEST.
var ErrUnrepresentable = errors.New("value type unrepresentable")

// Kind tags which shape a Value holds.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindList
)

// Value is one entry of a record: a string, a number, a boolean, or
// an ordered list of strings. It round-trips through JSON as a bare
// scalar or array, never as an object.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	List []string
}

func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func List(items ...string) Value {
	return Value{Kind: KindList, List: append([]string(nil), items...)}
}

// Strings returns the value broadened to a set of strings: a
// singleton for string/number/bool, the list itself for KindList.
// Query matching (spec §4.3) always operates in this broadened form.
func (v Value) Strings() []string {
	switch v.Kind {
	case KindList:
		return v.List
	case KindString:
		return []string{v.Str}
	case KindBool:
		if v.Bool {
			return []string{"true"}
		}
		return []string{"false"}
	case KindNumber:
		return []string{formatNumber(v.Num)}
	default:
		return nil
	}
}

func formatNumber(n float64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// MarshalJSON renders the value in its natural JSON shape: a bare
// scalar, or an array for a list.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindList:
		return json.Marshal(v.List)
	default:
		return nil, ErrUnrepresentable
	}
}

// UnmarshalJSON accepts a bare string, number, bool, or array of
// strings. Anything else (object, nested array, null) is rejected as
// unrepresentable per spec §4.3.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts a decoded JSON value (string/float64/bool/[]any)
// into a Value, rejecting anything unrepresentable.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case []any:
		items := make([]string, 0, len(t))
		for _, el := range t {
			s, ok := el.(string)
			if !ok {
				return Value{}, ErrUnrepresentable
			}
			items = append(items, s)
		}
		return List(items...), nil
	default:
		return Value{}, ErrUnrepresentable
	}
}
