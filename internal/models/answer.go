package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ValueKind tags the shape held by an AnswerValue.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueString
	ValueStrings
	ValueNumber
)

// ErrUnsupportedValue is returned when an answer value is not a string, a number or a flat list of them.
var ErrUnsupportedValue = errors.New("answer value must be a string, number or list of strings")

// AnswerValue is a string, a list of strings or a number.
type AnswerValue struct {
	Kind ValueKind
	Str  string
	Strs []string
	Num  float64
}

func StringValue(s string) AnswerValue     { return AnswerValue{Kind: ValueString, Str: s} }
func StringsValue(ss []string) AnswerValue { return AnswerValue{Kind: ValueStrings, Strs: ss} }
func NumberValue(n float64) AnswerValue    { return AnswerValue{Kind: ValueNumber, Num: n} }

// IsNone reports whether no value was given.
func (v AnswerValue) IsNone() bool { return v.Kind == ValueNone }

// String renders the value for a flat export cell; lists are joined with ", ".
func (v AnswerValue) String() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueStrings:
		return strings.Join(v.Strs, ", ")
	case ValueNumber:
		return formatNumber(v.Num)
	}
	return ""
}

// Parts returns one entry per counted element: list values contribute each element.
func (v AnswerValue) Parts() []string {
	switch v.Kind {
	case ValueString:
		return []string{v.Str}
	case ValueStrings:
		return append([]string(nil), v.Strs...)
	case ValueNumber:
		return []string{formatNumber(v.Num)}
	}
	return nil
}

// Clone returns a copy that does not share the list backing array.
func (v AnswerValue) Clone() AnswerValue {
	if v.Strs != nil {
		v.Strs = append([]string(nil), v.Strs...)
	}
	return v
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueString:
		return json.Marshal(v.Str)
	case ValueStrings:
		if v.Strs == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Strs)
	case ValueNumber:
		return json.Marshal(v.Num)
	}
	return []byte("null"), nil
}

func (v *AnswerValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = AnswerValue{}
		return nil
	}
	var raw any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		*v = StringValue(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return ErrUnsupportedValue
		}
		*v = NumberValue(n)
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			switch e := el.(type) {
			case string:
				out = append(out, e)
			case json.Number:
				out = append(out, e.String())
			default:
				return ErrUnsupportedValue
			}
		}
		*v = StringsValue(out)
	default:
		return ErrUnsupportedValue
	}
	return nil
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
