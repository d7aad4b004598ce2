package shp

import (
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	Absent Kind = iota
	StringKind
	NumberKind
	BoolKind
	DateKind
)

// Value is one attribute value. The zero Value is Absent.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
	t    time.Time
}

// StringValue returns a text value. A DBF file stores blank text the
// same way as a missing value, so an empty or all-space s yields the
// Absent value.
func StringValue(s string) Value {
	if strings.TrimRight(s, " \x00") == "" {
		return Value{}
	}
	return Value{kind: StringKind, s: s}
}

func NumberValue(n float64) Value { return Value{kind: NumberKind, n: n} }

func BoolValue(b bool) Value { return Value{kind: BoolKind, b: b} }

// DateValue keeps only the calendar date of t, in UTC.
func DateValue(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: DateKind, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsAbsent() bool { return v.kind == Absent }

// Str returns the string held by a String value.
func (v Value) Str() string { return v.s }

// Number returns the float held by a Number value.
func (v Value) Number() float64 { return v.n }

// Bool returns the bool held by a Bool value.
func (v Value) Bool() bool { return v.b }

// Time returns the date held by a Date value.
func (v Value) Time() time.Time { return v.t }

// String formats the value for display. Absent values print as "".
func (v Value) String() string {
	switch v.kind {
	case StringKind:
		return v.s
	case NumberKind:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case BoolKind:
		if v.b {
			return "T"
		}
		return "F"
	case DateKind:
		return v.t.Format(dateLayout)
	}
	return ""
}

// Interface returns the value as a plain Go value, nil when absent.
func (v Value) Interface() interface{} {
	switch v.kind {
	case StringKind:
		return v.s
	case NumberKind:
		return v.n
	case BoolKind:
		return v.b
	case DateKind:
		return v.t.Format("2006-01-02")
	}
	return nil
}
