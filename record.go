package shp

import (
	"bytes"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const dateLayout = "20060102"

// Record is an ordered mapping from field name to value. The deletion
// flag of the DBF record travels with it but is not a field.
type Record struct {
	Deleted bool

	keys   []string
	values map[string]Value
	schema Schema
}

// NewRecord returns a record holding every field of s, all Absent. Set
// on such a record only accepts names from s.
func NewRecord(s Schema) *Record {
	r := &Record{
		keys:   s.Names(),
		values: make(map[string]Value, len(s)),
		schema: s,
	}
	for _, name := range r.keys {
		r.values[name] = Value{}
	}
	return r
}

// Set stores v under name, appending name to the key order if new.
func (r *Record) Set(name string, v Value) error {
	if r.schema != nil && r.schema.Index(name) < 0 {
		return errors.Wrapf(ErrSchemaMismatch, "no field named %q", name)
	}
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = v
	return nil
}

// Get returns the value under name; missing names yield an Absent value.
func (r *Record) Get(name string) Value {
	return r.values[name]
}

func (r *Record) Lookup(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Keys returns the field names held by r in order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Record) Len() int { return len(r.keys) }

// Map returns the record as plain Go values, absent fields as nil.
func (r *Record) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.keys))
	for _, k := range r.keys {
		m[k] = r.values[k].Interface()
	}
	return m
}

// DecodeRecord splits one DBF record into fields according to s. b must
// hold exactly s.RecordLength() bytes.
func DecodeRecord(b []byte, s Schema) (bool, *Record, error) {
	if len(b) < s.RecordLength() {
		return false, nil, errors.Wrapf(ErrTruncatedRecord,
			"attribute record has %d bytes, want %d", len(b), s.RecordLength())
	}
	rec := NewRecord(s)
	rec.Deleted = b[0] == deletedFlag

	pos := 1
	for _, f := range s {
		raw := b[pos : pos+int(f.Length)]
		pos += int(f.Length)
		v, err := decodeField(f, raw)
		if err != nil {
			return false, nil, err
		}
		rec.values[f.Name] = v
	}
	return rec.Deleted, rec, nil
}

// ParseValue converts text into a value of f's type using the same rules
// as record decoding.
func ParseValue(f Field, text string) (Value, error) {
	return decodeField(f, []byte(text))
}

func decodeField(f Field, raw []byte) (Value, error) {
	if len(bytes.Trim(raw, " \x00")) == 0 {
		return Value{}, nil
	}
	switch f.Type {
	case Character:
		return StringValue(string(bytes.TrimRight(raw, " \x00"))), nil
	case Memo:
		return StringValue(string(bytes.Trim(raw, " \x00"))), nil
	case Numeric, Float:
		text := string(bytes.Trim(raw, " \x00"))
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, errors.Wrapf(ErrFieldDecode, "field %s: number %q", f.Name, text)
		}
		return NumberValue(n), nil
	case Logical:
		text := string(bytes.Trim(raw, " \x00"))
		switch text {
		case "T", "t", "Y", "y", "1":
			return BoolValue(true), nil
		case "F", "f", "N", "n", "0":
			return BoolValue(false), nil
		case "?":
			return Value{}, nil
		}
		return Value{}, errors.Wrapf(ErrFieldDecode, "field %s: logical %q", f.Name, text)
	case Date:
		text := string(bytes.Trim(raw, " \x00"))
		if text == "00000000" {
			return Value{}, nil
		}
		t, err := time.Parse(dateLayout, text)
		if err != nil {
			return Value{}, errors.Wrapf(ErrFieldDecode, "field %s: date %q", f.Name, text)
		}
		return DateValue(t), nil
	}
	return Value{}, errors.Wrapf(ErrMalformedSchema, "field %s: unknown type %q", f.Name, byte(f.Type))
}

// EncodeRecord formats r into one fixed-width DBF record, deletion flag
// first. Fields of s missing from r are written blank.
func EncodeRecord(r *Record, s Schema) ([]byte, error) {
	for _, k := range r.keys {
		if s.Index(k) < 0 {
			return nil, errors.Wrapf(ErrSchemaMismatch, "no field named %q", k)
		}
	}

	buf := bytes.Repeat([]byte{SPACE}, s.RecordLength())
	if r.Deleted {
		buf[0] = deletedFlag
	}
	pos := 1
	for _, f := range s {
		next := pos + int(f.Length)
		text, err := encodeField(f, r.values[f.Name])
		if err != nil {
			return nil, err
		}
		if len(text) > int(f.Length) {
			return nil, errors.Wrapf(ErrValueTooLong,
				"field %s: %q needs %d bytes, field holds %d", f.Name, text, len(text), f.Length)
		}
		if f.Type == Numeric || f.Type == Float {
			copy(buf[next-len(text):next], text)
		} else {
			copy(buf[pos:next], text)
		}
		pos = next
	}
	return buf, nil
}

func encodeField(f Field, v Value) (string, error) {
	if v.IsAbsent() {
		return "", nil
	}
	mismatch := func() error {
		return errors.Wrapf(ErrSchemaMismatch, "field %s of type %c cannot hold %v", f.Name, byte(f.Type), v)
	}
	switch f.Type {
	case Character, Memo:
		if v.kind != StringKind {
			return "", mismatch()
		}
		return v.s, nil
	case Numeric, Float:
		if v.kind != NumberKind {
			return "", mismatch()
		}
		return strconv.FormatFloat(v.n, 'f', int(f.Decimal), 64), nil
	case Logical:
		if v.kind != BoolKind {
			return "", mismatch()
		}
		return v.String(), nil
	case Date:
		if v.kind != DateKind {
			return "", mismatch()
		}
		return v.t.Format(dateLayout), nil
	}
	return "", errors.Wrapf(ErrMalformedSchema, "field %s: unknown type %q", f.Name, byte(f.Type))
}

// transformStrings rewrites every String value of r with fn.
func (r *Record) transformStrings(fn func(string) string) {
	for _, k := range r.keys {
		if v := r.values[k]; v.kind == StringKind {
			r.values[k] = StringValue(fn(v.s))
		}
	}
}

// Clone returns a copy of r that shares no state with it.
func (r *Record) Clone() *Record {
	c := &Record{
		Deleted: r.Deleted,
		keys:    append([]string(nil), r.keys...),
		values:  make(map[string]Value, len(r.values)),
		schema:  r.schema,
	}
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}
