package shp

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// FieldType is the one-letter DBF type tag of a field.
type FieldType byte

const (
	Character FieldType = 'C'
	Numeric   FieldType = 'N'
	Float     FieldType = 'F'
	Logical   FieldType = 'L'
	Date      FieldType = 'D'
	Memo      FieldType = 'M'
)

// Label returns the human readable name of the type, or "" for an
// unknown tag.
func (t FieldType) Label() string {
	switch t {
	case Character:
		return "STRING"
	case Numeric, Float:
		return "NUMBER"
	case Logical:
		return "BOOL"
	case Date:
		return "DATE"
	case Memo:
		return "MEMO"
	}
	return ""
}

func (t FieldType) valid() bool {
	return t.Label() != ""
}

const maxFieldName = 10

// Field describes one attribute column.
type Field struct {
	Name    string
	Type    FieldType
	Length  uint8
	Decimal uint8

	// Bytes of the descriptor we do not interpret, kept so a decoded
	// table encodes back unchanged.
	address  [4]byte
	reserved [14]byte
}

// Schema is the ordered field table of a DBF file. Field order matches
// the byte layout of every record.
type Schema []Field

// RecordLength is the width of one record, deletion flag included.
func (s Schema) RecordLength() int {
	n := 1
	for _, f := range s {
		n += int(f.Length)
	}
	return n
}

// Index returns the position of the named field, or -1.
func (s Schema) Index(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

func (s Schema) validate() error {
	for i, f := range s {
		if f.Name == "" || len(f.Name) > maxFieldName {
			return errors.Wrapf(ErrMalformedSchema, "field %d: bad name %q", i, f.Name)
		}
		if bytes.IndexByte([]byte(f.Name), NUL) >= 0 {
			return errors.Wrapf(ErrMalformedSchema, "field %d: name contains NUL", i)
		}
		if !f.Type.valid() {
			return errors.Wrapf(ErrMalformedSchema, "field %s: unknown type %q", f.Name, byte(f.Type))
		}
		if f.Length == 0 {
			return errors.Wrapf(ErrMalformedSchema, "field %s: zero length", f.Name)
		}
	}
	return nil
}

// DecodeSchema parses the field descriptor table that follows the fixed
// DBF header, up to and including its terminator byte. recordLength is
// the record width declared by the header.
func DecodeSchema(table []byte, recordLength int) (Schema, error) {
	// The terminator sits on a descriptor boundary.
	n := 0
	for {
		off := n * descriptorLength
		if off >= len(table) {
			return nil, errors.Wrap(ErrMalformedSchema, "missing field terminator")
		}
		if table[off] == fieldTerminator {
			break
		}
		n++
	}

	schema := make(Schema, 0, n)
	r := bytes.NewReader(table[:n*descriptorLength])
	for i := 0; i < n; i++ {
		var d fieldDescriptor
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return nil, errors.Wrapf(ErrMalformedSchema, "field %d: %v", i, err)
		}
		nameEnd := bytes.IndexByte(d.Name[:], NUL)
		if nameEnd == -1 {
			nameEnd = len(d.Name)
		}
		f := Field{
			Name:     string(d.Name[:nameEnd]),
			Type:     FieldType(d.Type),
			Length:   d.Length,
			Decimal:  d.Decimal,
			address:  d.Address,
			reserved: d.Reserved,
		}
		schema = append(schema, f)
	}
	if err := schema.validate(); err != nil {
		return nil, err
	}
	if got := schema.RecordLength(); got != recordLength {
		return nil, errors.Wrapf(ErrMalformedSchema,
			"fields span %d bytes, header declares %d", got, recordLength)
	}
	return schema, nil
}

// EncodeSchema serializes the field descriptor table, terminator included.
func EncodeSchema(s Schema) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(s)*descriptorLength + 1)
	for _, f := range s {
		d := fieldDescriptor{
			Type:     byte(f.Type),
			Address:  f.address,
			Length:   f.Length,
			Decimal:  f.Decimal,
			Reserved: f.reserved,
		}
		copy(d.Name[:], f.Name)
		if err := binary.Write(&buf, binary.LittleEndian, &d); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(fieldTerminator)
	return buf.Bytes(), nil
}
