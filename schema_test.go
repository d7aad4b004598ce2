package shp

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		{Name: "NAME", Type: Character, Length: 20},
		{Name: "POP", Type: Numeric, Length: 10},
		{Name: "AREA", Type: Float, Length: 12, Decimal: 3},
		{Name: "ACTIVE", Type: Logical, Length: 1},
		{Name: "FOUNDED", Type: Date, Length: 8},
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	s := testSchema()
	table, err := EncodeSchema(s)
	require.NoError(t, err)
	require.Len(t, table, len(s)*descriptorLength+1)
	require.Equal(t, byte(fieldTerminator), table[len(table)-1])

	got, err := DecodeSchema(table, s.RecordLength())
	require.NoError(t, err)
	require.Equal(t, s, got)

	again, err := EncodeSchema(got)
	require.NoError(t, err)
	require.Equal(t, table, again)
}

func TestSchemaKeepsReservedBytes(t *testing.T) {
	table, err := EncodeSchema(testSchema())
	require.NoError(t, err)
	// Some writers store the field offset in the address bytes.
	table[12], table[descriptorLength+13] = 0x01, 0x15
	table[descriptorLength+31] = 0x07

	s, err := DecodeSchema(table, testSchema().RecordLength())
	require.NoError(t, err)
	again, err := EncodeSchema(s)
	require.NoError(t, err)
	require.Equal(t, table, again)
}

func TestSchemaRecordLength(t *testing.T) {
	require.Equal(t, 1, Schema{}.RecordLength())
	require.Equal(t, 1+20+10+12+1+8, testSchema().RecordLength())
}

func TestDecodeSchemaErrors(t *testing.T) {
	good, err := EncodeSchema(testSchema())
	require.NoError(t, err)
	recLen := testSchema().RecordLength()

	tests := []struct {
		desc   string
		table  func() []byte
		recLen int
	}{
		{"record length disagrees", func() []byte { return good }, recLen + 1},
		{"no terminator", func() []byte { return good[:len(good)-1] }, recLen},
		{"unknown type tag", func() []byte {
			b := append([]byte(nil), good...)
			b[11] = 'Q'
			return b
		}, recLen},
		{"zero length", func() []byte {
			b := append([]byte(nil), good...)
			b[16] = 0
			return b
		}, recLen - 20},
	}
	for _, tc := range tests {
		_, err := DecodeSchema(tc.table(), tc.recLen)
		require.Error(t, err, tc.desc)
		require.True(t, errors.Is(err, ErrMalformedSchema), tc.desc)
	}
}

func TestEncodeSchemaErrors(t *testing.T) {
	bad := []Schema{
		{{Name: "", Type: Character, Length: 1}},
		{{Name: "ELEVENCHARS", Type: Character, Length: 1}},
		{{Name: "X", Type: 'Z', Length: 1}},
		{{Name: "X", Type: Numeric, Length: 0}},
	}
	for _, s := range bad {
		_, err := EncodeSchema(s)
		require.True(t, errors.Is(err, ErrMalformedSchema), "%+v", s)
	}
}

func TestEmptySchema(t *testing.T) {
	table, err := EncodeSchema(nil)
	require.NoError(t, err)
	require.Equal(t, []byte{fieldTerminator}, table)

	s, err := DecodeSchema(table, 1)
	require.NoError(t, err)
	require.Empty(t, s)
}

func TestFieldTypeLabel(t *testing.T) {
	labels := map[FieldType]string{
		Character: "STRING",
		Numeric:   "NUMBER",
		Float:     "NUMBER",
		Logical:   "BOOL",
		Date:      "DATE",
		Memo:      "MEMO",
		'X':       "",
	}
	for ft, want := range labels {
		require.Equal(t, want, ft.Label(), "type %c", byte(ft))
	}
}

func TestSchemaIndex(t *testing.T) {
	s := testSchema()
	require.Equal(t, 1, s.Index("POP"))
	require.Equal(t, -1, s.Index("pop"))
	require.Equal(t, []string{"NAME", "POP", "AREA", "ACTIVE", "FOUNDED"}, s.Names())
}
