package shp

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func getFileBuffer(t *testing.T, fileName string) []byte {
	buffer, err := os.ReadFile(fileName)
	require.NoError(t, err)
	return buffer
}

// compareBytes lists every position where a and b differ as
// {offset, a[offset], b[offset]}, with -1 for a missing byte.
func compareBytes(a, b []byte) [][3]int {
	var differences [][3]int
	minLength := len(a)
	if len(b) < minLength {
		minLength = len(b)
	}
	for i := 0; i < minLength; i++ {
		if a[i] != b[i] {
			differences = append(differences, [3]int{i, int(a[i]), int(b[i])})
		}
	}
	for i := minLength; i < len(a); i++ {
		differences = append(differences, [3]int{i, int(a[i]), -1})
	}
	for i := minLength; i < len(b); i++ {
		differences = append(differences, [3]int{i, -1, int(b[i])})
	}
	return differences
}

func descriptor(name string, typ byte, length, decimal byte) []byte {
	d := make([]byte, descriptorLength)
	copy(d, name)
	d[11], d[16], d[17] = typ, length, decimal
	return d
}

func TestDBFLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.shp")
	s := Schema{
		{Name: "CODE", Type: Character, Length: 3},
		{Name: "N", Type: Numeric, Length: 4, Decimal: 1},
	}
	w, err := CreateFile(path)
	require.NoError(t, err)
	w.updated = time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	require.NoError(t, w.SetSchema(s))

	first := NewRecord(s)
	require.NoError(t, first.Set("CODE", StringValue("ab")))
	require.NoError(t, first.Set("N", NumberValue(1.5)))
	second := NewRecord(s)
	second.Deleted = true
	require.NoError(t, second.Set("CODE", StringValue("xyz")))
	require.NoError(t, second.Set("N", NumberValue(-2)))
	require.NoError(t, w.WriteRecord(nil, first))
	require.NoError(t, w.WriteRecord(nil, second))
	require.NoError(t, w.Close())

	header := make([]byte, dbfHeaderLength)
	header[0], header[1], header[2], header[3] = dbfVersion, 124, 3, 5
	binary.LittleEndian.PutUint32(header[4:], 2)
	binary.LittleEndian.PutUint16(header[8:], dbfHeaderLength+2*descriptorLength+1)
	binary.LittleEndian.PutUint16(header[10:], 8)

	var want []byte
	want = append(want, header...)
	want = append(want, descriptor("CODE", 'C', 3, 0)...)
	want = append(want, descriptor("N", 'N', 4, 1)...)
	want = append(want, fieldTerminator)
	want = append(want, " ab  1.5"...)
	want = append(want, "*xyz-2.0"...)
	want = append(want, EOF)

	got := getFileBuffer(t, SidecarPath(path, ".dbf"))
	require.Empty(t, compareBytes(want, got))
}

func TestDBFHeaderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "towns.shp")
	writeFixture(t, path)

	dbfPath := SidecarPath(path, ".dbf")
	f, err := os.OpenFile(dbfPath, os.O_RDWR, 0)
	require.NoError(t, err)
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], 4)
	_, err = f.WriteAt(count[:], 4)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = OpenFile(path)
	require.True(t, errors.Is(err, ErrHeaderMismatch), "%v", err)
}

func TestDBFMalformedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "towns.shp")
	writeFixture(t, path)

	dbfPath := SidecarPath(path, ".dbf")
	require.NoError(t, os.Truncate(dbfPath, 10))
	_, err := OpenFile(path)
	require.True(t, errors.Is(err, ErrMalformedHeader), "%v", err)

	// A header length pointing past the end of the file.
	writeFixture(t, path)
	f, err := os.OpenFile(dbfPath, os.O_RDWR, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xFF, 0xFF}, 8)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = OpenFile(path)
	require.True(t, errors.Is(err, ErrMalformedHeader), "%v", err)
}

func TestDBFTruncatedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "towns.shp")
	rows := writeFixture(t, path)

	dbfPath := SidecarPath(path, ".dbf")
	info, err := os.Stat(dbfPath)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(dbfPath, info.Size()-1-10))

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	_, rec, err := r.RecordAt(0)
	require.NoError(t, err)
	require.Equal(t, rows[0].rec, rec)

	_, _, err = r.RecordAt(len(rows) - 1)
	require.True(t, errors.Is(err, ErrTruncatedRecord), "%v", err)
	var re *RecordError
	require.True(t, errors.As(err, &re))
	require.Equal(t, dbfPath, re.File)
	require.Equal(t, len(rows)-1, re.Index)
}
