package shp

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// span locates one .shp record, header included.
type span struct {
	offset int64
	length int
}

func (r *Reader) initMetaData() error {
	if err := r.initHeader(); err != nil {
		return err
	}
	if err := r.initOffsets(); err != nil {
		return err
	}
	if got, want := len(r.spans), int(r.dbf.NumRecords()); got != want {
		return errors.Wrapf(ErrHeaderMismatch, "%s has %d records, %s has %d",
			r.shpName, got, r.dbf.fileName, want)
	}
	return nil
}

func (r *Reader) initHeader() error {
	buf := make([]byte, shpHeaderLength)
	if _, err := r.shp.ReadAt(buf, 0); err != nil {
		return errors.Wrapf(ErrMalformedHeader, "%s: reading header: %v", r.shpName, err)
	}
	if err := r.header.unmarshal(buf); err != nil {
		return errors.Wrap(err, r.shpName)
	}
	return nil
}

// initOffsets walks the record headers once so any record can later be
// read with a single ReadAt.
func (r *Reader) initOffsets() error {
	fileStat, err := r.shp.Stat()
	if err != nil {
		return errors.Wrap(err, "opening geometry file")
	}
	end := r.header.FileLength
	if size := fileStat.Size(); size < end {
		end = size
	}

	hdr := make([]byte, recordHeaderLen)
	pos := int64(shpHeaderLength)
	for pos < end {
		index := len(r.spans)
		if pos+recordHeaderLen > end {
			return recordErr(r.shpName, index, errors.Wrap(ErrTruncatedRecord, "record header past end of file"))
		}
		if _, err := r.shp.ReadAt(hdr, pos); err != nil {
			return recordErr(r.shpName, index, errors.Wrap(err, "reading record header"))
		}
		length := int64(int32(binary.BigEndian.Uint32(hdr[4:8]))) * 2
		if length < 4 || pos+recordHeaderLen+length > end {
			return recordErr(r.shpName, index, errors.Wrapf(ErrTruncatedRecord,
				"record declares %d content bytes at offset %d", length, pos))
		}
		r.spans = append(r.spans, span{offset: pos, length: int(recordHeaderLen + length)})
		pos += recordHeaderLen + length
	}
	return nil
}

// SidecarPath returns path with its extension replaced by ext, matching the
// case of the original extension.
func SidecarPath(path, ext string) string {
	old := filepath.Ext(path)
	base := strings.TrimSuffix(path, old)
	if old != "" && old == strings.ToUpper(old) {
		ext = strings.ToUpper(ext)
	}
	return base + ext
}

func removeQuietly(names ...string) {
	for _, name := range names {
		if name != "" {
			_ = os.Remove(name)
		}
	}
}
