package shp

import (
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Reader gives random and sequential access to the records of a
// shapefile. Headers and the field schema are parsed once by Open.
type Reader struct {
	shpName string
	shp     *os.File
	header  Header
	spans   []span
	dbf     *dbfFile
	conf    *config
	closed  bool
}

// OpenFile opens the .shp file at path together with the .dbf file next
// to it.
func OpenFile(path string, opts ...Option) (*Reader, error) {
	return Open(SidecarPath(path, ".shp"), SidecarPath(path, ".dbf"), opts...)
}

// Open opens a geometry file and its attribute file. It fails with
// ErrHeaderMismatch if the two files hold different record counts.
func Open(shpPath, dbfPath string, opts ...Option) (*Reader, error) {
	conf, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(shpPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening geometry file")
	}
	r := &Reader{shpName: shpPath, shp: f, conf: conf}
	if r.dbf, err = openDBF(dbfPath, conf); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := r.initMetaData(); err != nil {
		_ = r.Close()
		return nil, err
	}
	glog.V(1).Infof("opened %s: %v, %d records", shpPath, r.header.ShapeType, len(r.spans))
	return r, nil
}

// NumRecords returns the number of records in the file.
func (r *Reader) NumRecords() int {
	return len(r.spans)
}

func (r *Reader) Schema() Schema {
	return append(Schema(nil), r.dbf.schema...)
}

func (r *Reader) ShapeType() ShapeType {
	return r.header.ShapeType
}

func (r *Reader) Header() Header {
	return r.header
}

// RecordAt reads record index.
func (r *Reader) RecordAt(index int) (*Geometry, *Record, error) {
	if r.closed {
		return nil, nil, ErrClosed
	}
	if index < 0 || index >= len(r.spans) {
		return nil, nil, errors.Wrapf(ErrIndexOutOfRange, "index %d of %d records", index, len(r.spans))
	}

	sp := r.spans[index]
	raw := make([]byte, sp.length)
	if _, err := r.shp.ReadAt(raw, sp.offset); err != nil {
		if err == io.EOF {
			err = ErrTruncatedRecord
		}
		return nil, nil, recordErr(r.shpName, index, err)
	}
	_, g, err := DecodeGeometry(raw)
	if err != nil {
		return nil, nil, recordErr(r.shpName, index, err)
	}

	data, err := r.dbf.readRecord(index)
	if err != nil {
		return nil, nil, recordErr(r.dbf.fileName, index, err)
	}
	_, rec, err := DecodeRecord(data, r.dbf.schema)
	if err != nil {
		return nil, nil, recordErr(r.dbf.fileName, index, err)
	}
	r.conf.decodeText(rec)
	return g, rec, nil
}

// Iterate returns an iterator positioned before the first record. Each
// call starts a new pass over the file.
func (r *Reader) Iterate() *Iterator {
	it := &Iterator{r: r, index: -1}
	if p := r.conf.progress; p != nil {
		p.Start(len(r.spans))
	}
	return it
}

// Close releases both files. Calling it more than once is harmless.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.shp.Close()
	if r.dbf != nil {
		if derr := r.dbf.Close(); err == nil {
			err = derr
		}
	}
	glog.V(2).Infof("closed %s", r.shpName)
	return err
}

// Iterator walks the records of a Reader in order:
//
//	it := r.Iterate()
//	for it.Next() {
//		g, rec := it.Geometry(), it.Record()
//	}
//	if err := it.Err(); err != nil {
//	}
//
// Iteration stops at the first record that fails to decode.
type Iterator struct {
	r     *Reader
	index int
	geom  *Geometry
	rec   *Record
	err   error
	done  bool
}

// Next advances to the next record and reports whether one is available.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	next := it.index + 1
	if next >= it.r.NumRecords() {
		it.finish()
		return false
	}
	g, rec, err := it.r.RecordAt(next)
	if err != nil {
		it.err = err
		it.finish()
		return false
	}
	it.index, it.geom, it.rec = next, g, rec
	if p := it.r.conf.progress; p != nil {
		p.Advance(1)
	}
	return true
}

func (it *Iterator) finish() {
	it.done = true
	it.geom, it.rec = nil, nil
	if p := it.r.conf.progress; p != nil {
		p.Done()
	}
}

// Index returns the zero-based index of the current record.
func (it *Iterator) Index() int { return it.index }

func (it *Iterator) Geometry() *Geometry { return it.geom }

func (it *Iterator) Record() *Record { return it.rec }

// Err returns the error that stopped the iteration, if any.
func (it *Iterator) Err() error { return it.err }

// Close ends the iteration early and reports it done to the progress
// sink. It is a no-op once Next has returned false.
func (it *Iterator) Close() {
	if !it.done {
		it.finish()
	}
}
