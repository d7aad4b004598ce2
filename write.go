package shp

import (
	"bufio"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

type writerState int

const (
	declaring writerState = iota
	writing
	closed
)

// stagedFile is an output file written under a temporary name and moved
// into place once complete.
type stagedFile struct {
	name string
	f    *os.File
	w    *bufio.Writer
}

func createStaged(name string) (*stagedFile, error) {
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp-*")
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", name)
	}
	return &stagedFile{name: name, f: f, w: bufio.NewWriter(f)}, nil
}

func (s *stagedFile) discard() {
	if s == nil {
		return
	}
	_ = s.f.Close()
	removeQuietly(s.f.Name())
}

// seal flushes, syncs and closes the temporary file.
func (s *stagedFile) seal() error {
	if err := s.w.Flush(); err != nil {
		return errors.Wrapf(err, "writing %s", s.name)
	}
	if err := s.f.Sync(); err != nil {
		return errors.Wrapf(err, "syncing %s", s.name)
	}
	if err := s.f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", s.name)
	}
	return errors.Wrapf(os.Chmod(s.f.Name(), 0644), "writing %s", s.name)
}

var renameFile = os.Rename

// install moves a sealed file over its final name.
func (s *stagedFile) install() error {
	return errors.Wrapf(renameFile(s.f.Name(), s.name), "replacing %s", s.name)
}

// Writer produces a .shp, .shx and .dbf file set. Output becomes visible
// under its final names only when Close succeeds, so a Writer may
// target the files a Reader is still reading.
type Writer struct {
	shp, shx, dbf *stagedFile
	conf          *config

	state     writerState
	typeSet   bool
	shapeType ShapeType
	schema    Schema

	numRecords int
	shpLength  int64
	box        Box
	hasBox     bool
	hasM       bool
	updated    time.Time

	// err is sticky: once a record fails no more are accepted.
	err error
}

// CreateFile creates the .shp, .shx and .dbf files named after path.
func CreateFile(path string, opts ...Option) (*Writer, error) {
	return Create(SidecarPath(path, ".shp"), SidecarPath(path, ".dbf"), opts...)
}

// Create starts a file set. The index file is written next to shpPath.
func Create(shpPath, dbfPath string, opts ...Option) (*Writer, error) {
	conf, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	w := &Writer{conf: conf, shpLength: shpHeaderLength, updated: time.Now()}
	for _, out := range []struct {
		dst  **stagedFile
		name string
	}{
		{&w.shp, shpPath},
		{&w.shx, SidecarPath(shpPath, ".shx")},
		{&w.dbf, dbfPath},
	} {
		if *out.dst, err = createStaged(out.name); err != nil {
			w.discard()
			return nil, err
		}
	}

	// Placeholders, patched by Close.
	placeholder := (&Header{FileLength: shpHeaderLength}).marshal()
	if _, err := w.shp.w.Write(placeholder); err != nil {
		w.discard()
		return nil, errors.Wrapf(err, "writing %s", shpPath)
	}
	if _, err := w.shx.w.Write(placeholder); err != nil {
		w.discard()
		return nil, errors.Wrapf(err, "writing %s", w.shx.name)
	}
	glog.V(1).Infof("creating %s", shpPath)
	return w, nil
}

// SetShapeType declares the shape type of the file. Records of another
// type, Null aside, are rejected.
func (w *Writer) SetShapeType(t ShapeType) error {
	if w.state != declaring {
		return ErrSchemaAlreadyFixed
	}
	if !t.valid() {
		return errors.Wrapf(ErrUnknownShapeType, "tag %d", int32(t))
	}
	w.shapeType, w.typeSet = t, true
	return nil
}

// SetSchema fixes the field schema. It can be called once, before any
// record is written.
func (w *Writer) SetSchema(s Schema) error {
	if w.state != declaring {
		return ErrSchemaAlreadyFixed
	}
	seen := make(map[string]bool, len(s))
	for _, f := range s {
		if seen[f.Name] {
			return errors.Wrapf(ErrMalformedSchema, "duplicate field %q", f.Name)
		}
		seen[f.Name] = true
	}
	return w.startWriting(append(Schema(nil), s...))
}

func (w *Writer) startWriting(s Schema) error {
	onDisk := append(Schema(nil), s...)
	for i := range onDisk {
		onDisk[i].Name = w.conf.encodeName(onDisk[i].Name)
	}
	table, err := EncodeSchema(onDisk)
	if err != nil {
		return err
	}
	headerLength := dbfHeaderLength + len(table)
	if headerLength > 0xFFFF || s.RecordLength() > 0xFFFF {
		return errors.Wrapf(ErrMalformedSchema, "%d fields spanning %d bytes", len(s), s.RecordLength())
	}
	hdr := DBFHeader{
		Version:      dbfVersion,
		HeaderLength: uint16(headerLength),
		RecordLength: uint16(s.RecordLength()),
	}
	hdr.LastUpdateYear, hdr.LastUpdateMonth, hdr.LastUpdateDay = dbfDate(w.updated)
	if err := binary.Write(w.dbf.w, binary.LittleEndian, &hdr); err != nil {
		return errors.Wrapf(err, "writing %s", w.dbf.name)
	}
	if _, err := w.dbf.w.Write(table); err != nil {
		return errors.Wrapf(err, "writing %s", w.dbf.name)
	}
	w.schema = s
	w.state = writing
	return nil
}

// WriteRecord appends one geometry and its attributes. A nil geometry is
// written as a Null shape, a nil record as all blank fields. Without
// SetShapeType, the first non-Null record decides the file type.
func (w *Writer) WriteRecord(g *Geometry, rec *Record) error {
	switch {
	case w.err != nil:
		return w.err
	case w.state == closed:
		return ErrClosed
	}
	if g == nil {
		g = &Geometry{Type: Null}
	}
	if rec == nil {
		rec = &Record{}
	}
	if !w.typeSet && g.Type != Null {
		w.shapeType, w.typeSet = g.Type, true
	}
	if w.state == declaring {
		if err := w.startWriting(nil); err != nil {
			w.err = err
			return err
		}
	}
	if err := w.writeRecord(g, rec); err != nil {
		w.err = err
		return err
	}
	return nil
}

func (w *Writer) writeRecord(g *Geometry, rec *Record) error {
	index := w.numRecords
	if !g.Type.Compatible(w.shapeType) {
		return recordErr(w.shp.name, index, errors.Wrapf(ErrShapeTypeMismatch,
			"%v record in %v file", g.Type, w.shapeType))
	}
	attrs, err := EncodeRecord(w.conf.encodeText(rec), w.schema)
	if err != nil {
		return recordErr(w.dbf.name, index, err)
	}
	shape, err := EncodeGeometry(index, g)
	if err != nil {
		return recordErr(w.shp.name, index, err)
	}

	var entry [shxEntryLength]byte
	binary.BigEndian.PutUint32(entry[0:], uint32(w.shpLength/2))
	binary.BigEndian.PutUint32(entry[4:], uint32((len(shape)-recordHeaderLen)/2))
	if _, err := w.shp.w.Write(shape); err != nil {
		return errors.Wrapf(err, "writing %s", w.shp.name)
	}
	if _, err := w.shx.w.Write(entry[:]); err != nil {
		return errors.Wrapf(err, "writing %s", w.shx.name)
	}
	if _, err := w.dbf.w.Write(attrs); err != nil {
		return errors.Wrapf(err, "writing %s", w.dbf.name)
	}

	w.shpLength += int64(len(shape))
	if len(g.Points) > 0 {
		// Records without measures leave the M range alone.
		withM := g.hasMeasures()
		w.box = w.box.extend(g.Bounds(), !w.hasBox, withM, !w.hasM)
		w.hasBox = true
		w.hasM = w.hasM || withM
	}
	w.numRecords++
	return nil
}

// NumRecords returns the number of records written so far.
func (w *Writer) NumRecords() int {
	return w.numRecords
}

// Close finalizes the headers and moves the files into place. If a
// record failed earlier, the output is discarded and that error is
// returned.
func (w *Writer) Close() error {
	if w.state == closed {
		return w.err
	}
	if w.err != nil {
		w.discard()
		return w.err
	}
	if err := w.finish(); err != nil {
		w.err = err
		w.discard()
		return err
	}
	w.state = closed
	glog.V(1).Infof("wrote %s: %v, %d records", w.shp.name, w.shapeType, w.numRecords)
	return nil
}

// Abort discards everything written so far.
func (w *Writer) Abort() error {
	if w.state == closed {
		return nil
	}
	w.discard()
	glog.Warningf("discarded output %s", w.shp.name)
	return nil
}

func (w *Writer) finish() error {
	if w.state == declaring {
		if err := w.startWriting(nil); err != nil {
			return err
		}
	}
	if err := w.dbf.w.WriteByte(EOF); err != nil {
		return errors.Wrapf(err, "writing %s", w.dbf.name)
	}
	for _, s := range []*stagedFile{w.shp, w.shx, w.dbf} {
		if err := s.w.Flush(); err != nil {
			return errors.Wrapf(err, "writing %s", s.name)
		}
	}

	hdr := Header{ShapeType: w.shapeType, FileLength: w.shpLength, Box: w.box}
	if _, err := w.shp.f.WriteAt(hdr.marshal(), 0); err != nil {
		return errors.Wrapf(err, "patching %s", w.shp.name)
	}
	hdr.FileLength = shpHeaderLength + shxEntryLength*int64(w.numRecords)
	if _, err := w.shx.f.WriteAt(hdr.marshal(), 0); err != nil {
		return errors.Wrapf(err, "patching %s", w.shx.name)
	}
	if err := w.saveNumRecords(); err != nil {
		return err
	}

	// Only renames can fail once the files are sealed. The .shp is
	// renamed last so a new .shp never sits next to an old index or table.
	staged := []*stagedFile{w.shx, w.dbf, w.shp}
	for _, s := range staged {
		if err := s.seal(); err != nil {
			return err
		}
	}
	for _, s := range staged {
		if err := s.install(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) saveNumRecords() error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(w.numRecords))
	if _, err := w.dbf.f.WriteAt(buf[:], 4); err != nil {
		return errors.Wrapf(err, "patching %s", w.dbf.name)
	}
	return nil
}

func (w *Writer) discard() {
	w.shp.discard()
	w.shx.discard()
	w.dbf.discard()
	w.state = closed
}

func dbfDate(t time.Time) (year, month, day byte) {
	y, m, d := t.Date()
	return byte(y - 1900), byte(m), byte(d)
}
