package shp

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// DecodeGeometry parses one .shp record, header included, and returns
// its zero-based index.
func DecodeGeometry(rec []byte) (int, *Geometry, error) {
	if len(rec) < recordHeaderLen {
		return 0, nil, errors.Wrapf(ErrTruncatedRecord, "record header has %d bytes", len(rec))
	}
	num := int32(binary.BigEndian.Uint32(rec[0:4]))
	length := int64(int32(binary.BigEndian.Uint32(rec[4:8]))) * 2
	if length < 4 || length > int64(len(rec)-recordHeaderLen) {
		return int(num) - 1, nil, errors.Wrapf(ErrTruncatedRecord,
			"record %d declares %d content bytes, %d available", num, length, len(rec)-recordHeaderLen)
	}
	g, err := decodeShape(rec[recordHeaderLen : recordHeaderLen+length])
	return int(num) - 1, g, err
}

func decodeShape(content []byte) (*Geometry, error) {
	r := bytes.NewReader(content)
	g := &Geometry{}
	if err := read(r, &g.Type); err != nil {
		return nil, err
	}
	if !g.Type.valid() {
		return nil, errors.Wrapf(ErrUnknownShapeType, "tag %d", int32(g.Type))
	}

	var err error
	switch g.Type.base() {
	case Null:
		return g, nil
	case Point:
		err = readPoint(r, g)
	case MultiPoint:
		err = readMultiPoint(r, g)
	default:
		err = readBoundsPartsPoints(r, g)
	}
	if err != nil {
		return nil, err
	}
	if g.Type.base() == Point {
		g.Box = g.Bounds()
	}
	return g, nil
}

func read(r *bytes.Reader, data interface{}) error {
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errors.Wrap(ErrTruncatedRecord, "record content ends early")
		}
		return err
	}
	return nil
}

func readPoint(r *bytes.Reader, g *Geometry) error {
	var p Vertex
	if err := read(r, &p.X); err != nil {
		return err
	}
	if err := read(r, &p.Y); err != nil {
		return err
	}
	p.M = NoData
	if g.Type.HasZ() {
		if err := read(r, &p.Z); err != nil {
			return err
		}
	}
	if g.Type.HasM() && r.Len() >= 8 {
		if err := read(r, &p.M); err != nil {
			return err
		}
	}
	g.Points = []Vertex{p}
	return nil
}

func readBox(r *bytes.Reader, g *Geometry) error {
	var box [4]float64
	if err := read(r, &box); err != nil {
		return err
	}
	g.Box.MinX, g.Box.MinY, g.Box.MaxX, g.Box.MaxY = box[0], box[1], box[2], box[3]
	return nil
}

func readCount(r *bytes.Reader, per int) (int, error) {
	var n int32
	if err := read(r, &n); err != nil {
		return 0, err
	}
	if n < 0 || int64(n)*int64(per) > int64(r.Len()) {
		return 0, errors.Wrapf(ErrTruncatedRecord, "count %d exceeds record content", n)
	}
	return int(n), nil
}

func readMultiPoint(r *bytes.Reader, g *Geometry) error {
	if err := readBox(r, g); err != nil {
		return err
	}
	n, err := readCount(r, 16)
	if err != nil {
		return err
	}
	if err := readXY(r, g, n); err != nil {
		return err
	}
	return readZM(r, g)
}

func readBoundsPartsPoints(r *bytes.Reader, g *Geometry) error {
	if err := readBox(r, g); err != nil {
		return err
	}
	nprts, err := readCount(r, 4)
	if err != nil {
		return err
	}
	var npts int32
	if err := read(r, &npts); err != nil {
		return err
	}
	g.Parts = make([]int32, nprts)
	if err := read(r, g.Parts); err != nil {
		return err
	}
	for i, p := range g.Parts {
		if p < 0 || p > npts || (i > 0 && p < g.Parts[i-1]) {
			return errors.Wrapf(ErrTruncatedRecord, "part %d starts at %d of %d points", i, p, npts)
		}
	}
	if g.Type == MultiPatch {
		g.PartTypes = make([]PartType, nprts)
		if err := read(r, g.PartTypes); err != nil {
			return err
		}
	}
	if npts < 0 || int64(npts)*16 > int64(r.Len()) {
		return errors.Wrapf(ErrTruncatedRecord, "count %d exceeds record content", npts)
	}
	if err := readXY(r, g, int(npts)); err != nil {
		return err
	}
	return readZM(r, g)
}

func readXY(r *bytes.Reader, g *Geometry, n int) error {
	xy := make([]float64, 2*n)
	if err := read(r, xy); err != nil {
		return err
	}
	g.Points = make([]Vertex, n)
	for i := range g.Points {
		g.Points[i] = Vertex{X: xy[2*i], Y: xy[2*i+1], M: NoData}
	}
	return nil
}

// readZM reads the Z block of Z types and the M block, which is
// optional, of every measured type.
func readZM(r *bytes.Reader, g *Geometry) error {
	n := len(g.Points)
	vals := make([]float64, n)
	if g.Type.HasZ() {
		var zrange [2]float64
		if err := read(r, &zrange); err != nil {
			return err
		}
		if err := read(r, vals); err != nil {
			return err
		}
		for i, z := range vals {
			g.Points[i].Z = z
		}
		g.Box.MinZ, g.Box.MaxZ = zrange[0], zrange[1]
	}
	if !g.Type.HasM() || r.Len() < 16+8*n {
		return nil
	}
	var mrange [2]float64
	if err := read(r, &mrange); err != nil {
		return err
	}
	if err := read(r, vals); err != nil {
		return err
	}
	for i, m := range vals {
		g.Points[i].M = m
	}
	g.Box.MinM, g.Box.MaxM = mrange[0], mrange[1]
	return nil
}

// EncodeGeometry serializes g as the record with zero-based index,
// record header included. Boxes are recomputed from the vertices.
func EncodeGeometry(index int, g *Geometry) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(make([]byte, recordHeaderLen))
	if err := writeShape(&buf, g); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	binary.BigEndian.PutUint32(out[0:4], uint32(index+1))
	binary.BigEndian.PutUint32(out[4:8], uint32((len(out)-recordHeaderLen)/2))
	return out, nil
}

func writeShape(w *bytes.Buffer, g *Geometry) error {
	if !g.Type.valid() {
		return errors.Wrapf(ErrUnknownShapeType, "tag %d", int32(g.Type))
	}
	write(w, g.Type)
	box := g.Bounds()

	switch g.Type.base() {
	case Null:
		return nil
	case Point:
		if len(g.Points) != 1 {
			return errors.Errorf("shp: %v geometry needs one point, has %d", g.Type, len(g.Points))
		}
		p := g.Points[0]
		write(w, [2]float64{p.X, p.Y})
		if g.Type.HasZ() {
			write(w, p.Z)
		}
		if g.Type.HasM() {
			write(w, p.M)
		}
		return nil
	case MultiPoint:
		write(w, [4]float64{box.MinX, box.MinY, box.MaxX, box.MaxY})
		write(w, int32(len(g.Points)))
	default:
		if len(g.Parts) > 0 && g.Parts[0] != 0 {
			return errors.Errorf("shp: first part must start at 0, starts at %d", g.Parts[0])
		}
		write(w, [4]float64{box.MinX, box.MinY, box.MaxX, box.MaxY})
		write(w, int32(len(g.Parts)))
		write(w, int32(len(g.Points)))
		write(w, g.Parts)
		if g.Type == MultiPatch {
			if len(g.PartTypes) != len(g.Parts) {
				return errors.Errorf("shp: multipatch has %d parts, %d part types",
					len(g.Parts), len(g.PartTypes))
			}
			write(w, g.PartTypes)
		}
	}

	for _, p := range g.Points {
		write(w, [2]float64{p.X, p.Y})
	}
	if g.Type.HasZ() {
		write(w, [2]float64{box.MinZ, box.MaxZ})
		for _, p := range g.Points {
			write(w, p.Z)
		}
	}
	if g.Type.HasM() {
		write(w, [2]float64{box.MinM, box.MaxM})
		for _, p := range g.Points {
			write(w, p.M)
		}
	}
	return nil
}

// write cannot fail: bytes.Buffer never returns an error and every value
// is fixed size.
func write(w *bytes.Buffer, data interface{}) {
	_ = binary.Write(w, binary.LittleEndian, data)
}
