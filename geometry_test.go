package shp

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func square(x, y, size float64, clockwise bool) []Vertex {
	ring := []Vertex{{X: x, Y: y}, {X: x, Y: y + size}, {X: x + size, Y: y + size}, {X: x + size, Y: y}, {X: x, Y: y}}
	if !clockwise {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}
	return ring
}

func withZM(pts []Vertex, z, m float64) []Vertex {
	out := make([]Vertex, len(pts))
	for i, p := range pts {
		out[i] = Vertex{X: p.X, Y: p.Y, Z: z + float64(i), M: m + float64(i)}
	}
	return out
}

func testGeometries() []*Geometry {
	line := []Vertex{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}
	mline := []Vertex{{X: 0, Y: 0, M: NoData}, {X: 1, Y: 1, M: NoData}}
	return []*Geometry{
		NewGeometry(Null),
		NewGeometry(Point, []Vertex{{X: -122.08, Y: 37.42, M: NoData}}),
		NewGeometry(PointZ, []Vertex{{X: 1, Y: 2, Z: 3, M: 4}}),
		NewGeometry(PointM, []Vertex{{X: 1, Y: 2, M: 4}}),
		NewGeometry(MultiPoint, mline),
		NewGeometry(MultiPointZ, withZM(line, 10, 100)),
		NewGeometry(MultiPointM, withZM(line, 0, 5)),
		NewGeometry(PolyLine, mline, []Vertex{{X: 5, Y: 5, M: NoData}, {X: 6, Y: 7, M: NoData}}),
		NewGeometry(PolyLineZ, withZM(line, 1, 2)),
		NewGeometry(PolyLineM, withZM(line, 0, 2)),
		NewGeometry(Polygon, withNoData(square(0, 0, 10, true)), withNoData(square(2, 2, 2, false))),
		NewGeometry(PolygonZ, withZM(square(0, 0, 1, true), 3, 4)),
		NewGeometry(PolygonM, withZM(square(0, 0, 1, true), 0, 4)),
		NewGeometry(MultiPatch, withZM(square(0, 0, 1, true), 1, 1), withZM(line, 2, 2)),
	}
}

func withNoData(pts []Vertex) []Vertex {
	for i := range pts {
		pts[i].M = NoData
	}
	return pts
}

// canonical zeroes dimensions the type does not store so a decoded
// geometry can be compared with the one that was encoded.
func canonical(g *Geometry) *Geometry {
	c := *g
	if g.Points == nil {
		return &c
	}
	c.Points = make([]Vertex, len(g.Points))
	for i, p := range g.Points {
		if !g.Type.HasZ() {
			p.Z = 0
		}
		if !g.Type.HasM() {
			p.M = NoData
		}
		c.Points[i] = p
	}
	c.Box = c.Bounds()
	return &c
}

func TestGeometryRoundTrip(t *testing.T) {
	for i, g := range testGeometries() {
		buf, err := EncodeGeometry(i, g)
		require.NoError(t, err, "%v", g.Type)

		index, got, err := DecodeGeometry(buf)
		require.NoError(t, err, "%v", g.Type)
		require.Equal(t, i, index)
		require.Equal(t, canonical(g), got, "%v", g.Type)

		again, err := EncodeGeometry(index, got)
		require.NoError(t, err)
		require.Equal(t, buf, again, "%v", g.Type)
	}
}

func TestGeometryRecordHeader(t *testing.T) {
	g := NewGeometry(Point, []Vertex{{X: 1, Y: 2}})
	buf, err := EncodeGeometry(6, g)
	require.NoError(t, err)
	require.Len(t, buf, 8+20)
	require.Equal(t, uint32(7), binary.BigEndian.Uint32(buf[0:]))
	require.Equal(t, uint32(10), binary.BigEndian.Uint32(buf[4:]))
	require.Equal(t, uint32(Point), binary.LittleEndian.Uint32(buf[8:]))
}

func TestGeometryBoxIsRecomputed(t *testing.T) {
	g := NewGeometry(PolyLine, []Vertex{{X: 0, Y: 0}, {X: 3, Y: 4}})
	g.Box = Box{MinX: -100, MaxX: 100}

	buf, err := EncodeGeometry(0, g)
	require.NoError(t, err)
	_, got, err := DecodeGeometry(buf)
	require.NoError(t, err)
	require.Equal(t, Box{MaxX: 3, MaxY: 4}, got.Box)
}

func TestGeometryOptionalM(t *testing.T) {
	g := NewGeometry(PolyLineZ, withZM([]Vertex{{X: 0, Y: 0}, {X: 1, Y: 1}}, 5, 0))
	buf, err := EncodeGeometry(0, g)
	require.NoError(t, err)

	// Drop the M range and values, as writers without measures do.
	trimmed := append([]byte(nil), buf[:len(buf)-16-2*8]...)
	binary.BigEndian.PutUint32(trimmed[4:], uint32((len(trimmed)-8)/2))

	_, got, err := DecodeGeometry(trimmed)
	require.NoError(t, err)
	require.Len(t, got.Points, 2)
	require.Equal(t, 6.0, got.Points[1].Z)
	require.True(t, isNoData(got.Points[0].M))
	require.Equal(t, 0.0, got.Box.MinM)
}

func TestDecodeGeometryErrors(t *testing.T) {
	good, err := EncodeGeometry(0, NewGeometry(Polygon, square(0, 0, 1, true)))
	require.NoError(t, err)

	_, _, err = DecodeGeometry(good[:len(good)-1])
	require.True(t, errors.Is(err, ErrTruncatedRecord))

	_, _, err = DecodeGeometry(good[:4])
	require.True(t, errors.Is(err, ErrTruncatedRecord))

	unknown := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(unknown[8:], 7)
	_, _, err = DecodeGeometry(unknown)
	require.True(t, errors.Is(err, ErrUnknownShapeType))

	// Declared length fits, but the point count runs past it.
	lying := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(lying[8+4+32+4:], 1000)
	_, _, err = DecodeGeometry(lying)
	require.True(t, errors.Is(err, ErrTruncatedRecord))
}

func TestEncodeGeometryErrors(t *testing.T) {
	_, err := EncodeGeometry(0, &Geometry{Type: ShapeType(2)})
	require.True(t, errors.Is(err, ErrUnknownShapeType))

	_, err = EncodeGeometry(0, &Geometry{Type: Point})
	require.Error(t, err)
}

func TestGeometryParts(t *testing.T) {
	g := NewGeometry(PolyLine, []Vertex{{X: 0}, {X: 1}}, []Vertex{{X: 2}, {X: 3}, {X: 4}})
	require.Equal(t, []int32{0, 2}, g.Parts)
	require.Equal(t, 2, g.NumParts())
	require.Len(t, g.Part(1), 3)

	mp := NewGeometry(MultiPoint, []Vertex{{X: 0}}, []Vertex{{X: 1}})
	require.Nil(t, mp.Parts)
	require.Equal(t, 1, mp.NumParts())
	require.Len(t, mp.Part(0), 2)

	require.Equal(t, 0, NewGeometry(Null).NumParts())
}

func TestShapeTypeCompatible(t *testing.T) {
	require.True(t, Null.Compatible(Polygon))
	require.True(t, Polygon.Compatible(Polygon))
	require.False(t, PolygonZ.Compatible(Polygon))
	require.Equal(t, "POLYGONZ", PolygonZ.String())
	require.Equal(t, "ShapeType(2)", ShapeType(2).String())
}
