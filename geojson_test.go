package shp

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestGeomPolygonWithHole(t *testing.T) {
	g := NewGeometry(Polygon, square(0, 0, 10, true), square(2, 2, 2, false))
	out, err := g.Geom()
	require.NoError(t, err)

	poly, ok := out.(*geom.Polygon)
	require.True(t, ok, "%T", out)
	require.Equal(t, 2, poly.NumLinearRings())
	require.Equal(t, geom.Coord{10, 0}, poly.LinearRing(0).Coord(1))
	require.Equal(t, geom.Coord{2, 4}, poly.LinearRing(1).Coord(1))
}

func TestGeomMultiPolygon(t *testing.T) {
	g := NewGeometry(Polygon, square(0, 0, 1, true), square(5, 5, 1, true))
	out, err := g.Geom()
	require.NoError(t, err)

	mp, ok := out.(*geom.MultiPolygon)
	require.True(t, ok, "%T", out)
	require.Equal(t, 2, mp.NumPolygons())
}

func TestGeomLines(t *testing.T) {
	one := NewGeometry(PolyLineM, []Vertex{{X: 0, Y: 0, M: 1}, {X: 1, Y: 1, M: 2}})
	out, err := one.Geom()
	require.NoError(t, err)
	ls, ok := out.(*geom.LineString)
	require.True(t, ok, "%T", out)
	require.Equal(t, geom.XY, ls.Layout())

	two := NewGeometry(PolyLine, []Vertex{{X: 0}, {X: 1}}, []Vertex{{X: 2}, {X: 3}})
	out, err = two.Geom()
	require.NoError(t, err)
	mls, ok := out.(*geom.MultiLineString)
	require.True(t, ok, "%T", out)
	require.Equal(t, 2, mls.NumLineStrings())
}

func TestGeomPoints(t *testing.T) {
	out, err := NewGeometry(PointZ, []Vertex{{X: 1, Y: 2, Z: 3, M: 4}}).Geom()
	require.NoError(t, err)
	p, ok := out.(*geom.Point)
	require.True(t, ok, "%T", out)
	require.Equal(t, geom.XYZ, p.Layout())
	require.Equal(t, []float64{1, 2, 3}, p.FlatCoords())

	out, err = NewGeometry(Null).Geom()
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestGeomMultiPatchStrip(t *testing.T) {
	g := NewGeometry(MultiPatch, withZM([]Vertex{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}, 0, 0))
	g.PartTypes[0] = TriangleStrip
	out, err := g.Geom()
	require.NoError(t, err)
	mp, ok := out.(*geom.MultiPolygon)
	require.True(t, ok, "%T", out)
	require.Equal(t, 2, mp.NumPolygons())
}

type featureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		Type       string                 `json:"type"`
		ID         string                 `json:"id"`
		Geometry   *json.RawMessage       `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"features"`
}

func TestGeoJSONWriter(t *testing.T) {
	rows := fixtureRows(t)
	var buf bytes.Buffer
	gw := NewGeoJSONWriter(&buf)
	require.NoError(t, gw.Write(0, rows[0].geom, rows[0].rec))
	require.NoError(t, gw.Write(1, nil, rows[1].rec))
	require.NoError(t, gw.Close())

	var fc featureCollection
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	require.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	require.Equal(t, "Feature", first.Type)
	require.JSONEq(t, `{"type":"Point","coordinates":[-89.65,39.78]}`, string(*first.Geometry))
	require.Equal(t, "Springfield", first.Properties["NAME"])
	require.Equal(t, 30720.0, first.Properties["POP"])
	require.Equal(t, true, first.Properties["ACTIVE"])
	require.Nil(t, first.Properties["AREA"])

	require.Equal(t, "0", first.ID)
	require.Equal(t, "1", fc.Features[1].ID)
	require.Nil(t, fc.Features[1].Geometry)
}

func TestGeoJSONWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	gw := NewGeoJSONWriter(&buf)
	require.NoError(t, gw.Close())
	require.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, buf.String())
}
