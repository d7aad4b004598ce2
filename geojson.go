package shp

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func (g *Geometry) layout() geom.Layout {
	if g.Type.HasZ() {
		return geom.XYZ
	}
	return geom.XY
}

func (g *Geometry) coords(pts []Vertex) []geom.Coord {
	layout := g.layout()
	out := make([]geom.Coord, len(pts))
	for i, p := range pts {
		if layout == geom.XYZ {
			out[i] = geom.Coord{p.X, p.Y, p.Z}
		} else {
			out[i] = geom.Coord{p.X, p.Y}
		}
	}
	return out
}

// Geom converts g to a go-geom geometry. Null shapes yield nil and
// measures are dropped. Polygon rings are regrouped into polygons by
// winding order, with outer rings turned counter-clockwise.
func (g *Geometry) Geom() (geom.T, error) {
	layout := g.layout()
	switch g.Type.base() {
	case Null:
		return nil, nil
	case Point:
		if len(g.Points) == 0 {
			return nil, nil
		}
		return geom.NewPoint(layout).SetCoords(g.coords(g.Points)[0])
	case MultiPoint:
		return geom.NewMultiPoint(layout).SetCoords(g.coords(g.Points))
	case PolyLine:
		lines := make([][]geom.Coord, g.NumParts())
		for i := range lines {
			lines[i] = g.coords(g.Part(i))
		}
		if len(lines) == 1 {
			return geom.NewLineString(layout).SetCoords(lines[0])
		}
		return geom.NewMultiLineString(layout).SetCoords(lines)
	case Polygon:
		return polygons(layout, g.ringsByWinding())
	case MultiPatch:
		return polygons(layout, g.patchRings())
	}
	return nil, errors.Wrapf(ErrUnknownShapeType, "tag %d", int32(g.Type))
}

func polygons(layout geom.Layout, polys [][][]geom.Coord) (geom.T, error) {
	if len(polys) == 1 {
		return geom.NewPolygon(layout).SetCoords(polys[0])
	}
	return geom.NewMultiPolygon(layout).SetCoords(polys)
}

// ringsByWinding starts a new polygon at every clockwise ring and
// attaches counter-clockwise rings to the polygon before them as holes.
func (g *Geometry) ringsByWinding() [][][]geom.Coord {
	var polys [][][]geom.Coord
	for i := 0; i < g.NumParts(); i++ {
		part := g.Part(i)
		ring := g.coords(part)
		clockwise := signedArea(part) <= 0
		if clockwise || len(polys) == 0 {
			if clockwise {
				reverse(ring)
			}
			polys = append(polys, [][]geom.Coord{ring})
			continue
		}
		reverse(ring)
		last := len(polys) - 1
		polys[last] = append(polys[last], ring)
	}
	return polys
}

// patchRings turns multipatch parts into polygons; triangle strips and
// fans become one triangle each.
func (g *Geometry) patchRings() [][][]geom.Coord {
	var polys [][][]geom.Coord
	triangle := func(a, b, c geom.Coord) {
		polys = append(polys, [][]geom.Coord{{a, b, c, a}})
	}
	for i := 0; i < g.NumParts(); i++ {
		pts := g.coords(g.Part(i))
		var pt PartType
		if i < len(g.PartTypes) {
			pt = g.PartTypes[i]
		}
		switch pt {
		case TriangleStrip:
			for j := 2; j < len(pts); j++ {
				triangle(pts[j-2], pts[j-1], pts[j])
			}
		case TriangleFan:
			for j := 2; j < len(pts); j++ {
				triangle(pts[0], pts[j-1], pts[j])
			}
		case InnerRing:
			if len(polys) > 0 {
				last := len(polys) - 1
				polys[last] = append(polys[last], pts)
				continue
			}
			fallthrough
		default:
			polys = append(polys, [][]geom.Coord{pts})
		}
	}
	return polys
}

// signedArea is positive for counter-clockwise rings.
func signedArea(ring []Vertex) float64 {
	var a float64
	for i := 0; i+1 < len(ring); i++ {
		a += ring[i].X*ring[i+1].Y - ring[i+1].X*ring[i].Y
	}
	return a / 2
}

func reverse(c []geom.Coord) {
	for i, j := 0, len(c)-1; i < j; i, j = i+1, j-1 {
		c[i], c[j] = c[j], c[i]
	}
}

// GeoJSONWriter streams records as a GeoJSON FeatureCollection.
type GeoJSONWriter struct {
	w     io.Writer
	count int
}

func NewGeoJSONWriter(w io.Writer) *GeoJSONWriter {
	return &GeoJSONWriter{w: w}
}

// Write appends one feature. The record index becomes the feature id.
func (gw *GeoJSONWriter) Write(index int, g *Geometry, rec *Record) error {
	f := &geojson.Feature{ID: strconv.Itoa(index), Properties: map[string]interface{}{}}
	if rec != nil {
		f.Properties = rec.Map()
	}
	if g != nil {
		t, err := g.Geom()
		if err != nil {
			return errors.Wrapf(err, "record %d", index)
		}
		f.Geometry = t
	}
	data, err := f.MarshalJSON()
	if err != nil {
		return errors.Wrapf(err, "record %d", index)
	}

	prefix := ",\n"
	if gw.count == 0 {
		prefix = `{"type":"FeatureCollection","features":[` + "\n"
	}
	if _, err := io.WriteString(gw.w, prefix); err != nil {
		return err
	}
	if _, err := gw.w.Write(data); err != nil {
		return err
	}
	gw.count++
	return nil
}

// Close terminates the collection. It does not close the underlying writer.
func (gw *GeoJSONWriter) Close() error {
	tail := "\n]}\n"
	if gw.count == 0 {
		tail = `{"type":"FeatureCollection","features":[]}` + "\n"
	}
	_, err := io.WriteString(gw.w, tail)
	return err
}
