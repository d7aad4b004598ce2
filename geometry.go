package shp

import "math"

// NoData is written for missing measures. Readers treat any value below
// -1e38 as no data.
const NoData = -1e39

func isNoData(m float64) bool { return m < -1e38 }

// Vertex is one point of a geometry. Z and M are only meaningful for shape types that
// carry them.
type Vertex struct {
	X, Y, Z, M float64
}

// Box is an axis aligned bounding box with optional Z and M ranges.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
	MinZ, MaxZ, MinM, MaxM float64
}

// PartType tags each part of a MultiPatch.
type PartType int32

const (
	TriangleStrip PartType = iota
	TriangleFan
	OuterRing
	InnerRing
	FirstRing
	Ring
)

// Geometry is one shape record. Points holds every vertex; Parts holds
// the index in Points where each part starts. Point and MultiPoint
// variants have no parts.
type Geometry struct {
	Type      ShapeType
	Points    []Vertex
	Parts     []int32
	PartTypes []PartType
	Box       Box
}

// NewGeometry builds a geometry of type t from its parts and sets its
// box. Point types take the first vertex, MultiPoint types flatten all
// parts into one.
func NewGeometry(t ShapeType, parts ...[]Vertex) *Geometry {
	g := &Geometry{Type: t}
	switch t.base() {
	case Null:
	case Point:
		for _, p := range parts {
			if len(p) > 0 {
				g.Points = []Vertex{p[0]}
				break
			}
		}
	case MultiPoint:
		for _, p := range parts {
			g.Points = append(g.Points, p...)
		}
	default:
		for _, p := range parts {
			g.Parts = append(g.Parts, int32(len(g.Points)))
			g.Points = append(g.Points, p...)
		}
		if t == MultiPatch {
			g.PartTypes = make([]PartType, len(parts))
			for i := range g.PartTypes {
				g.PartTypes[i] = Ring
			}
		}
	}
	g.Box = g.Bounds()
	return g
}

// NumParts returns the number of parts; Point and MultiPoint geometries
// with vertices count as one part.
func (g *Geometry) NumParts() int {
	if g.hasParts() {
		return len(g.Parts)
	}
	if len(g.Points) > 0 {
		return 1
	}
	return 0
}

// Part returns the vertices of part i.
func (g *Geometry) Part(i int) []Vertex {
	if !g.hasParts() {
		return g.Points
	}
	start := int(g.Parts[i])
	end := len(g.Points)
	if i+1 < len(g.Parts) {
		end = int(g.Parts[i+1])
	}
	if start > end || end > len(g.Points) {
		return nil
	}
	return g.Points[start:end]
}

func (g *Geometry) hasParts() bool {
	switch g.Type.base() {
	case PolyLine, Polygon, MultiPatch:
		return true
	}
	return false
}

// Bounds computes the box of the geometry from its vertices. Ranges of
// dimensions the type does not carry are left zero, as are M ranges
// when no vertex has a measure.
func (g *Geometry) Bounds() Box {
	var b Box
	if len(g.Points) == 0 {
		return b
	}
	b.MinX, b.MinY = math.Inf(1), math.Inf(1)
	b.MaxX, b.MaxY = math.Inf(-1), math.Inf(-1)
	b.MinZ, b.MaxZ = math.Inf(1), math.Inf(-1)
	b.MinM, b.MaxM = math.Inf(1), math.Inf(-1)
	for _, p := range g.Points {
		b.MinX, b.MaxX = math.Min(b.MinX, p.X), math.Max(b.MaxX, p.X)
		b.MinY, b.MaxY = math.Min(b.MinY, p.Y), math.Max(b.MaxY, p.Y)
		b.MinZ, b.MaxZ = math.Min(b.MinZ, p.Z), math.Max(b.MaxZ, p.Z)
		if !isNoData(p.M) {
			b.MinM, b.MaxM = math.Min(b.MinM, p.M), math.Max(b.MaxM, p.M)
		}
	}
	if !g.Type.HasZ() {
		b.MinZ, b.MaxZ = 0, 0
	}
	if !g.Type.HasM() || math.IsInf(b.MinM, 1) {
		b.MinM, b.MaxM = 0, 0
	}
	return b
}

// hasMeasures reports whether any vertex carries a measure.
func (g *Geometry) hasMeasures() bool {
	if !g.Type.HasM() {
		return false
	}
	for _, p := range g.Points {
		if !isNoData(p.M) {
			return true
		}
	}
	return false
}

// extend grows b to cover o. The XYZ ranges of an empty b (first record)
// are taken from o as is. The M range only grows when withM is set, and
// is replaced by o's when firstM is set.
func (b Box) extend(o Box, first, withM, firstM bool) Box {
	out := o
	if !first {
		out = Box{
			MinX: math.Min(b.MinX, o.MinX), MinY: math.Min(b.MinY, o.MinY),
			MaxX: math.Max(b.MaxX, o.MaxX), MaxY: math.Max(b.MaxY, o.MaxY),
			MinZ: math.Min(b.MinZ, o.MinZ), MaxZ: math.Max(b.MaxZ, o.MaxZ),
		}
	}
	switch {
	case !withM:
		out.MinM, out.MaxM = b.MinM, b.MaxM
	case firstM:
		out.MinM, out.MaxM = o.MinM, o.MaxM
	default:
		out.MinM, out.MaxM = math.Min(b.MinM, o.MinM), math.Max(b.MaxM, o.MaxM)
	}
	return out
}
