package shp

import "strconv"

// ShapeType is the geometry tag declared by a shapefile and by each of its records.
type ShapeType int32

const (
	Null        ShapeType = 0
	Point       ShapeType = 1
	PolyLine    ShapeType = 3
	Polygon     ShapeType = 5
	MultiPoint  ShapeType = 8
	PointZ      ShapeType = 11
	PolyLineZ   ShapeType = 13
	PolygonZ    ShapeType = 15
	MultiPointZ ShapeType = 18
	PointM      ShapeType = 21
	PolyLineM   ShapeType = 23
	PolygonM    ShapeType = 25
	MultiPointM ShapeType = 28
	MultiPatch  ShapeType = 31
)

func (t ShapeType) String() string {
	switch t {
	case Null:
		return "NULL"
	case Point:
		return "POINT"
	case PolyLine:
		return "POLYLINE"
	case Polygon:
		return "POLYGON"
	case MultiPoint:
		return "MULTIPOINT"
	case PointZ:
		return "POINTZ"
	case PolyLineZ:
		return "POLYLINEZ"
	case PolygonZ:
		return "POLYGONZ"
	case MultiPointZ:
		return "MULTIPOINTZ"
	case PointM:
		return "POINTM"
	case PolyLineM:
		return "POLYLINEM"
	case PolygonM:
		return "POLYGONM"
	case MultiPointM:
		return "MULTIPOINTM"
	case MultiPatch:
		return "MULTIPATCH"
	}
	return "ShapeType(" + strconv.Itoa(int(t)) + ")"
}

func (t ShapeType) valid() bool {
	switch t {
	case Null, Point, PolyLine, Polygon, MultiPoint,
		PointZ, PolyLineZ, PolygonZ, MultiPointZ,
		PointM, PolyLineM, PolygonM, MultiPointM, MultiPatch:
		return true
	}
	return false
}

// HasZ reports whether records of this type carry Z (and M) values.
func (t ShapeType) HasZ() bool {
	switch t {
	case PointZ, PolyLineZ, PolygonZ, MultiPointZ, MultiPatch:
		return true
	}
	return false
}

// HasM reports whether records of this type carry M values.
func (t ShapeType) HasM() bool {
	switch t {
	case PointM, PolyLineM, PolygonM, MultiPointM:
		return true
	}
	return t.HasZ()
}

// Compatible reports whether a record of type t may appear in a file of
// type file. Null records fit every file.
func (t ShapeType) Compatible(file ShapeType) bool {
	return t == Null || t == file
}

// base strips the Z/M dimension: PolygonZ and PolygonM both yield Polygon.
func (t ShapeType) base() ShapeType {
	switch t {
	case PointZ, PointM:
		return Point
	case PolyLineZ, PolyLineM:
		return PolyLine
	case PolygonZ, PolygonM:
		return Polygon
	case MultiPointZ, MultiPointM:
		return MultiPoint
	}
	return t
}
