package geo

import "math"

// Point is a coordinate pair in whatever CRS the surrounding polygon uses:
// X/Y are lon/lat in degrees for EPSG:4269/4326, easting/northing in US-feet
// for EPSG:2263.
type Point struct {
	X float64
	Y float64
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Contains reports whether p lies inside or on the box.
func (b BBox) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Polygon is a possibly multi-part polygon. Rings follow shapefile
// conventions: closed (first == last), outer rings and holes mixed in one
// slice, resolved by even-odd parity during containment tests.
type Polygon struct {
	Rings [][]Point
	BBox  BBox
}

// NewPolygon builds a Polygon and computes its bounding box.
func NewPolygon(rings [][]Point) Polygon {
	const big = 1e308
	b := BBox{MinX: big, MinY: big, MaxX: -big, MaxY: -big}
	for _, ring := range rings {
		for _, p := range ring {
			if p.X < b.MinX {
				b.MinX = p.X
			}
			if p.X > b.MaxX {
				b.MaxX = p.X
			}
			if p.Y < b.MinY {
				b.MinY = p.Y
			}
			if p.Y > b.MaxY {
				b.MaxY = p.Y
			}
		}
	}
	return Polygon{Rings: rings, BBox: b}
}

// Transform applies f to every vertex and returns a new polygon with a
// recomputed bounding box. The receiver is left untouched.
func (pg Polygon) Transform(f func(Point) Point) Polygon {
	rings := make([][]Point, len(pg.Rings))
	for i, ring := range pg.Rings {
		out := make([]Point, len(ring))
		for j, p := range ring {
			out[j] = f(p)
		}
		rings[i] = out
	}
	return NewPolygon(rings)
}

// boundaryEps is the tolerance, in working-CRS units, under which a vertex
// counts as lying on a ring. Identical geometries produce exact matches, so
// this only has to absorb float noise.
const boundaryEps = 1e-6

// ContainsPoint tests p against the polygon using even-odd ray casting over
// all rings, so holes subtract naturally. Points on a ring count as
// contained.
func (pg Polygon) ContainsPoint(p Point) bool {
	if !pg.BBox.Contains(p) {
		return false
	}
	crossings := 0
	for _, ring := range pg.Rings {
		if onRing(p, ring) {
			return true
		}
		j := len(ring) - 1
		for i := 0; i < len(ring); i++ {
			xi, yi := ring[i].X, ring[i].Y
			xj, yj := ring[j].X, ring[j].Y
			if (yi > p.Y) != (yj > p.Y) && p.X < (xj-xi)*(p.Y-yi)/(yj-yi)+xi {
				crossings++
			}
			j = i
		}
	}
	return crossings%2 == 1
}

// Within reports whether fine is fully contained in unit: every vertex of
// every ring of fine must be inside or on the boundary of unit. Both
// polygons must be in the same CRS. A quick bbox rejection runs first.
func Within(fine, unit Polygon) bool {
	// The fine bbox may poke out of the unit bbox by the boundary tolerance
	// only (shared borders land exactly on the unit ring).
	if !bboxNearlyCovered(unit.BBox, fine.BBox) {
		return false
	}
	for _, ring := range fine.Rings {
		for _, p := range ring {
			if !unit.ContainsPoint(p) {
				return false
			}
		}
	}
	return true
}

func bboxNearlyCovered(outer, inner BBox) bool {
	return inner.MinX >= outer.MinX-boundaryEps && inner.MaxX <= outer.MaxX+boundaryEps &&
		inner.MinY >= outer.MinY-boundaryEps && inner.MaxY <= outer.MaxY+boundaryEps
}

// onRing reports whether p lies on any segment of the ring, within
// boundaryEps.
func onRing(p Point, ring []Point) bool {
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		if distToSegment(p, ring[j], ring[i]) <= boundaryEps {
			return true
		}
		j = i
	}
	return false
}

func distToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	cx, cy := a.X+t*dx, a.Y+t*dy
	ex, ey := p.X-cx, p.Y-cy
	return math.Sqrt(ex*ex + ey*ey)
}
