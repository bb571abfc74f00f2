// Package geometry provides the planar measurements the partition engine
// needs from tract polygons: area, centroid, contiguity keys and the length
// of the boundary two polygons share.
//
// All functions assume projected coordinates in meters (for example an
// equal-area CRS); no reprojection happens here.
//
// Complexity:
//
//   - Area, Centroid:         O(V) where V is the number of polygon vertices.
//   - VertexKeys, SegmentKeys: O(V).
//   - SharedBoundaryLength:   O(Sa·Sb') where Sb' is the number of segments of b
//     whose bounds meet the padded bound of a.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultTolerance is the distance (in coordinate units) under which two
// segments are considered collinear when measuring shared boundaries.
const DefaultTolerance = 1e-6

// Area returns the planar area of mp. Holes are subtracted.
func Area(mp orb.MultiPolygon) float64 {
	return math.Abs(planar.Area(mp))
}

// Centroid returns the area-weighted centroid of mp.
func Centroid(mp orb.MultiPolygon) orb.Point {
	c, _ := planar.CentroidArea(mp)
	return c
}

// Snap quantizes p to a grid of size q. A non-positive q returns p unchanged.
func Snap(p orb.Point, q float64) orb.Point {
	if q <= 0 {
		return p
	}
	return orb.Point{math.Round(p[0]/q) * q, math.Round(p[1]/q) * q}
}

// Segment is an undirected boundary segment with normalized endpoint order,
// so that the same edge traversed by two neighboring rings yields one key.
type Segment [2]orb.Point

// NewSegment orders a and b lexicographically.
func NewSegment(a, b orb.Point) Segment {
	if b[0] < a[0] || (b[0] == a[0] && b[1] < a[1]) {
		a, b = b, a
	}
	return Segment{a, b}
}

// ForEachSegment calls fn for every ring segment of mp, holes included.
// Zero-length segments are skipped.
func ForEachSegment(mp orb.MultiPolygon, fn func(a, b orb.Point)) {
	for _, poly := range mp {
		for _, ring := range poly {
			for k := 1; k < len(ring); k++ {
				if ring[k-1] == ring[k] {
					continue
				}
				fn(ring[k-1], ring[k])
			}
		}
	}
}

// VertexKeys returns the distinct (snapped) boundary vertices of mp.
func VertexKeys(mp orb.MultiPolygon, snap float64) []orb.Point {
	seen := make(map[orb.Point]struct{})
	var out []orb.Point
	for _, poly := range mp {
		for _, ring := range poly {
			for _, p := range ring {
				k := Snap(p, snap)
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	return out
}

// SegmentKeys returns the distinct (snapped) boundary segments of mp.
func SegmentKeys(mp orb.MultiPolygon, snap float64) []Segment {
	seen := make(map[Segment]struct{})
	var out []Segment
	ForEachSegment(mp, func(a, b orb.Point) {
		a, b = Snap(a, snap), Snap(b, snap)
		if a == b {
			return
		}
		s := NewSegment(a, b)
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	})
	return out
}

// SharedBoundaryLength returns the length of the intersection of the
// boundaries of a and b: the summed length of collinear overlaps between
// their ring segments. Polygons that only touch at a point share zero length.
func SharedBoundaryLength(a, b orb.MultiPolygon, tol float64) float64 {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	bb := b.Bound().Pad(tol)
	if !a.Bound().Pad(tol).Intersects(bb) {
		return 0
	}

	var total float64
	ForEachSegment(a, func(p1, p2 orb.Point) {
		sb := orb.Bound{Min: p1, Max: p1}.Extend(p2).Pad(tol)
		if !sb.Intersects(bb) {
			return
		}
		ForEachSegment(b, func(q1, q2 orb.Point) {
			total += collinearOverlap(p1, p2, q1, q2, tol)
		})
	})
	return total
}

// collinearOverlap returns the length of the overlap of segments p1p2 and
// q1q2 when both endpoints of q lie within tol of the line through p.
func collinearOverlap(p1, p2, q1, q2 orb.Point, tol float64) float64 {
	dx, dy := p2[0]-p1[0], p2[1]-p1[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return 0
	}
	// perpendicular distances of q1, q2 from the line p1p2
	if math.Abs(dx*(q1[1]-p1[1])-dy*(q1[0]-p1[0]))/l > tol {
		return 0
	}
	if math.Abs(dx*(q2[1]-p1[1])-dy*(q2[0]-p1[0]))/l > tol {
		return 0
	}
	t1 := (dx*(q1[0]-p1[0]) + dy*(q1[1]-p1[1])) / l
	t2 := (dx*(q2[0]-p1[0]) + dy*(q2[1]-p1[1])) / l
	lo, hi := math.Min(t1, t2), math.Max(t1, t2)
	overlap := math.Min(l, hi) - math.Max(0, lo)
	if overlap <= tol {
		return 0
	}
	return overlap
}
