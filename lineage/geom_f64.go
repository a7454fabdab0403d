package lineage

import (
	"math"
)

// Point is a centroid in pixel coordinates: X is the column, Y is the row.
type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

// Range is an inclusive [Low, High] interval.
type Range struct {
	Low  float64
	High float64
}

func NewRange(low, high float64) Range {
	return Range{
		Low:  low,
		High: high,
	}
}

// Contains reports whether Low <= v <= High. NaN is never contained.
func (r Range) Contains(v float64) bool {
	return v >= r.Low && v <= r.High
}

// Valid reports whether bounds are ordered. Infinite bounds are allowed, so
// (-Inf, +Inf) disables a gate; NaN bounds are not.
func (r Range) Valid() bool {
	if math.IsNaN(r.Low) || math.IsNaN(r.High) {
		return false
	}
	return r.Low <= r.High
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// searchBox is the axis-aligned square of half-size radius around the point
func searchBox(p Point, radius float64) (minX, minY, maxX, maxY float64) {
	return p.X - radius, p.Y - radius, p.X + radius, p.Y + radius
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}
