// Package geometry holds the N-dimensional points and boxes the planner works with.
package geometry

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Point is a configuration: one coordinate per dimension of the search space.
type Point []float64

// Dim returns the number of coordinates.
func (p Point) Dim() int {
	return len(p)
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	return floats.Distance(p, other, 2)
}

// Equal reports exact coordinate equality.
func (p Point) Equal(other Point) bool {
	return len(p) == len(other) && floats.Equal(p, other)
}

// Clone returns a copy that shares no memory with p.
func (p Point) Clone() Point {
	out := make(Point, len(p))
	copy(out, p)
	return out
}

// Steer returns the point at exactly dist along the ray from `from` towards `toward`.
// The result is not clamped to the segment, so dist > |toward-from| overshoots.
// Coincident points have no direction and yield a copy of from.
func Steer(from, toward Point, dist float64) Point {
	diff := floats.SubTo(make([]float64, len(toward)), toward, from)
	norm := floats.Norm(diff, 2)
	if norm == 0 {
		return from.Clone()
	}
	return floats.AddScaledTo(make([]float64, len(from)), from, dist/norm, diff)
}

// Box is an axis-aligned hyperrectangle given by its min and max corners.
type Box struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// ErrOddLength is returned when a flat box slice can't be split into two corners.
var ErrOddLength = errors.New("box slice must hold min corner followed by max corner")

// BoxFromSlice splits D min coordinates followed by D max coordinates into a Box.
func BoxFromSlice(s []float64) (Box, error) {
	if len(s) == 0 || len(s)%2 != 0 {
		return Box{}, errors.Wrapf(ErrOddLength, "got %d values", len(s))
	}
	d := len(s) / 2
	return Box{Min: Point(s[:d]).Clone(), Max: Point(s[d:]).Clone()}, nil
}

// Slice is the inverse of BoxFromSlice.
func (b Box) Slice() []float64 {
	out := make([]float64, 0, len(b.Min)+len(b.Max))
	out = append(out, b.Min...)
	return append(out, b.Max...)
}

// Dim returns the dimensionality of the box, or -1 if the corners disagree.
func (b Box) Dim() int {
	if len(b.Min) != len(b.Max) {
		return -1
	}
	return len(b.Min)
}

// Lengths returns the edge length along every axis.
func (b Box) Lengths() []float64 {
	return floats.SubTo(make([]float64, len(b.Max)), b.Max, b.Min)
}

// Contains reports whether p lies in the closed box.
func (b Box) Contains(p Point) bool {
	for i := range p {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	c := make(Point, len(b.Min))
	for i := range c {
		c[i] = (b.Min[i] + b.Max[i]) / 2
	}
	return c
}

// PathLength sums the Euclidean length of consecutive path segments.
func PathLength(path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += path[i-1].Distance(path[i])
	}
	return total
}

// AlmostEqual compares two points coordinate-wise within tol.
func AlmostEqual(a, b Point, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
