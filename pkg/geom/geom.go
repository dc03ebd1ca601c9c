// Package geom provides the scalar geometry helpers shared by
// placement, pickup and proximity checks.
package geom

import "math"

// Point is a 2D map coordinate in canvas units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Within reports whether a and b are within r units of each other.
func Within(a, b Point, r float64) bool {
	return Dist(a, b) <= r
}

// Circle is a circular region, used for safe and danger zones.
type Circle struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// Contains reports whether p falls inside the circle.
func (c Circle) Contains(p Point) bool {
	return Dist(c.Center, p) <= c.Radius
}

// Rect is an axis-aligned rectangle, used for named layout zones.
type Rect struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}
