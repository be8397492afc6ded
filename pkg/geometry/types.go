// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Size represents pixel dimensions of a raster canvas.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height int) Size {
	return Size{Width: width, Height: height}
}

// IsZero returns true if either dimension is zero or negative.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// PointSide identifies which half of a control point pair a coordinate
// belongs to.
type PointSide int

const (
	ReferencePoint PointSide = iota
	MovingPoint
)

func (s PointSide) String() string {
	switch s {
	case ReferencePoint:
		return "reference"
	case MovingPoint:
		return "moving"
	default:
		return "unknown"
	}
}

// ControlPointPair is one user-placed correspondence between a point in the
// reference image and a point in the moving image. Index is the stable 1-based
// identity used for display and CSV round-trips.
type ControlPointPair struct {
	Index     int     `json:"index"`
	Reference Point2D `json:"reference"`
	Moving    Point2D `json:"moving"`
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}

// Collinear returns true if the three points lie on a common line within a
// relative tolerance. The cross product of the two spanning vectors is
// compared against the squared extent of the triangle so the test is
// scale-invariant.
func Collinear(a, b, c Point2D) bool {
	abx, aby := b.X-a.X, b.Y-a.Y
	acx, acy := c.X-a.X, c.Y-a.Y
	cross := abx*acy - aby*acx

	extent := math.Max(math.Max(math.Abs(abx), math.Abs(aby)),
		math.Max(math.Abs(acx), math.Abs(acy)))
	if extent == 0 {
		return true // all three points coincide
	}
	return math.Abs(cross) <= 1e-9*extent*extent
}
