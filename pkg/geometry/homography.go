package geometry

import (
	"fmt"
	"math"
)

// Homography represents a 3x3 projective transformation matrix in row-major
// order. A normalized homography has its bottom-right element equal to 1,
// leaving 8 degrees of freedom:
//
//	[h0 h1 h2]
//	[h3 h4 h5]
//	[h6 h7 h8]
type Homography [9]float64

// IdentityHomography returns the identity transform.
func IdentityHomography() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Apply maps a point through the homography, performing the homogeneous
// divide. Points on the line at infinity (w == 0) map to +Inf coordinates.
func (h Homography) Apply(p Point2D) Point2D {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return Point2D{X: math.Inf(1), Y: math.Inf(1)}
	}
	return Point2D{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// Mul returns the composition h*other. Applying the result is equivalent to
// applying other first, then h.
func (h Homography) Mul(other Homography) Homography {
	var out Homography
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += h[row*3+k] * other[k*3+col]
			}
			out[row*3+col] = sum
		}
	}
	return out
}

// Det returns the determinant of the matrix.
func (h Homography) Det() float64 {
	return h[0]*(h[4]*h[8]-h[5]*h[7]) -
		h[1]*(h[3]*h[8]-h[5]*h[6]) +
		h[2]*(h[3]*h[7]-h[4]*h[6])
}

// Inverse returns the inverse homography, if it exists. The second return
// value is false when the matrix is singular within tolerance.
func (h Homography) Inverse() (Homography, bool) {
	det := h.Det()
	if math.Abs(det) < 1e-12 {
		return Homography{}, false
	}

	invDet := 1.0 / det
	inv := Homography{
		(h[4]*h[8] - h[5]*h[7]) * invDet,
		(h[2]*h[7] - h[1]*h[8]) * invDet,
		(h[1]*h[5] - h[2]*h[4]) * invDet,
		(h[5]*h[6] - h[3]*h[8]) * invDet,
		(h[0]*h[8] - h[2]*h[6]) * invDet,
		(h[2]*h[3] - h[0]*h[5]) * invDet,
		(h[3]*h[7] - h[4]*h[6]) * invDet,
		(h[1]*h[6] - h[0]*h[7]) * invDet,
		(h[0]*h[4] - h[1]*h[3]) * invDet,
	}
	return inv.Normalized(), true
}

// Normalized returns the homography scaled so its bottom-right element is 1.
// A homography with h[8] == 0 is returned unchanged.
func (h Homography) Normalized() Homography {
	if h[8] == 0 || h[8] == 1 {
		return h
	}
	var out Homography
	for i := range h {
		out[i] = h[i] / h[8]
	}
	return out
}

// IsAffine returns true if the perspective row is (0, 0, 1) within tolerance,
// meaning the transform preserves parallel lines.
func (h Homography) IsAffine() bool {
	return math.Abs(h[6]) < 1e-12 && math.Abs(h[7]) < 1e-12 &&
		math.Abs(h[8]-1) < 1e-12
}

func (h Homography) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g; %g %g %g]",
		h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], h[8])
}
