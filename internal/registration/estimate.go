package registration

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"image-registrator/pkg/geometry"
)

// coincidentTolerance is the distance below which two control points of the
// same image are treated as the same point.
const coincidentTolerance = 1e-9

// conditionRatio is the smallest acceptable ratio between the smallest and
// largest singular value of the DLT system. Below it the system is treated
// as rank-deficient even when no exact collinearity was detected.
const conditionRatio = 1e-10

// EstimateHomography computes the homography H mapping moving points onto
// reference points in homogeneous coordinates, H * moving ≈ reference, from
// at least four control point pairs. Four pairs give the exact solution;
// more give the least-squares fit minimizing total reprojection error.
//
// The direct linear transform formulation is used: each pair contributes two
// rows to an overdetermined linear system in the 8 unknowns (the bottom-right
// element is fixed to 1), solved by SVD. The estimate is invariant to pair
// order and has no side effects.
func EstimateHomography(pairs []geometry.ControlPointPair) (geometry.Homography, error) {
	n := len(pairs)
	if n < MinControlPoints {
		return geometry.Homography{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}

	if err := checkDegenerate(pairs); err != nil {
		return geometry.Homography{}, err
	}

	// Stack two equations per correspondence:
	//   x' = (h0 x + h1 y + h2) / (h6 x + h7 y + 1)
	//   y' = (h3 x + h4 y + h5) / (h6 x + h7 y + 1)
	// rearranged into rows of A*h = b with h = (h0..h7).
	a := mat.NewDense(2*n, 8, nil)
	b := mat.NewVecDense(2*n, nil)

	for i, pair := range pairs {
		x, y := pair.Moving.X, pair.Moving.Y
		xp, yp := pair.Reference.X, pair.Reference.Y

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -xp * x, -xp * y})
		b.SetVec(2*i, xp)

		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -yp * x, -yp * y})
		b.SetVec(2*i+1, yp)
	}

	// Singular value spread tells us whether the correspondences actually
	// pin down all 8 unknowns before we commit to a solve.
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		return geometry.Homography{}, &DegenerateGeometryError{Reason: "SVD factorization failed"}
	}
	values := svd.Values(nil)
	if values[len(values)-1] < conditionRatio*values[0] {
		return geometry.Homography{}, &DegenerateGeometryError{
			Reason: "correspondence system is ill-conditioned",
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var h mat.VecDense
	if err := qr.SolveVecTo(&h, false, b); err != nil {
		return geometry.Homography{}, &DegenerateGeometryError{
			Reason: fmt.Sprintf("least-squares solve failed: %v", err),
		}
	}

	return geometry.Homography{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	}, nil
}

// ReprojectionError returns the mean Euclidean distance between each
// reference point and its transformed moving point.
func ReprojectionError(pairs []geometry.ControlPointPair, h geometry.Homography) float64 {
	if len(pairs) == 0 {
		return 0
	}
	var total float64
	for _, pair := range pairs {
		total += h.Apply(pair.Moving).Distance(pair.Reference)
	}
	return total / float64(len(pairs))
}

// checkDegenerate scans both point sets for coincident points and collinear
// triples. These configurations leave the homography underdetermined and are
// reported with the offending pair indices rather than surfacing as a
// garbage matrix downstream.
func checkDegenerate(pairs []geometry.ControlPointPair) error {
	for _, side := range []geometry.PointSide{geometry.ReferencePoint, geometry.MovingPoint} {
		points := make([]geometry.Point2D, len(pairs))
		for i, pair := range pairs {
			if side == geometry.ReferencePoint {
				points[i] = pair.Reference
			} else {
				points[i] = pair.Moving
			}
		}

		for i := 0; i < len(points); i++ {
			for j := i + 1; j < len(points); j++ {
				if points[i].Distance(points[j]) < coincidentTolerance {
					return &DegenerateGeometryError{
						Side:    side,
						Indices: []int{pairs[i].Index, pairs[j].Index},
						Reason:  "coincident control points",
					}
				}
				for k := j + 1; k < len(points); k++ {
					if geometry.Collinear(points[i], points[j], points[k]) {
						return &DegenerateGeometryError{
							Side:    side,
							Indices: []int{pairs[i].Index, pairs[j].Index, pairs[k].Index},
							Reason:  "collinear control points",
						}
					}
				}
			}
		}
	}
	return nil
}
