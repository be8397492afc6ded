// Package registration implements the image registration core: homography
// estimation from control point pairs, perspective resampling onto a
// reference canvas, the mutable registration session, and the batch
// controller that replays one session's transform over many files.
package registration

import (
	"errors"
	"fmt"

	"image-registrator/pkg/geometry"
)

// MinControlPoints is the smallest pair count for which a homography can be
// estimated.
const MinControlPoints = 4

// Sentinel errors for state and input failures. Wrapped errors carry the
// specific detail; discriminate with errors.Is.
var (
	ErrTooFewPoints      = errors.New("at least 4 control point pairs required")
	ErrNoReference       = errors.New("no reference image set")
	ErrNoMoving          = errors.New("no moving image set")
	ErrNoTransform       = errors.New("no transform computed, apply the session first")
	ErrSingularTransform = errors.New("transform is not invertible")
	ErrDestinationExists = errors.New("destination files already exist")
)

// DegenerateGeometryError reports control point configurations that cannot
// determine a homography: collinear triples, coincident points, or a system
// that is numerically rank-deficient.
type DegenerateGeometryError struct {
	Side    geometry.PointSide // which point set is degenerate
	Indices []int              // 1-based pair indices involved, if known
	Reason  string
}

func (e *DegenerateGeometryError) Error() string {
	if len(e.Indices) > 0 {
		return fmt.Sprintf("degenerate geometry in %s points (pairs %v): %s",
			e.Side, e.Indices, e.Reason)
	}
	return fmt.Sprintf("degenerate geometry: %s", e.Reason)
}

// DimensionMismatchError reports an image whose dimensions differ from what
// the operation requires.
type DimensionMismatchError struct {
	Path string // source file, if the image came from one
	Got  geometry.Size
	Want geometry.Size
}

func (e *DimensionMismatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: dimensions %dx%d do not match required %dx%d",
			e.Path, e.Got.Width, e.Got.Height, e.Want.Width, e.Want.Height)
	}
	return fmt.Sprintf("dimensions %dx%d do not match required %dx%d",
		e.Got.Width, e.Got.Height, e.Want.Width, e.Want.Height)
}
