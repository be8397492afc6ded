package registration

import (
	"fmt"
	"sync"

	"image-registrator/internal/ledger"
	"image-registrator/internal/raster"
	"image-registrator/pkg/geometry"
)

// DefaultPointOffset is the fractional position of the seeded control points
// within each image's bounds: the four defaults sit at (0.3, 0.3),
// (0.7, 0.3), (0.3, 0.7) and (0.7, 0.7) of width/height.
const DefaultPointOffset = 0.3

// Session owns one registration workflow: a reference image fixing the
// output canvas, a moving image to be aligned to it, the live control point
// set, and the cached transform and registered result. All mutating methods
// take the session lock so interactive edits and a running batch can overlap
// safely.
//
// The cached transform and result are invalidated by every mutation and
// rebuilt lazily by Apply.
type Session struct {
	mu sync.RWMutex

	reference *raster.Image
	moving    *raster.Image
	refName   string
	movName   string

	pairs []geometry.ControlPointPair

	transform  *geometry.Homography
	registered *raster.Image
}

// NewSession creates an empty session. A reference image must be set before
// anything else.
func NewSession() *Session {
	return &Session{}
}

// SetReference installs a new reference image, clearing the moving image,
// the control point set and any cached transform. The reference defines the
// canvas size every output of this session must match.
func (s *Session) SetReference(img *raster.Image, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reference = img
	s.refName = name
	s.moving = nil
	s.movName = ""
	s.pairs = nil
	s.invalidateLocked()
}

// SetMoving installs the image to be registered. It fails if no reference
// exists. The control point set is reset to four deterministic defaults at
// fractional offsets of each image's own bounds.
func (s *Session) SetMoving(img *raster.Image, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reference == nil {
		return ErrNoReference
	}

	s.moving = img
	s.movName = name
	s.pairs = defaultPairs(s.reference.Size(), img.Size())
	s.invalidateLocked()
	return nil
}

// defaultPairs seeds one control point per corner region, placed at the
// same fractional position in both images.
func defaultPairs(ref, mov geometry.Size) []geometry.ControlPointPair {
	fractions := [4][2]float64{
		{DefaultPointOffset, DefaultPointOffset},
		{1 - DefaultPointOffset, DefaultPointOffset},
		{DefaultPointOffset, 1 - DefaultPointOffset},
		{1 - DefaultPointOffset, 1 - DefaultPointOffset},
	}

	pairs := make([]geometry.ControlPointPair, len(fractions))
	for i, f := range fractions {
		pairs[i] = geometry.ControlPointPair{
			Index:     i + 1,
			Reference: geometry.Point2D{X: f[0] * float64(ref.Width), Y: f[1] * float64(ref.Height)},
			Moving:    geometry.Point2D{X: f[0] * float64(mov.Width), Y: f[1] * float64(mov.Height)},
		}
	}
	return pairs
}

// UpdatePoint moves one point of one pair. The cached transform is
// invalidated; estimation does not rerun until Apply is called.
func (s *Session) UpdatePoint(pairIndex int, side geometry.PointSide, pt geometry.Point2D) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := pairIndex - 1
	if i < 0 || i >= len(s.pairs) {
		return fmt.Errorf("pair index %d out of range 1..%d", pairIndex, len(s.pairs))
	}

	switch side {
	case geometry.ReferencePoint:
		s.pairs[i].Reference = pt
	case geometry.MovingPoint:
		s.pairs[i].Moving = pt
	default:
		return fmt.Errorf("unknown point side %d", side)
	}
	s.invalidateLocked()
	return nil
}

// AddPair appends a new correspondence and returns its 1-based index.
func (s *Session) AddPair(ref, mov geometry.Point2D) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pairs = append(s.pairs, geometry.ControlPointPair{
		Index:     len(s.pairs) + 1,
		Reference: ref,
		Moving:    mov,
	})
	s.invalidateLocked()
	return len(s.pairs)
}

// RemovePair deletes the pair with the given 1-based index and renumbers the
// remainder. The minimum-count rule is enforced at Apply time, not here, so
// the collaborator can edit freely.
func (s *Session) RemovePair(pairIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := pairIndex - 1
	if i < 0 || i >= len(s.pairs) {
		return fmt.Errorf("pair index %d out of range 1..%d", pairIndex, len(s.pairs))
	}

	s.pairs = append(s.pairs[:i], s.pairs[i+1:]...)
	for j := range s.pairs {
		s.pairs[j].Index = j + 1
	}
	s.invalidateLocked()
	return nil
}

// Apply estimates the homography from the current control points and
// resamples the moving image onto the reference canvas. The transform and
// result are cached: calling Apply again without mutating the session
// returns an identical image without recomputation.
func (s *Session) Apply() (*raster.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reference == nil {
		return nil, ErrNoReference
	}
	if s.moving == nil {
		return nil, ErrNoMoving
	}

	if s.transform != nil && s.registered != nil {
		return s.registered.Clone(), nil
	}

	h, err := EstimateHomography(s.pairs)
	if err != nil {
		return nil, err
	}

	out, err := Resample(s.moving, s.reference.Size(), h)
	if err != nil {
		return nil, err
	}

	s.transform = &h
	s.registered = out
	return out.Clone(), nil
}

// Registered returns a copy of the cached result of the last successful
// Apply.
func (s *Session) Registered() (*raster.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.registered == nil {
		return nil, ErrNoTransform
	}
	return s.registered.Clone(), nil
}

// Transform returns the cached homography from the last successful Apply.
func (s *Session) Transform() (geometry.Homography, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.transform == nil {
		return geometry.Homography{}, ErrNoTransform
	}
	return *s.transform, nil
}

// CanvasSize returns the reference image dimensions.
func (s *Session) CanvasSize() (geometry.Size, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.reference == nil {
		return geometry.Size{}, ErrNoReference
	}
	return s.reference.Size(), nil
}

// MovingSize returns the moving image dimensions, which every batch source
// must match.
func (s *Session) MovingSize() (geometry.Size, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.moving == nil {
		return geometry.Size{}, ErrNoMoving
	}
	return s.moving.Size(), nil
}

// Points returns a copy of the current control point set.
func (s *Session) Points() []geometry.ControlPointPair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]geometry.ControlPointPair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// ReferenceName returns the filename hint of the reference image.
func (s *Session) ReferenceName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refName
}

// MovingName returns the filename hint of the moving image.
func (s *Session) MovingName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.movName
}

// ExportLedgerEntry serializes the session's filenames, canvas size and
// control points for CSV persistence.
func (s *Session) ExportLedgerEntry() (ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.reference == nil {
		return ledger.Entry{}, ErrNoReference
	}

	pairs := make([]geometry.ControlPointPair, len(s.pairs))
	copy(pairs, s.pairs)

	entry := ledger.Entry{
		ReferenceName: s.refName,
		Canvas:        s.reference.Size(),
		Pairs:         pairs,
	}
	if s.movName != "" {
		entry.MovingNames = []string{s.movName}
	}
	return entry, nil
}

// ImportLedgerEntry replaces the control point set from a persisted entry
// and invalidates the cached transform. Filename hints that do not match the
// currently loaded images produce warnings, never a hard failure; the
// surrounding collaborator decides what to do with them. Entries with fewer
// than four pairs are rejected.
func (s *Session) ImportLedgerEntry(entry ledger.Entry) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entry.Pairs) < MinControlPoints {
		return nil, fmt.Errorf("%w: ledger entry has %d", ErrTooFewPoints, len(entry.Pairs))
	}

	var warnings []string
	if s.refName != "" && entry.ReferenceName != "" && entry.ReferenceName != s.refName {
		warnings = append(warnings, fmt.Sprintf(
			"reference filename mismatch: session has %q, entry has %q", s.refName, entry.ReferenceName))
	}
	if s.movName != "" && len(entry.MovingNames) > 0 && !containsString(entry.MovingNames, s.movName) {
		warnings = append(warnings, fmt.Sprintf(
			"moving filename %q not listed in entry %v", s.movName, entry.MovingNames))
	}
	if s.reference != nil && !entry.Canvas.IsZero() && entry.Canvas != s.reference.Size() {
		warnings = append(warnings, fmt.Sprintf(
			"canvas size mismatch: session has %dx%d, entry has %dx%d",
			s.reference.Width, s.reference.Height, entry.Canvas.Width, entry.Canvas.Height))
	}

	pairs := make([]geometry.ControlPointPair, len(entry.Pairs))
	copy(pairs, entry.Pairs)
	for i := range pairs {
		pairs[i].Index = i + 1
	}
	s.pairs = pairs
	s.invalidateLocked()
	return warnings, nil
}

// invalidateLocked drops the cached transform and registered image. The
// caller must hold the write lock.
func (s *Session) invalidateLocked() {
	s.transform = nil
	s.registered = nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
