package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-registrator/internal/ledger"
	"image-registrator/internal/raster"
	"image-registrator/pkg/geometry"
)

func loadedSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	s.SetReference(gradient(100, 80, raster.RGB), "ref.png")
	require.NoError(t, s.SetMoving(gradient(50, 40, raster.RGB), "mov.png"))
	return s
}

func TestSetMovingRequiresReference(t *testing.T) {
	s := NewSession()
	err := s.SetMoving(gradient(10, 10, raster.RGB), "mov.png")
	assert.ErrorIs(t, err, ErrNoReference)
}

func TestDefaultPointsAtFractionalOffsets(t *testing.T) {
	s := loadedSession(t)

	pairs := s.Points()
	require.Len(t, pairs, 4)
	assert.Equal(t, geometry.Point2D{X: 30, Y: 24}, pairs[0].Reference)
	assert.Equal(t, geometry.Point2D{X: 15, Y: 12}, pairs[0].Moving)
	assert.Equal(t, geometry.Point2D{X: 70, Y: 56}, pairs[3].Reference)
	assert.Equal(t, geometry.Point2D{X: 35, Y: 28}, pairs[3].Moving)
	for i, pair := range pairs {
		assert.Equal(t, i+1, pair.Index)
	}
}

func TestApplyWithoutImages(t *testing.T) {
	s := NewSession()
	_, err := s.Apply()
	assert.ErrorIs(t, err, ErrNoReference)

	s.SetReference(gradient(10, 10, raster.RGB), "ref.png")
	_, err = s.Apply()
	assert.ErrorIs(t, err, ErrNoMoving)
}

func TestApplyCachesAndIsIdempotent(t *testing.T) {
	s := loadedSession(t)

	first, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 100, Height: 80}, first.Size())

	second, err := s.Apply()
	require.NoError(t, err)
	assert.True(t, first.Equal(second))

	// The returned image is a copy, not the cache itself.
	second.Pix[0] ^= 0xff
	third, err := s.Apply()
	require.NoError(t, err)
	assert.True(t, first.Equal(third))
}

func TestRegisteredAvailableOnlyAfterApply(t *testing.T) {
	s := loadedSession(t)

	_, err := s.Registered()
	assert.ErrorIs(t, err, ErrNoTransform)

	applied, err := s.Apply()
	require.NoError(t, err)

	cached, err := s.Registered()
	require.NoError(t, err)
	assert.True(t, applied.Equal(cached))
}

func TestTransformAvailableOnlyAfterApply(t *testing.T) {
	s := loadedSession(t)

	_, err := s.Transform()
	assert.ErrorIs(t, err, ErrNoTransform)

	_, err = s.Apply()
	require.NoError(t, err)

	h, err := s.Transform()
	require.NoError(t, err)
	// Default points map proportionally, so the transform is a pure scale.
	assert.InDelta(t, 2.0, h[0], 1e-6)
	assert.InDelta(t, 2.0, h[4], 1e-6)
}

func TestUpdatePointInvalidatesCache(t *testing.T) {
	s := loadedSession(t)
	_, err := s.Apply()
	require.NoError(t, err)

	require.NoError(t, s.UpdatePoint(2, geometry.ReferencePoint, geometry.Point2D{X: 71, Y: 25}))

	_, err = s.Transform()
	assert.ErrorIs(t, err, ErrNoTransform)
}

func TestUpdatePointRangeAndSideChecks(t *testing.T) {
	s := loadedSession(t)

	assert.Error(t, s.UpdatePoint(0, geometry.ReferencePoint, geometry.Point2D{}))
	assert.Error(t, s.UpdatePoint(5, geometry.ReferencePoint, geometry.Point2D{}))
	assert.Error(t, s.UpdatePoint(1, geometry.PointSide(99), geometry.Point2D{}))
}

func TestAddAndRemovePairRenumbers(t *testing.T) {
	s := loadedSession(t)

	idx := s.AddPair(geometry.Point2D{X: 50, Y: 40}, geometry.Point2D{X: 25, Y: 20})
	assert.Equal(t, 5, idx)

	require.NoError(t, s.RemovePair(2))
	pairs := s.Points()
	require.Len(t, pairs, 4)
	for i, pair := range pairs {
		assert.Equal(t, i+1, pair.Index)
	}
}

func TestApplyRejectsTooFewPairs(t *testing.T) {
	s := loadedSession(t)
	require.NoError(t, s.RemovePair(4))

	_, err := s.Apply()
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestExportImportLedgerRoundTrip(t *testing.T) {
	s := loadedSession(t)

	entry, err := s.ExportLedgerEntry()
	require.NoError(t, err)
	assert.Equal(t, "ref.png", entry.ReferenceName)
	assert.Equal(t, []string{"mov.png"}, entry.MovingNames)
	assert.Equal(t, geometry.Size{Width: 100, Height: 80}, entry.Canvas)

	warnings, err := s.ImportLedgerEntry(entry)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, entry.Pairs, s.Points())
}

func TestImportLedgerMismatchesWarnButSucceed(t *testing.T) {
	s := loadedSession(t)

	entry := ledger.Entry{
		ReferenceName: "other-ref.png",
		MovingNames:   []string{"other-mov.png"},
		Canvas:        geometry.Size{Width: 640, Height: 480},
		Pairs:         s.Points(),
	}

	warnings, err := s.ImportLedgerEntry(entry)
	require.NoError(t, err)
	assert.Len(t, warnings, 3)
}

func TestImportLedgerRejectsTooFewPairs(t *testing.T) {
	s := loadedSession(t)

	entry := ledger.Entry{Pairs: s.Points()[:3]}
	_, err := s.ImportLedgerEntry(entry)
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestImportLedgerInvalidatesCache(t *testing.T) {
	s := loadedSession(t)
	_, err := s.Apply()
	require.NoError(t, err)

	entry, err := s.ExportLedgerEntry()
	require.NoError(t, err)
	_, err = s.ImportLedgerEntry(entry)
	require.NoError(t, err)

	_, err = s.Transform()
	assert.ErrorIs(t, err, ErrNoTransform)
}

func TestSetReferenceClearsSession(t *testing.T) {
	s := loadedSession(t)
	_, err := s.Apply()
	require.NoError(t, err)

	s.SetReference(gradient(60, 60, raster.RGB), "ref2.png")

	assert.Empty(t, s.Points())
	assert.Equal(t, "", s.MovingName())
	_, err = s.MovingSize()
	assert.ErrorIs(t, err, ErrNoMoving)
	_, err = s.Transform()
	assert.ErrorIs(t, err, ErrNoTransform)
}
