package registration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-registrator/internal/imageio"
	"image-registrator/internal/raster"
	"image-registrator/pkg/geometry"
)

// writeTestPNG saves a gradient image under dir and returns its path.
func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imageio.Save(path, gradient(w, h, raster.RGB), imageio.SaveOptions{}))
	return path
}

// batchSession returns an applied session with a 30x30 canvas and 20x20
// moving frame.
func batchSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	s.SetReference(gradient(30, 30, raster.RGB), "ref.png")
	require.NoError(t, s.SetMoving(gradient(20, 20, raster.RGB), "mov.png"))
	_, err := s.Apply()
	require.NoError(t, err)
	return s
}

func TestRunBatchRegistersAllSources(t *testing.T) {
	s := batchSession(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	job := BatchJob{
		DestDir: dstDir,
		Sources: []string{
			writeTestPNG(t, srcDir, "a.png", 20, 20),
			writeTestPNG(t, srcDir, "b.png", 20, 20),
		},
	}

	var progress []int
	result, err := RunBatch(context.Background(), s, job, BatchOptions{
		Progress: func(done, total int, _ ItemOutcome) { progress = append(progress, done) },
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, []int{1, 2}, progress)
	assert.FileExists(t, filepath.Join(dstDir, "a_registered_to_ref.png"))
	assert.FileExists(t, filepath.Join(dstDir, "b_registered_to_ref.png"))
	assert.Equal(t, []string{"a_registered_to_ref.png", "b_registered_to_ref.png"}, result.Ledger.MovingNames)
	assert.Equal(t, "ref.png", result.Ledger.ReferenceName)
}

func TestRunBatchPartialFailure(t *testing.T) {
	s := batchSession(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	job := BatchJob{
		DestDir: dstDir,
		Sources: []string{
			writeTestPNG(t, srcDir, "good1.png", 20, 20),
			writeTestPNG(t, srcDir, "wrong.png", 10, 10),
			writeTestPNG(t, srcDir, "good2.png", 20, 20),
		},
	}

	result, err := RunBatch(context.Background(), s, job, BatchOptions{})
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	assert.Equal(t, 2, result.Succeeded())

	var mismatch *DimensionMismatchError
	require.ErrorAs(t, result.Items[1].Err, &mismatch)
	assert.Contains(t, mismatch.Path, "wrong.png")

	// The failed item left no output behind; the later item still ran.
	assert.NoFileExists(t, filepath.Join(dstDir, "wrong_registered_to_ref.png"))
	assert.FileExists(t, filepath.Join(dstDir, "good2_registered_to_ref.png"))
	assert.Equal(t, []string{"good1_registered_to_ref.png", "good2_registered_to_ref.png"},
		result.Ledger.MovingNames)
}

func TestRunBatchFitOversizedSource(t *testing.T) {
	s := batchSession(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	big := writeTestPNG(t, srcDir, "big.png", 40, 40)

	// Oversized sources are rejected by default.
	job := BatchJob{DestDir: dstDir, Sources: []string{big}}
	result, err := RunBatch(context.Background(), s, job, BatchOptions{})
	require.NoError(t, err)
	var mismatch *DimensionMismatchError
	require.ErrorAs(t, result.Items[0].Err, &mismatch)

	// With the opt-in they are downscaled to fit the canvas and registered.
	job.FitOversized = true
	result, err = RunBatch(context.Background(), s, job, BatchOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Succeeded())

	out, err := imageio.Load(result.Items[0].Output)
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 30, Height: 30}, out.Size())
}

func TestRunBatchFitOversizedStillChecksUndersized(t *testing.T) {
	s := batchSession(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	// Fits within the canvas but does not match the moving frame, so the
	// dimension check still applies.
	small := writeTestPNG(t, srcDir, "small.png", 10, 10)

	job := BatchJob{DestDir: dstDir, Sources: []string{small}, FitOversized: true}
	result, err := RunBatch(context.Background(), s, job, BatchOptions{})
	require.NoError(t, err)

	var mismatch *DimensionMismatchError
	require.ErrorAs(t, result.Items[0].Err, &mismatch)
}

func TestRunBatchPreflightStatFailure(t *testing.T) {
	s := batchSession(t)
	srcDir := t.TempDir()

	// A regular file where a directory is expected makes the destination
	// stat fail with something other than not-exist.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	job := BatchJob{
		DestDir: filepath.Join(blocker, "out"),
		Sources: []string{writeTestPNG(t, srcDir, "a.png", 20, 20)},
	}

	result, err := RunBatch(context.Background(), s, job, BatchOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDestinationExists)
	assert.ErrorContains(t, err, "checking destination")
	assert.Empty(t, result.Items)
}

func TestRunBatchPreflightCollision(t *testing.T) {
	s := batchSession(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	src := writeTestPNG(t, srcDir, "a.png", 20, 20)
	existing := filepath.Join(dstDir, "a_registered_to_ref.png")
	require.NoError(t, os.WriteFile(existing, []byte("occupied"), 0o644))

	job := BatchJob{DestDir: dstDir, Sources: []string{src}}

	result, err := RunBatch(context.Background(), s, job, BatchOptions{})
	assert.ErrorIs(t, err, ErrDestinationExists)
	assert.Equal(t, []string{existing}, result.Collisions)
	assert.Empty(t, result.Items)

	// Nothing was written over the existing file.
	data, readErr := os.ReadFile(existing)
	require.NoError(t, readErr)
	assert.Equal(t, "occupied", string(data))
}

func TestRunBatchOverwriteAllowsCollision(t *testing.T) {
	s := batchSession(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	src := writeTestPNG(t, srcDir, "a.png", 20, 20)
	existing := filepath.Join(dstDir, "a_registered_to_ref.png")
	require.NoError(t, os.WriteFile(existing, []byte("occupied"), 0o644))

	job := BatchJob{DestDir: dstDir, Sources: []string{src}, Overwrite: true}

	result, err := RunBatch(context.Background(), s, job, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded())
	assert.Equal(t, []string{existing}, result.Collisions)
}

func TestRunBatchHonorsCancellation(t *testing.T) {
	s := batchSession(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := BatchJob{
		DestDir: dstDir,
		Sources: []string{writeTestPNG(t, srcDir, "a.png", 20, 20)},
	}

	result, err := RunBatch(ctx, s, job, BatchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Items)
}

func TestRunBatchRequiresAppliedTransform(t *testing.T) {
	s := NewSession()
	s.SetReference(gradient(30, 30, raster.RGB), "ref.png")
	require.NoError(t, s.SetMoving(gradient(20, 20, raster.RGB), "mov.png"))

	_, err := RunBatch(context.Background(), s, BatchJob{Sources: []string{"x.png"}}, BatchOptions{})
	assert.ErrorIs(t, err, ErrNoTransform)
}

func TestRunBatchRequiresSources(t *testing.T) {
	s := batchSession(t)
	_, err := RunBatch(context.Background(), s, BatchJob{DestDir: t.TempDir()}, BatchOptions{})
	assert.Error(t, err)
}
