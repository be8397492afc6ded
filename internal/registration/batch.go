package registration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"image-registrator/internal/imageio"
	"image-registrator/internal/ledger"
	"image-registrator/pkg/geometry"
)

// BatchJob describes one batch registration run: a destination folder and a
// list of source files that all share the session's original moving-image
// dimensions.
type BatchJob struct {
	DestDir     string
	Sources     []string
	Overwrite   bool // write over existing destination files
	JPEGQuality int  // passed through to the encoder, 0 = default

	// FitOversized downscales sources larger than the canvas to fit it
	// (aspect-preserving) before registration instead of rejecting them.
	// Fitted sources are exempt from the moving-size check; the caller opts
	// into applying the shared transform to rescaled geometry.
	FitOversized bool
}

// ItemOutcome records what happened to one batch source.
type ItemOutcome struct {
	Source string
	Output string // written file, empty on failure
	Err    error  // nil on success
}

// BatchResult aggregates per-item outcomes, the pre-flight collision list
// and the ledger entry describing the whole run.
type BatchResult struct {
	Items      []ItemOutcome
	Collisions []string // destination files that already existed
	Ledger     ledger.Entry
}

// Succeeded returns the number of items that produced an output file.
func (r *BatchResult) Succeeded() int {
	n := 0
	for _, item := range r.Items {
		if item.Err == nil {
			n++
		}
	}
	return n
}

// BatchOptions carries the optional collaborator hooks.
type BatchOptions struct {
	// Logger receives per-item progress. Defaults to slog.Default().
	Logger *slog.Logger
	// Progress, if set, is invoked after each item completes with the
	// 1-based item number, the total count, and the outcome.
	Progress func(done, total int, outcome ItemOutcome)
}

// RunBatch applies the session's cached transform to every source in the
// job, writing results into the destination folder under the
// _registered_to_ naming convention.
//
// Before anything is written, a pre-flight pass computes every destination
// path; if any already exist and the job does not allow overwriting, the
// collision list is returned with ErrDestinationExists so the collaborator
// can confirm or cancel. Per-item failures (unreadable file, dimension
// mismatch) are recorded in the outcome list without aborting the remaining
// items, and a failed item never leaves a partial output file. Cancellation
// via ctx is honored between items, never mid-resample.
//
// The call is synchronous; callers that need the UI thread free run it on
// their own goroutine.
func RunBatch(ctx context.Context, session *Session, job BatchJob, opts BatchOptions) (*BatchResult, error) {
	transform, err := session.Transform()
	if err != nil {
		return nil, err
	}
	canvas, err := session.CanvasSize()
	if err != nil {
		return nil, err
	}
	movingSize, err := session.MovingSize()
	if err != nil {
		return nil, err
	}
	if len(job.Sources) == 0 {
		return nil, fmt.Errorf("batch job has no source files")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	refName := session.ReferenceName()
	result := &BatchResult{}

	// Pre-flight: resolve all destination names and report collisions
	// before a single write happens.
	outputs := make([]string, len(job.Sources))
	for i, src := range job.Sources {
		outputs[i] = filepath.Join(job.DestDir, imageio.RegisteredName(src, refName))
		_, err := os.Stat(outputs[i])
		switch {
		case err == nil:
			result.Collisions = append(result.Collisions, outputs[i])
		case !errors.Is(err, fs.ErrNotExist):
			return result, fmt.Errorf("checking destination %s: %w", outputs[i], err)
		}
	}
	if len(result.Collisions) > 0 && !job.Overwrite {
		return result, fmt.Errorf("%w: %d file(s)", ErrDestinationExists, len(result.Collisions))
	}

	total := len(job.Sources)
	for i, src := range job.Sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome := registerOne(src, outputs[i], movingSize, canvas, transform, job)
		result.Items = append(result.Items, outcome)

		if outcome.Err != nil {
			logger.Warn("batch item failed", "source", src, "error", outcome.Err)
		} else {
			logger.Info("batch item registered", "source", src, "output", outcome.Output,
				"done", i+1, "total", total)
		}
		if opts.Progress != nil {
			opts.Progress(i+1, total, outcome)
		}
	}

	entry := ledger.Entry{
		ReferenceName: refName,
		Canvas:        canvas,
		Pairs:         session.Points(),
	}
	for _, item := range result.Items {
		if item.Err == nil {
			entry.MovingNames = append(entry.MovingNames, filepath.Base(item.Output))
		}
	}
	result.Ledger = entry
	return result, nil
}

// registerOne loads, validates, resamples and saves a single batch source.
func registerOne(src, dst string, movingSize, canvas geometry.Size,
	transform geometry.Homography, job BatchJob) ItemOutcome {

	img, err := imageio.Load(src)
	if err != nil {
		return ItemOutcome{Source: src, Err: err}
	}

	fitted := false
	if job.FitOversized && (img.Width > canvas.Width || img.Height > canvas.Height) {
		img = img.FitCanvas(canvas)
		fitted = true
	}
	if !fitted && img.Size() != movingSize {
		return ItemOutcome{Source: src, Err: &DimensionMismatchError{
			Path: src,
			Got:  img.Size(),
			Want: movingSize,
		}}
	}

	registered, err := Resample(img, canvas, transform)
	if err != nil {
		return ItemOutcome{Source: src, Err: err}
	}

	if err := imageio.Save(dst, registered, imageio.SaveOptions{JPEGQuality: job.JPEGQuality}); err != nil {
		// Remove whatever the failed encode left behind so a failed item
		// never yields a partial output file.
		os.Remove(dst)
		return ItemOutcome{Source: src, Err: err}
	}
	return ItemOutcome{Source: src, Output: dst}
}
