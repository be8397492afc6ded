package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"image-registrator/internal/imageio"
	"image-registrator/internal/ledger"
	"image-registrator/internal/registration"
)

var (
	batchReference string
	batchPoints    string
	batchDest      string
	batchOverwrite bool
	batchFit       bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <moving-image> [sibling-image...]",
	Short: "Register a set of same-sized images with one transform",
	Long: `Batch estimates the transform once, from the first image and the
control point file, then applies it to every listed image. All images must
share the first image's dimensions; with --fit, images larger than the
reference canvas are downscaled to fit it instead of being rejected.
Destinations are checked before any write: existing files abort the run
unless --overwrite is given. A control point CSV describing the run is
saved next to the outputs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession(batchReference, args[0], batchPoints)
		if err != nil {
			return err
		}
		if _, err := session.Apply(); err != nil {
			return err
		}

		dest := batchDest
		if dest == "" {
			dest = filepath.Dir(args[0])
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		job := registration.BatchJob{
			DestDir:      dest,
			Sources:      args,
			Overwrite:    batchOverwrite || cfg.Overwrite,
			JPEGQuality:  cfg.JPEGQuality,
			FitOversized: batchFit,
		}
		result, err := registration.RunBatch(ctx, session, job, registration.BatchOptions{})
		if errors.Is(err, registration.ErrDestinationExists) {
			for _, c := range result.Collisions {
				slog.Error("destination exists", "path", c)
			}
			return fmt.Errorf("%d destination file(s) already exist, rerun with --overwrite", len(result.Collisions))
		}
		if err != nil {
			return err
		}

		pointsOut := filepath.Join(dest, imageio.PointsFilename(
			filepath.Base(args[0]), session.ReferenceName(), time.Now()))
		if err := ledger.WriteFile(pointsOut, result.Ledger); err != nil {
			return err
		}

		slog.Info("batch finished",
			"succeeded", result.Succeeded(), "failed", len(result.Items)-result.Succeeded(),
			"points", pointsOut)
		if result.Succeeded() < len(result.Items) {
			return fmt.Errorf("%d of %d images failed", len(result.Items)-result.Succeeded(), len(result.Items))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchReference, "reference", "r", "", "Reference image path (required)")
	batchCmd.Flags().StringVarP(&batchPoints, "points", "p", "", "Control point CSV path (required)")
	batchCmd.Flags().StringVarP(&batchDest, "dest", "d", "", "Destination folder (default: first image's folder)")
	batchCmd.Flags().BoolVar(&batchOverwrite, "overwrite", false, "Replace existing destination files")
	batchCmd.Flags().BoolVar(&batchFit, "fit", false, "Downscale oversized images to fit the canvas instead of rejecting them")
	batchCmd.MarkFlagRequired("reference")
	batchCmd.MarkFlagRequired("points")
	rootCmd.AddCommand(batchCmd)
}
