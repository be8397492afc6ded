package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"image-registrator/internal/ledger"
	"image-registrator/internal/registration"
)

var pointsCmd = &cobra.Command{
	Use:   "points <points.csv>",
	Short: "Inspect a saved control point file",
	Long: `Points validates a control point CSV and prints its metadata, the
pairs it holds and the mean reprojection error of the transform they
produce.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := ledger.ReadFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "reference: %s\n", entry.ReferenceName)
		for _, name := range entry.MovingNames {
			fmt.Fprintf(out, "moving:    %s\n", name)
		}
		if !entry.Canvas.IsZero() {
			fmt.Fprintf(out, "canvas:    %dx%d\n", entry.Canvas.Width, entry.Canvas.Height)
		}
		fmt.Fprintf(out, "pairs:     %d\n", len(entry.Pairs))
		for _, pair := range entry.Pairs {
			fmt.Fprintf(out, "  %2d: ref (%.2f, %.2f)  mov (%.2f, %.2f)\n",
				pair.Index, pair.Reference.X, pair.Reference.Y, pair.Moving.X, pair.Moving.Y)
		}

		h, err := registration.EstimateHomography(entry.Pairs)
		if err != nil {
			fmt.Fprintf(out, "transform: unusable (%v)\n", err)
			return nil
		}
		if h.IsAffine() {
			fmt.Fprintln(out, "transform: affine")
		} else {
			fmt.Fprintln(out, "transform: perspective")
		}
		fmt.Fprintf(out, "mean reprojection error: %.4f px\n",
			registration.ReprojectionError(entry.Pairs, h))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pointsCmd)
}
