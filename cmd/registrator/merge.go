package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"image-registrator/internal/alphascale"
	"image-registrator/internal/imageio"
	"image-registrator/internal/raster"
)

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge -o <output> <image...>",
	Short: "Merge alphascale images into one composite",
	Long: `Merge combines same-sized RGBA alphascale images. Each output pixel
takes the strongest input alpha and the alpha-weighted average of the input
colors, computed over all images at once. Inputs are never resized; a
dimension mismatch aborts the merge.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		imgs := make([]*raster.Image, len(args))
		for i, src := range args {
			img, err := imageio.Load(src)
			if err != nil {
				return err
			}
			imgs[i] = img
		}

		out, err := alphascale.Merge(imgs)
		if err != nil {
			return err
		}
		if err := imageio.Save(mergeOutput, out, imageio.SaveOptions{}); err != nil {
			return err
		}
		slog.Info("merge written", "inputs", len(args), "output", mergeOutput)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "out", "o", "", "Output path (required)")
	mergeCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(mergeCmd)
}
