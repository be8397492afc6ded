package main

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"image-registrator/internal/alphascale"
	"image-registrator/internal/imageio"
	"image-registrator/internal/raster"
)

var (
	alphascaleTint string
	alphascaleDest string
)

var alphascaleCmd = &cobra.Command{
	Use:   "alphascale <image...>",
	Short: "Convert grayscale images to color-tinted alphascale",
	Long: `Alphascale re-encodes a grayscale image's intensity as transparency:
every pixel gets the given tint as its color and the original gray value
as its alpha. Color inputs are reduced to grayscale first. Outputs are
written next to the inputs unless --dest is given, named
<input>_alphascale_rgb_<R>_<G>_<B>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tintFlag := alphascaleTint
		if tintFlag == "" {
			tintFlag = formatTint(cfg.DefaultTint)
		}
		tint, err := parseTint(tintFlag)
		if err != nil {
			return err
		}

		for _, src := range args {
			img, err := imageio.Load(src)
			if err != nil {
				return err
			}
			if img.Channels != raster.Grayscale {
				img = img.Grayscale()
			}

			out, err := alphascale.Convert(img, tint)
			if err != nil {
				return err
			}

			dir := alphascaleDest
			if dir == "" {
				dir = filepath.Dir(src)
			}
			dst := filepath.Join(dir, imageio.AlphascaleName(src, tint))
			if err := imageio.Save(dst, out, imageio.SaveOptions{}); err != nil {
				return err
			}
			slog.Info("alphascale written", "source", src, "output", dst)
		}
		return nil
	},
}

func init() {
	alphascaleCmd.Flags().StringVarP(&alphascaleTint, "tint", "t", "", "Tint color as R,G,B (default from config)")
	alphascaleCmd.Flags().StringVarP(&alphascaleDest, "dest", "d", "", "Destination folder (default: next to each input)")
	rootCmd.AddCommand(alphascaleCmd)
}
