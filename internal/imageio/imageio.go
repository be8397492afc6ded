// Package imageio loads and saves 8-bit raster images in the formats the
// registration pipeline accepts (PNG, JPEG, TIFF, BMP) and produces the
// default output filenames for registered and alphascale images.
package imageio

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"image-registrator/internal/raster"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrUnsupportedFormatForAlpha is returned at the save boundary when an
	// RGBA raster is written to a format that cannot store alpha.
	ErrUnsupportedFormatForAlpha = errors.New("format cannot store an alpha channel")
)

// DefaultJPEGQuality matches the original tool's lossless-leaning setting.
const DefaultJPEGQuality = 100

// SaveOptions controls encoder behavior.
type SaveOptions struct {
	JPEGQuality int // 1..100; 0 means DefaultJPEGQuality
}

// Load decodes the image at path into a raster buffer. Grayscale sources
// stay single-channel and alpha is preserved for PNG/TIFF sources that
// carry it.
func Load(path string) (*raster.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return raster.FromImage(img), nil
}

// Save encodes the raster to path, choosing the encoder from the file
// extension. Writing an RGBA raster to a format without alpha support fails
// with ErrUnsupportedFormatForAlpha before any bytes are written.
func Save(path string, img *raster.Image, opts SaveOptions) error {
	ext := strings.ToLower(filepath.Ext(path))

	if img.HasAlpha() {
		switch ext {
		case ".jpg", ".jpeg", ".bmp":
			return fmt.Errorf("%s: %w", path, ErrUnsupportedFormatForAlpha)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}
	defer f.Close()

	std := img.ToImage()
	switch ext {
	case ".png":
		err = png.Encode(f, std)
	case ".jpg", ".jpeg":
		quality := opts.JPEGQuality
		if quality == 0 {
			quality = DefaultJPEGQuality
		}
		err = jpeg.Encode(f, std, &jpeg.Options{Quality: quality})
	case ".tif", ".tiff":
		err = tiff.Encode(f, std, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case ".bmp":
		err = bmp.Encode(f, std)
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// RegisteredName returns the default output filename for a registered image:
// <moving>_registered_to_<reference-stem>.<ext>.
func RegisteredName(movingPath, referencePath string) string {
	base := filepath.Base(movingPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	refStem := strings.TrimSuffix(filepath.Base(referencePath), filepath.Ext(referencePath))
	return stem + "_registered_to_" + refStem + ext
}

// AlphascaleName returns the default output filename for an alphascale
// image: <source>_alphascale_rgb_<R>_<G>_<B>.<ext>. The extension is forced
// to .png when the source format cannot store alpha.
func AlphascaleName(srcPath string, tint [3]uint8) string {
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	switch strings.ToLower(ext) {
	case ".png", ".tif", ".tiff":
	default:
		ext = ".png"
	}
	return fmt.Sprintf("%s_alphascale_rgb_%d_%d_%d%s", stem, tint[0], tint[1], tint[2], ext)
}

// PointsFilename returns the default control point CSV filename, mirroring
// the registered image naming: "<moving-stem> to <reference-stem>" with a
// timestamp so successive saves never collide.
func PointsFilename(movingName, referenceName string, now time.Time) string {
	movStem := strings.TrimSuffix(movingName, filepath.Ext(movingName))
	refStem := strings.TrimSuffix(referenceName, filepath.Ext(referenceName))
	return fmt.Sprintf("registration points - %s to %s - %s.csv",
		movStem, refStem, now.Format("2006-01-02 150405"))
}
