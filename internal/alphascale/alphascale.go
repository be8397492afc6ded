// Package alphascale converts grayscale rasters into color-tinted,
// alpha-weighted images and merges several of them into one composite.
//
// An alphascale image encodes a grayscale source's intensity as per-pixel
// transparency instead of brightness: the color is a single constant tint
// and the alpha channel carries the original sample verbatim.
package alphascale

import (
	"errors"
	"fmt"

	"image-registrator/internal/raster"
	"image-registrator/pkg/geometry"
)

var (
	ErrNotGrayscale = errors.New("alphascale conversion requires a grayscale raster")
	ErrNoInputs     = errors.New("merge requires at least one image")
	ErrNotRGBA      = errors.New("merge inputs must be RGBA")
)

// DimensionMismatchError reports a merge input whose size differs from the
// first input's. Inputs are never resized implicitly.
type DimensionMismatchError struct {
	Index int // position in the merge set
	Got   geometry.Size
	Want  geometry.Size
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("merge input %d is %dx%d, want %dx%d",
		e.Index, e.Got.Width, e.Got.Height, e.Want.Width, e.Want.Height)
}

// Convert maps a grayscale raster and an RGB tint to an RGBA raster of the
// same size. Every pixel gets the constant tint as its color and the
// original grayscale sample as its alpha (0 transparent, 255 opaque), so
// the source values are exactly recoverable from the output's alpha
// channel. Callers with color sources reduce them first via
// raster.Grayscale. Pure and stateless.
func Convert(gray *raster.Image, tint [3]uint8) (*raster.Image, error) {
	if gray.Channels != raster.Grayscale {
		return nil, fmt.Errorf("%w: got %d channels", ErrNotGrayscale, gray.Channels)
	}

	out := raster.New(gray.Width, gray.Height, raster.RGBA)
	for i, v := range gray.Pix {
		o := i * 4
		out.Pix[o] = tint[0]
		out.Pix[o+1] = tint[1]
		out.Pix[o+2] = tint[2]
		out.Pix[o+3] = v
	}
	return out, nil
}

// Merge composites an ordered set of RGBA alphascale rasters of identical
// dimensions into one. Per pixel:
//
//	alpha = max(alpha_1 ... alpha_n)
//	color = round(sum(color_i * alpha_i) / sum(alpha_i))
//
// The color is a weighted average computed in one pass over all inputs with
// integer accumulation; sequential pairwise blending would accumulate
// different rounding and is deliberately not used. When every input is
// fully transparent at a pixel the color defaults to 0, which is invisible
// under the zero alpha.
func Merge(imgs []*raster.Image) (*raster.Image, error) {
	if len(imgs) == 0 {
		return nil, ErrNoInputs
	}

	want := imgs[0].Size()
	for i, img := range imgs {
		if img.Channels != raster.RGBA {
			return nil, fmt.Errorf("%w: input %d has %d channels", ErrNotRGBA, i, img.Channels)
		}
		if img.Size() != want {
			return nil, &DimensionMismatchError{Index: i, Got: img.Size(), Want: want}
		}
	}

	out := raster.New(want.Width, want.Height, raster.RGBA)
	pixels := want.Width * want.Height

	for p := 0; p < pixels; p++ {
		o := p * 4

		var alphaSum uint64
		var maxAlpha uint8
		var weighted [3]uint64

		for _, img := range imgs {
			a := img.Pix[o+3]
			if a > maxAlpha {
				maxAlpha = a
			}
			alphaSum += uint64(a)
			for c := 0; c < 3; c++ {
				weighted[c] += uint64(img.Pix[o+c]) * uint64(a)
			}
		}

		out.Pix[o+3] = maxAlpha
		if alphaSum == 0 {
			continue // fully transparent, color stays 0
		}
		for c := 0; c < 3; c++ {
			// Round-to-nearest integer division.
			out.Pix[o+c] = uint8((2*weighted[c] + alphaSum) / (2 * alphaSum))
		}
	}
	return out, nil
}
