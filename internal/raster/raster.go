// Package raster provides the 8-bit row-major pixel buffer type shared by the
// registration and alphascale pipelines, plus conversions to and from the
// standard library image types.
package raster

import (
	"bytes"
	"fmt"

	"image-registrator/pkg/geometry"
)

// Channel counts supported by Image.
const (
	Grayscale = 1
	RGB       = 3
	RGBA      = 4
)

// Image is a width x height raster of 8-bit samples with 1 (grayscale),
// 3 (RGB) or 4 (RGBA) channels, stored row-major. The buffer is exclusively
// owned by whichever component currently holds it; operations that transform
// an Image always allocate a fresh output buffer.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zero-filled raster. It panics on an unsupported channel
// count since that is always a programming error, not an input error.
func New(width, height, channels int) *Image {
	if channels != Grayscale && channels != RGB && channels != RGBA {
		panic(fmt.Sprintf("raster: unsupported channel count %d", channels))
	}
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("raster: negative dimensions %dx%d", width, height))
	}
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Size returns the raster dimensions.
func (m *Image) Size() geometry.Size {
	return geometry.Size{Width: m.Width, Height: m.Height}
}

// Offset returns the buffer index of the first sample of pixel (x, y).
func (m *Image) Offset(x, y int) int {
	return (y*m.Width + x) * m.Channels
}

// Sample returns channel c of pixel (x, y). Callers are responsible for
// bounds; this is the hot path of the resampler and compositors.
func (m *Image) Sample(x, y, c int) uint8 {
	return m.Pix[(y*m.Width+x)*m.Channels+c]
}

// SetSample sets channel c of pixel (x, y).
func (m *Image) SetSample(x, y, c int, v uint8) {
	m.Pix[(y*m.Width+x)*m.Channels+c] = v
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	out := &Image{
		Width:    m.Width,
		Height:   m.Height,
		Channels: m.Channels,
		Pix:      make([]uint8, len(m.Pix)),
	}
	copy(out.Pix, m.Pix)
	return out
}

// Equal reports whether two rasters have identical dimensions, channel
// counts and pixel data.
func (m *Image) Equal(other *Image) bool {
	if other == nil {
		return false
	}
	return m.Width == other.Width && m.Height == other.Height &&
		m.Channels == other.Channels && bytes.Equal(m.Pix, other.Pix)
}

// HasAlpha returns true for 4-channel rasters.
func (m *Image) HasAlpha() bool {
	return m.Channels == RGBA
}

// Grayscale reduces the raster to a single luminance channel using the
// ITU-R BT.709 weights, matching how color sources are prepared for
// alphascale conversion. A grayscale input is copied unchanged; the alpha
// channel of an RGBA input is ignored.
func (m *Image) Grayscale() *Image {
	if m.Channels == Grayscale {
		return m.Clone()
	}

	out := New(m.Width, m.Height, Grayscale)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			o := m.Offset(x, y)
			r := float64(m.Pix[o])
			g := float64(m.Pix[o+1])
			b := float64(m.Pix[o+2])
			lum := 0.2126*r + 0.7152*g + 0.0722*b
			out.Pix[y*out.Width+x] = uint8(lum + 0.5)
		}
	}
	return out
}

// FitCanvas downscales the raster, preserving aspect ratio, so it fits within
// the given canvas, using box (area-average) filtering. Rasters that already
// fit are returned as a copy. This is an opt-in pre-step for oversized batch
// inputs; the registration resampler itself never rescales.
func (m *Image) FitCanvas(canvas geometry.Size) *Image {
	if m.Width <= canvas.Width && m.Height <= canvas.Height {
		return m.Clone()
	}

	aspectSrc := float64(m.Width) / float64(m.Height)
	aspectDst := float64(canvas.Width) / float64(canvas.Height)

	var dstW, dstH int
	if aspectSrc > aspectDst {
		dstW = canvas.Width
		dstH = int(float64(dstW) / aspectSrc)
	} else {
		dstH = canvas.Height
		dstW = int(float64(dstH) * aspectSrc)
	}
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	out := New(dstW, dstH, m.Channels)
	scaleX := float64(m.Width) / float64(dstW)
	scaleY := float64(m.Height) / float64(dstH)

	for y := 0; y < dstH; y++ {
		y0 := int(float64(y) * scaleY)
		y1 := int(float64(y+1) * scaleY)
		if y1 > m.Height {
			y1 = m.Height
		}
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for x := 0; x < dstW; x++ {
			x0 := int(float64(x) * scaleX)
			x1 := int(float64(x+1) * scaleX)
			if x1 > m.Width {
				x1 = m.Width
			}
			if x1 <= x0 {
				x1 = x0 + 1
			}

			area := float64((x1 - x0) * (y1 - y0))
			for c := 0; c < m.Channels; c++ {
				var sum float64
				for sy := y0; sy < y1; sy++ {
					for sx := x0; sx < x1; sx++ {
						sum += float64(m.Sample(sx, sy, c))
					}
				}
				out.SetSample(x, y, c, uint8(sum/area+0.5))
			}
		}
	}
	return out
}
