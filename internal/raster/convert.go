package raster

import (
	"image"
	"image/color"
)

// FromImage converts a decoded standard library image into a raster buffer.
// Grayscale sources stay single-channel, sources that carry meaningful alpha
// become RGBA, and everything else becomes RGB. Alpha is kept straight
// (non-premultiplied) so grayscale values survive an alphascale round trip.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch img := src.(type) {
	case *image.Gray:
		out := New(w, h, Grayscale)
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w]
			copy(out.Pix[y*w:(y+1)*w], row)
		}
		return out

	case *image.NRGBA:
		// Fully opaque NRGBA (TIFF decodes of alpha-free images) drops to
		// 3 channels via the generic path below.
		if !img.Opaque() {
			out := New(w, h, RGBA)
			for y := 0; y < h; y++ {
				row := img.Pix[y*img.Stride : y*img.Stride+w*4]
				copy(out.Pix[y*w*4:(y+1)*w*4], row)
			}
			return out
		}
	}

	// Generic path: sample through the color model. Opaque images (JPEG
	// YCbCr, RGB PNG decoded as *image.RGBA, paletted GIFs without
	// transparency) become 3-channel; anything with a translucent pixel
	// keeps its alpha.
	opaque := true
	if o, ok := src.(interface{ Opaque() bool }); ok {
		opaque = o.Opaque()
	}

	channels := RGB
	if !opaque {
		channels = RGBA
	}
	out := New(w, h, channels)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			o := out.Offset(x, y)
			out.Pix[o] = c.R
			out.Pix[o+1] = c.G
			out.Pix[o+2] = c.B
			if channels == RGBA {
				out.Pix[o+3] = c.A
			}
		}
	}
	return out
}

// ToImage converts the raster back to a standard library image: *image.Gray
// for single-channel data, *image.NRGBA otherwise (3-channel rasters get a
// fully opaque alpha channel).
func (m *Image) ToImage() image.Image {
	if m.Channels == Grayscale {
		out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
		for y := 0; y < m.Height; y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+m.Width], m.Pix[y*m.Width:(y+1)*m.Width])
		}
		return out
	}

	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			o := m.Offset(x, y)
			d := y*out.Stride + x*4
			out.Pix[d] = m.Pix[o]
			out.Pix[d+1] = m.Pix[o+1]
			out.Pix[d+2] = m.Pix[o+2]
			if m.Channels == RGBA {
				out.Pix[d+3] = m.Pix[o+3]
			} else {
				out.Pix[d+3] = 0xff
			}
		}
	}
	return out
}
