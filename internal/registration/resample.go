package registration

import (
	"fmt"
	"math"

	"image-registrator/internal/raster"
	"image-registrator/pkg/geometry"
)

// PadToCanvas places the image onto a zero-filled canvas of the given size,
// anchored at the top left. Content is never rescaled: a smaller image gains
// padding, a larger one keeps only its top-left canvas-sized window. The
// fill is transparent for RGBA rasters and black otherwise.
func PadToCanvas(img *raster.Image, canvas geometry.Size) *raster.Image {
	out := raster.New(canvas.Width, canvas.Height, img.Channels)

	copyW := img.Width
	if copyW > canvas.Width {
		copyW = canvas.Width
	}
	copyH := img.Height
	if copyH > canvas.Height {
		copyH = canvas.Height
	}

	rowBytes := copyW * img.Channels
	for y := 0; y < copyH; y++ {
		src := img.Pix[y*img.Width*img.Channels:]
		dst := out.Pix[y*out.Width*out.Channels:]
		copy(dst[:rowBytes], src[:rowBytes])
	}
	return out
}

// Resample warps the moving image into the reference coordinate frame,
// producing a raster of exactly the canvas size. The moving image is first
// padded (never rescaled) to the canvas, then inverse-mapped through the
// homography: each destination pixel samples the padded source at H⁻¹·dest
// with bilinear interpolation. Destination pixels that map outside the
// padded source get the background value, transparent for RGBA and black
// otherwise. The input raster is never mutated.
func Resample(moving *raster.Image, canvas geometry.Size, h geometry.Homography) (*raster.Image, error) {
	if canvas.IsZero() {
		return nil, fmt.Errorf("invalid canvas size %dx%d", canvas.Width, canvas.Height)
	}

	inv, ok := h.Inverse()
	if !ok {
		return nil, ErrSingularTransform
	}

	src := PadToCanvas(moving, canvas)
	out := raster.New(canvas.Width, canvas.Height, src.Channels)

	maxX := float64(src.Width - 1)
	maxY := float64(src.Height - 1)

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			p := inv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			if p.X < 0 || p.X > maxX || p.Y < 0 || p.Y > maxY ||
				math.IsNaN(p.X) || math.IsNaN(p.Y) {
				continue // background, buffer is pre-zeroed
			}

			xl := int(math.Floor(p.X))
			yl := int(math.Floor(p.Y))
			xf := p.X - float64(xl)
			yf := p.Y - float64(yl)

			xh := xl + 1
			if xh > src.Width-1 {
				xh = src.Width - 1
			}
			yh := yl + 1
			if yh > src.Height-1 {
				yh = src.Height - 1
			}

			so := out.Offset(x, y)
			for c := 0; c < src.Channels; c++ {
				top := float64(src.Sample(xl, yl, c))*(1-xf) + float64(src.Sample(xh, yl, c))*xf
				bot := float64(src.Sample(xl, yh, c))*(1-xf) + float64(src.Sample(xh, yh, c))*xf
				out.Pix[so+c] = uint8(top*(1-yf) + bot*yf + 0.5)
			}
		}
	}
	return out, nil
}
