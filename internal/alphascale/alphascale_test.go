package alphascale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-registrator/internal/raster"
)

func grayImage(w, h int, vals ...uint8) *raster.Image {
	img := raster.New(w, h, raster.Grayscale)
	copy(img.Pix, vals)
	return img
}

// fill paints every pixel of an RGBA raster with one color.
func fill(img *raster.Image, r, g, b, a uint8) *raster.Image {
	for p := 0; p < img.Width*img.Height; p++ {
		o := p * 4
		img.Pix[o] = r
		img.Pix[o+1] = g
		img.Pix[o+2] = b
		img.Pix[o+3] = a
	}
	return img
}

func TestConvertCarriesGrayIntoAlpha(t *testing.T) {
	src := grayImage(2, 2, 0, 128, 200, 255)

	out, err := Convert(src, [3]uint8{0, 0, 255})
	require.NoError(t, err)

	assert.Equal(t, raster.RGBA, out.Channels)
	assert.Equal(t, src.Size(), out.Size())
	for p, want := range []uint8{0, 128, 200, 255} {
		o := p * 4
		assert.Equal(t, uint8(0), out.Pix[o], "pixel %d red", p)
		assert.Equal(t, uint8(0), out.Pix[o+1], "pixel %d green", p)
		assert.Equal(t, uint8(255), out.Pix[o+2], "pixel %d blue", p)
		assert.Equal(t, want, out.Pix[o+3], "pixel %d alpha", p)
	}
}

func TestConvertRejectsColorInput(t *testing.T) {
	_, err := Convert(raster.New(2, 2, raster.RGB), [3]uint8{255, 0, 0})
	assert.ErrorIs(t, err, ErrNotGrayscale)
}

func TestMergeWeightedColorAndMaxAlpha(t *testing.T) {
	// Pure blue at alpha 128 over pure red at alpha 255. The red channel is
	// (0*128 + 255*255)/(128+255) = 169.77, which must round up, and the
	// alpha is the larger of the two, not their blend.
	blue := fill(raster.New(1, 1, raster.RGBA), 0, 0, 255, 128)
	red := fill(raster.New(1, 1, raster.RGBA), 255, 0, 0, 255)

	out, err := Merge([]*raster.Image{blue, red})
	require.NoError(t, err)

	assert.Equal(t, uint8(170), out.Pix[0], "red")
	assert.Equal(t, uint8(0), out.Pix[1], "green")
	assert.Equal(t, uint8(85), out.Pix[2], "blue")
	assert.Equal(t, uint8(255), out.Pix[3], "alpha")
}

func TestMergeOrderIndependent(t *testing.T) {
	a := fill(raster.New(3, 2, raster.RGBA), 10, 200, 30, 40)
	b := fill(raster.New(3, 2, raster.RGBA), 250, 5, 90, 220)
	c := fill(raster.New(3, 2, raster.RGBA), 100, 100, 100, 100)

	first, err := Merge([]*raster.Image{a, b, c})
	require.NoError(t, err)
	second, err := Merge([]*raster.Image{c, a, b})
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestMergeAllTransparentPixelStaysZero(t *testing.T) {
	a := fill(raster.New(1, 1, raster.RGBA), 255, 255, 255, 0)
	b := fill(raster.New(1, 1, raster.RGBA), 128, 64, 32, 0)

	out, err := Merge([]*raster.Image{a, b})
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 0, 0}, out.Pix)
}

func TestMergeSingleInputIsIdentity(t *testing.T) {
	a := fill(raster.New(2, 2, raster.RGBA), 12, 34, 56, 78)

	out, err := Merge([]*raster.Image{a})
	require.NoError(t, err)
	assert.True(t, out.Equal(a))
}

func TestMergeRejectsSizeMismatch(t *testing.T) {
	a := raster.New(2, 2, raster.RGBA)
	b := raster.New(3, 2, raster.RGBA)

	_, err := Merge([]*raster.Image{a, b})

	var mismatch *DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Index)
}

func TestMergeRejectsNonRGBA(t *testing.T) {
	a := raster.New(2, 2, raster.RGBA)
	b := raster.New(2, 2, raster.Grayscale)

	_, err := Merge([]*raster.Image{a, b})
	assert.ErrorIs(t, err, ErrNotRGBA)
}

func TestMergeEmptyInput(t *testing.T) {
	_, err := Merge(nil)
	assert.ErrorIs(t, err, ErrNoInputs)
}
