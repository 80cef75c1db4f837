package ocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocess_DownscalesLargeImages(t *testing.T) {
	img := Preprocess(solidImage(2400, 1200, color.White))

	b := img.Bounds()
	assert.Equal(t, 1200, b.Dx())
	assert.Equal(t, 600, b.Dy())
}

func TestPreprocess_UpscalesTinyImages(t *testing.T) {
	img := Preprocess(solidImage(50, 40, color.White))

	b := img.Bounds()
	assert.Equal(t, 150, b.Dx())
	assert.Equal(t, 120, b.Dy())
}

func TestPreprocess_UpscalesSmallImages(t *testing.T) {
	img := Preprocess(solidImage(150, 120, color.White))

	b := img.Bounds()
	assert.Equal(t, 300, b.Dx())
	assert.Equal(t, 240, b.Dy())
}

func TestPreprocess_LeavesMidSizeImagesAlone(t *testing.T) {
	img := Preprocess(solidImage(800, 600, color.White))

	b := img.Bounds()
	assert.Equal(t, 800, b.Dx())
	assert.Equal(t, 600, b.Dy())
}

func TestPreprocess_NeverAppliesBothUpscaleFactors(t *testing.T) {
	// 90px is below both thresholds; only the x3 factor may apply.
	img := Preprocess(solidImage(90, 90, color.White))
	assert.Equal(t, 270, img.Bounds().Dx())
}

func TestNormalizeRGB_CompositesAlphaAgainstWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 0})     // fully transparent
	src.Set(1, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255}) // opaque red

	out := normalizeRGB(src)

	r, g, b, a := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
	assert.Equal(t, uint32(0xffff), a)

	r, _, _, _ = out.At(1, 0).RGBA()
	require.Equal(t, uint32(0xffff), r)
}

func TestNormalizeRGB_ExpandsGrayscale(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 1, 1))
	src.SetGray(0, 0, color.Gray{Y: 128})

	out := normalizeRGB(src)
	r, g, b, _ := out.At(0, 0).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}
