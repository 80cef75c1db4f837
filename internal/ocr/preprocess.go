package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	// maxDimension bounds the larger image side before recognition.
	// Oversized inputs slow inference down and degrade accuracy.
	maxDimension = 1200

	// Images smaller than these thresholds are upscaled so small print
	// stays recognizable. At most one upscale factor is applied.
	upscaleSmallBelow  = 100 // x3
	upscaleMediumBelow = 200 // x2
)

// Preprocess normalizes an image for recognition: alpha is composited
// against white (yielding 3-channel RGB content), then the size is
// bounded by a cubic-resampled downscale above maxDimension or an
// upscale for very small images.
func Preprocess(img image.Image) image.Image {
	normalized := normalizeRGB(img)

	bounds := normalized.Bounds()
	longest := bounds.Dx()
	if bounds.Dy() > longest {
		longest = bounds.Dy()
	}
	if longest == 0 {
		return normalized
	}

	switch {
	case longest > maxDimension:
		scale := float64(maxDimension) / float64(longest)
		w := int(float64(bounds.Dx()) * scale)
		h := int(float64(bounds.Dy()) * scale)
		return imaging.Resize(normalized, w, h, imaging.CatmullRom)
	case longest < upscaleSmallBelow:
		return imaging.Resize(normalized, bounds.Dx()*3, bounds.Dy()*3, imaging.CatmullRom)
	case longest < upscaleMediumBelow:
		return imaging.Resize(normalized, bounds.Dx()*2, bounds.Dy()*2, imaging.CatmullRom)
	default:
		return normalized
	}
}

// normalizeRGB flattens any alpha channel against a white background and
// expands grayscale to full color. The result is always *image.NRGBA
// with fully opaque pixels.
func normalizeRGB(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}
