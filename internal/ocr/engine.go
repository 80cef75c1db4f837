// Package ocr provides image preprocessing and text recognition for
// embedded raster images. Recognition backends implement Engine; the
// Service wrapper applies preprocessing and absorbs backend failures.
package ocr

import (
	"context"
	"errors"
	"image"
)

// ErrUnavailable indicates no recognition backend is configured.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Engine recognizes text in a preprocessed raster image. The returned
// string contains recognized lines joined by newlines.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
	Close() error
}

// disabledEngine is the fallback when no backend is configured. Every
// recognition attempt reports ErrUnavailable, which callers degrade to a
// per-image failure marker.
type disabledEngine struct{}

// NewDisabledEngine returns an Engine that always fails with ErrUnavailable.
func NewDisabledEngine() Engine { return disabledEngine{} }

func (disabledEngine) Recognize(context.Context, image.Image) (string, error) {
	return "", ErrUnavailable
}

func (disabledEngine) Close() error { return nil }
