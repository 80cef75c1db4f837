package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
)

// Service wraps an Engine with preprocessing and failure absorption.
// Recognition errors and panics never propagate past the Service; callers
// receive an empty string plus the error to render a failure marker.
type Service struct {
	engine Engine
}

// NewService creates a Service around the given backend. A nil engine
// yields a service whose recognitions fail with ErrUnavailable.
func NewService(engine Engine) *Service {
	if engine == nil {
		engine = NewDisabledEngine()
	}
	return &Service{engine: engine}
}

// Recognize preprocesses img and runs the backend. The result is
// trimmed of surrounding whitespace; no recognized lines yields the
// empty string with a nil error.
func (s *Service) Recognize(ctx context.Context, img image.Image) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("ocr engine panicked", "panic", r)
			text = ""
			err = fmt.Errorf("ocr engine panicked: %v", r)
		}
	}()

	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	prepared := Preprocess(img)

	raw, err := s.engine.Recognize(ctx, prepared)
	if err != nil {
		slog.Warn("ocr recognition failed", "error", err)
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// Close releases the underlying engine.
func (s *Service) Close() error {
	return s.engine.Close()
}
