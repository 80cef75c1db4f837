package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/pdfmark/internal/config"
	"github.com/MeKo-Tech/pdfmark/internal/ocr"
)

// newOCRService builds the OCR service for the configured backend.
func newOCRService(cfg *config.Config) (*ocr.Service, error) {
	switch cfg.OCR.Backend {
	case "local":
		paddleCfg := ocr.DefaultPaddleConfig()
		paddleCfg.DetModelPath = cfg.OCR.Local.DetModelPath
		paddleCfg.RecModelPath = cfg.OCR.Local.RecModelPath
		paddleCfg.DictPath = cfg.OCR.Local.DictPath
		paddleCfg.NumThreads = cfg.OCR.Local.NumThreads

		engine, err := ocr.NewPaddleEngine(paddleCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local OCR engine: %w", err)
		}
		return ocr.NewService(engine), nil

	case "openai":
		engine := ocr.NewCloudEngine(ocr.CloudConfig{
			APIKey:  cfg.OCR.OpenAI.APIKey,
			Model:   cfg.OCR.OpenAI.Model,
			BaseURL: cfg.OCR.OpenAI.BaseURL,
		})
		return ocr.NewService(engine), nil

	default:
		slog.Info("OCR disabled; embedded images will carry failure markers")
		return ocr.NewService(nil), nil
	}
}
