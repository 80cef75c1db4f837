package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const cloudDefaultModel = "gpt-4o-mini"

const cloudPrompt = "Transcribe all text visible in this image. " +
	"Return only the transcribed text, one line per visual line, " +
	"top to bottom. If the image contains no text, return nothing."

// CloudConfig holds settings for the hosted vision-model backend.
type CloudConfig struct {
	APIKey  string // falls back to OPENAI_API_KEY when empty
	Model   string
	BaseURL string        // optional override (tests, proxies)
	Timeout time.Duration // HTTP timeout, default 120s
}

// CloudEngine recognizes text by sending the image to a vision-capable
// chat model. Useful when no local ONNX models are installed.
type CloudEngine struct {
	client openai.Client
	model  string
}

// NewCloudEngine creates the hosted backend.
func NewCloudEngine(cfg CloudConfig) *CloudEngine {
	if cfg.Model == "" {
		cfg.Model = cloudDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &CloudEngine{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Recognize encodes the image as a PNG data URL and asks the model for a
// transcription.
func (e *CloudEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(cloudPrompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	}

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	})
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (e *CloudEngine) Close() error { return nil }
