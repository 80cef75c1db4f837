// Package convert drives the page-batched PDF to Markdown conversion.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/pdfmark/internal/layout"
	"github.com/MeKo-Tech/pdfmark/internal/pdfreader"
)

// ErrInvalidArgument marks caller mistakes: bad page ranges, non-PDF
// inputs, empty documents.
var ErrInvalidArgument = errors.New("invalid argument")

// ProgressFunc receives the conversion progress as a percentage in
// [0, 99]. The final 100 is reported by the caller once the artifact
// is written.
type ProgressFunc func(percent int)

// Config tunes the converter.
type Config struct {
	// ChunkSize is the number of pages converted per batch. Progress is
	// reported and cancellation checked at batch boundaries.
	ChunkSize int

	// Reader configures text, table, and image extraction.
	Reader pdfreader.Config

	// Fusion configures the per-page layout merge.
	Fusion layout.Config
}

// DefaultConfig returns the converter defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 10,
		Reader:    pdfreader.DefaultConfig(),
		Fusion:    layout.DefaultConfig(),
	}
}

// Options control a single Convert call.
type Options struct {
	// OutputPath overrides the artifact location. Empty means alongside
	// the input as {stem}_converted_{unix}.md.
	OutputPath string

	// StartPage and EndPage bound the 1-based page range, inclusive.
	// Zero values mean the full document. EndPage beyond the last page
	// clamps silently.
	StartPage int
	EndPage   int

	// OnProgress, when set, receives batch-boundary progress updates.
	OnProgress ProgressFunc
}

// Result is the outcome of a successful conversion. Per-page failures
// are collected in Errors and do not fail the conversion.
type Result struct {
	MarkdownPath      string
	Markdown          string
	ProcessingSeconds float64
	PagesProcessed    int
	TablesFound       int
	Errors            []string
}

// Converter converts PDF files to Markdown.
type Converter struct {
	cfg   Config
	fuser *layout.Fuser
	open  func(path string, cfg pdfreader.Config) (pdfreader.Document, error)
}

// New builds a Converter. The recognizer may be nil, in which case
// embedded images render as failed OCR blocks.
func New(cfg Config, ocr layout.Recognizer) *Converter {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 10
	}
	return &Converter{
		cfg:   cfg,
		fuser: layout.NewFuser(cfg.Fusion, ocr),
		open:  pdfreader.OpenWithConfig,
	}
}

// Convert converts the page range of the PDF at path into a Markdown
// artifact and returns the accumulated result.
func (c *Converter) Convert(ctx context.Context, path string, opts Options) (*Result, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, fmt.Errorf("%w: not a PDF file: %s", ErrInvalidArgument, path)
	}

	start := opts.StartPage
	if start == 0 {
		start = 1
	}
	if start < 1 {
		return nil, fmt.Errorf("%w: start page %d", ErrInvalidArgument, start)
	}
	if opts.EndPage != 0 && opts.EndPage < start {
		return nil, fmt.Errorf("%w: end page %d before start page %d", ErrInvalidArgument, opts.EndPage, start)
	}

	doc, err := c.open(path, c.cfg.Reader)
	if err != nil {
		return nil, err
	}
	defer func() { _ = doc.Close() }()

	total := doc.PageCount()
	if total == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrInvalidArgument)
	}
	if start > total {
		return nil, fmt.Errorf("%w: start page %d beyond last page %d", ErrInvalidArgument, start, total)
	}

	end := opts.EndPage
	if end == 0 || end > total {
		end = total
	}

	began := time.Now()
	rangeSize := end - start + 1

	var (
		sb          strings.Builder
		pagesDone   int
		tablesFound int
		pageErrors  []string
	)

	for batchStart := start; batchStart <= end; batchStart += c.cfg.ChunkSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("conversion canceled: %w", err)
		}

		batchEnd := batchStart + c.cfg.ChunkSize - 1
		if batchEnd > end {
			batchEnd = end
		}

		for p := batchStart; p <= batchEnd; p++ {
			sb.WriteString(fmt.Sprintf("## 第 %d 页\n\n", p))

			content, tables, pageErr := c.convertPage(ctx, doc, p)
			if pageErr != nil {
				slog.Warn("page conversion failed", "page", p, "error", pageErr)
				pageErrors = append(pageErrors, fmt.Sprintf("page %d: %v", p, pageErr))
				sb.WriteString(fmt.Sprintf("<!-- page %d error: %v -->\n", p, pageErr))
			} else {
				sb.WriteString(content)
				sb.WriteString("\n")
				tablesFound += tables
			}
			sb.WriteString("\n")
			pagesDone++
		}

		if opts.OnProgress != nil {
			progress := 100 * pagesDone / rangeSize
			if progress > 99 {
				progress = 99
			}
			opts.OnProgress(progress)
		}
	}

	markdown := sb.String()
	outPath, err := c.writeArtifact(path, opts.OutputPath, markdown)
	if err != nil {
		return nil, err
	}

	return &Result{
		MarkdownPath:      outPath,
		Markdown:          markdown,
		ProcessingSeconds: time.Since(began).Seconds(),
		PagesProcessed:    pagesDone,
		TablesFound:       tablesFound,
		Errors:            pageErrors,
	}, nil
}

// convertPage reads and fuses one page. Malformed content streams can
// make the page reader panic; such panics degrade to a page error so a
// single bad page never aborts the conversion.
func (c *Converter) convertPage(ctx context.Context, doc pdfreader.Document, n int) (content string, tables int, err error) {
	defer func() {
		if r := recover(); r != nil {
			content, tables = "", 0
			err = fmt.Errorf("page reader panicked: %v", r)
		}
	}()

	page, err := doc.Page(n)
	if err != nil {
		return "", 0, err
	}
	res, err := c.fuser.FusePage(ctx, page)
	if err != nil {
		return "", 0, err
	}
	return res.Markdown, res.TablesRendered, nil
}

// writeArtifact writes the Markdown next to the source (or to the
// explicit output path), creating parent directories as needed.
func (c *Converter) writeArtifact(srcPath, outPath, markdown string) (string, error) {
	if outPath == "" {
		stem := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
		name := fmt.Sprintf("%s_converted_%d.md", stem, time.Now().Unix())
		outPath = filepath.Join(filepath.Dir(srcPath), name)
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, []byte(markdown), 0o600); err != nil {
		return "", fmt.Errorf("failed to write markdown artifact: %w", err)
	}
	return outPath, nil
}
