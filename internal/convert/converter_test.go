package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pdfmark/internal/pdfreader"
)

type fakeDoc struct {
	pages     int
	failPage  int
	panicPage int
	closed    bool
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) Page(n int) (*pdfreader.Page, error) {
	if n == d.panicPage && n > 0 {
		panic("unexpected value type in content stream")
	}
	if n == d.failPage {
		return nil, fmt.Errorf("damaged content stream")
	}
	bbox := pdfreader.Rect{X0: 10, Y0: 100, X1: 200, Y1: 112}
	return &pdfreader.Page{
		Number: n,
		Blocks: []pdfreader.TextBlock{{
			Lines: []pdfreader.TextLine{{
				Spans: []pdfreader.TextSpan{{
					Text: fmt.Sprintf("content of page %d", n), FontSize: 12, BBox: bbox,
				}},
				BBox: bbox,
			}},
			BBox: bbox,
		}},
	}, nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

func newTestConverter(t *testing.T, cfg Config, doc *fakeDoc) *Converter {
	t.Helper()
	c := New(cfg, nil)
	c.open = func(string, pdfreader.Config) (pdfreader.Document, error) {
		return doc, nil
	}
	return c
}

func outputPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "out.md")
}

func TestConvert_RejectsNonPDF(t *testing.T) {
	c := New(DefaultConfig(), nil)
	_, err := c.Convert(context.Background(), "/tmp/report.docx", Options{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConvert_MissingFile(t *testing.T) {
	c := New(DefaultConfig(), nil)
	_, err := c.Convert(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), Options{})
	assert.ErrorIs(t, err, pdfreader.ErrNotFound)
}

func TestConvert_InvalidRanges(t *testing.T) {
	c := New(DefaultConfig(), nil)

	_, err := c.Convert(context.Background(), "in.pdf", Options{StartPage: -1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.Convert(context.Background(), "in.pdf", Options{StartPage: 5, EndPage: 3})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConvert_StartBeyondLastPage(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(), &fakeDoc{pages: 3})
	_, err := c.Convert(context.Background(), "in.pdf", Options{StartPage: 4, OutputPath: outputPath(t)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConvert_EmptyDocument(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(), &fakeDoc{pages: 0})
	_, err := c.Convert(context.Background(), "in.pdf", Options{OutputPath: outputPath(t)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConvert_HappyPath(t *testing.T) {
	doc := &fakeDoc{pages: 3}
	c := newTestConverter(t, DefaultConfig(), doc)
	out := outputPath(t)

	res, err := c.Convert(context.Background(), "in.pdf", Options{OutputPath: out})
	require.NoError(t, err)

	assert.Equal(t, 3, res.PagesProcessed)
	assert.Empty(t, res.Errors)
	assert.Equal(t, out, res.MarkdownPath)
	for p := 1; p <= 3; p++ {
		assert.Contains(t, res.Markdown, fmt.Sprintf("## 第 %d 页", p))
		assert.Contains(t, res.Markdown, fmt.Sprintf("content of page %d", p))
	}

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, res.Markdown, string(written))
	assert.True(t, doc.closed)
}

func TestConvert_PageFailureDoesNotAbort(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(), &fakeDoc{pages: 3, failPage: 2})

	res, err := c.Convert(context.Background(), "in.pdf", Options{OutputPath: outputPath(t)})
	require.NoError(t, err)

	assert.Equal(t, 3, res.PagesProcessed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "page 2")
	assert.Contains(t, res.Markdown, "<!-- page 2 error: damaged content stream -->")
	assert.Contains(t, res.Markdown, "content of page 1")
	assert.Contains(t, res.Markdown, "content of page 3")
}

func TestConvert_PageReaderPanicDegradesToPageError(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(), &fakeDoc{pages: 3, panicPage: 2})

	res, err := c.Convert(context.Background(), "in.pdf", Options{OutputPath: outputPath(t)})
	require.NoError(t, err)

	assert.Equal(t, 3, res.PagesProcessed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "page 2")
	assert.Contains(t, res.Markdown,
		"<!-- page 2 error: page reader panicked: unexpected value type in content stream -->")
	assert.Contains(t, res.Markdown, "content of page 1")
	assert.Contains(t, res.Markdown, "content of page 3")
}

func TestConvert_ClampsEndPage(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(), &fakeDoc{pages: 2})

	res, err := c.Convert(context.Background(), "in.pdf", Options{EndPage: 50, OutputPath: outputPath(t)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.PagesProcessed)
}

func TestConvert_PageRange(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(), &fakeDoc{pages: 10})

	res, err := c.Convert(context.Background(), "in.pdf",
		Options{StartPage: 3, EndPage: 5, OutputPath: outputPath(t)})
	require.NoError(t, err)

	assert.Equal(t, 3, res.PagesProcessed)
	assert.NotContains(t, res.Markdown, "## 第 2 页")
	assert.Contains(t, res.Markdown, "## 第 3 页")
	assert.Contains(t, res.Markdown, "## 第 5 页")
	assert.NotContains(t, res.Markdown, "## 第 6 页")
}

func TestConvert_ChunkSizeDoesNotChangeOutput(t *testing.T) {
	cfgSmall := DefaultConfig()
	cfgSmall.ChunkSize = 1

	resSmall, err := newTestConverter(t, cfgSmall, &fakeDoc{pages: 7}).
		Convert(context.Background(), "in.pdf", Options{OutputPath: outputPath(t)})
	require.NoError(t, err)

	resLarge, err := newTestConverter(t, DefaultConfig(), &fakeDoc{pages: 7}).
		Convert(context.Background(), "in.pdf", Options{OutputPath: outputPath(t)})
	require.NoError(t, err)

	assert.Equal(t, resLarge.Markdown, resSmall.Markdown)
}

func TestConvert_ProgressMonotonicAndCapped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkSize = 2
	c := newTestConverter(t, cfg, &fakeDoc{pages: 7})

	var reports []int
	_, err := c.Convert(context.Background(), "in.pdf", Options{
		OutputPath: outputPath(t),
		OnProgress: func(p int) { reports = append(reports, p) },
	})
	require.NoError(t, err)

	require.NotEmpty(t, reports)
	prev := -1
	for _, p := range reports {
		assert.GreaterOrEqual(t, p, prev)
		assert.LessOrEqual(t, p, 99)
		prev = p
	}
	assert.Equal(t, 99, reports[len(reports)-1])
}

func TestConvert_CanceledContext(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(), &fakeDoc{pages: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Convert(ctx, "in.pdf", Options{OutputPath: outputPath(t)})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvert_DefaultArtifactName(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	c := newTestConverter(t, DefaultConfig(), &fakeDoc{pages: 1})

	res, err := c.Convert(context.Background(), src, Options{})
	require.NoError(t, err)

	base := filepath.Base(res.MarkdownPath)
	assert.Equal(t, dir, filepath.Dir(res.MarkdownPath))
	assert.True(t, strings.HasPrefix(base, "report_converted_"), base)
	assert.True(t, strings.HasSuffix(base, ".md"), base)
	assert.FileExists(t, res.MarkdownPath)
}

func TestConvert_CreatesOutputDirectories(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "deep", "out.md")
	c := newTestConverter(t, DefaultConfig(), &fakeDoc{pages: 1})

	res, err := c.Convert(context.Background(), "in.pdf", Options{OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, out, res.MarkdownPath)
	assert.FileExists(t, out)
}
