package pdfreader

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	// ErrNotFound indicates the PDF file does not exist.
	ErrNotFound = errors.New("pdf file not found")

	// ErrCorrupt indicates the file exists but cannot be parsed as a PDF.
	ErrCorrupt = errors.New("pdf file is corrupt or not a PDF")
)

// Config controls geometry extraction.
type Config struct {
	DetectTables  bool
	ExtractImages bool

	// LineTolerance is the maximum Y distance (points) between glyph
	// baselines considered part of the same visual line.
	LineTolerance float64

	// BlockGap is the maximum vertical gap (points) between consecutive
	// lines of the same text block.
	BlockGap float64

	// WordGapFactor is the fraction of the font size a horizontal gap
	// must exceed to start a new span within a line.
	WordGapFactor float64

	// ColumnTolerance is the maximum X offset (points) for cell starts
	// on consecutive lines to count as the same table column.
	ColumnTolerance float64

	TableMinColumns int
}

// DefaultConfig returns extraction defaults tuned for typical body text.
func DefaultConfig() Config {
	return Config{
		DetectTables:    true,
		ExtractImages:   true,
		LineTolerance:   2.0,
		BlockGap:        6.0,
		WordGapFactor:   0.5,
		ColumnTolerance: 10.0,
		TableMinColumns: 2,
	}
}

// Open opens a PDF with default extraction settings.
func Open(path string) (Document, error) {
	return OpenWithConfig(path, DefaultConfig())
}

// OpenWithConfig opens a PDF for geometry extraction. It fails with
// ErrNotFound if the path does not exist and ErrCorrupt if the file
// cannot be parsed.
func OpenWithConfig(path string, cfg Config) (Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	// pdfcpu validates the cross-reference structure; dslipak/pdf is more
	// permissive, so this is the corruption gate.
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return &fileDocument{
		path:      path,
		cfg:       cfg,
		reader:    reader,
		pageCount: pageCount,
	}, nil
}

// fileDocument implements Document on top of dslipak/pdf (positioned
// text runs) and pdfcpu (embedded image extraction).
type fileDocument struct {
	path      string
	cfg       Config
	reader    *pdf.Reader
	pageCount int

	imgOnce sync.Once
	imgErr  error
	images  map[int][]image.Image
}

func (d *fileDocument) PageCount() int { return d.pageCount }

func (d *fileDocument) Close() error { return nil }

func (d *fileDocument) Page(n int) (*Page, error) {
	if n < 1 || n > d.pageCount {
		return nil, fmt.Errorf("page %d out of range [1,%d]", n, d.pageCount)
	}

	p := d.reader.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d is null", n)
	}

	pageW, pageH := pageDimensions(p)
	page := &Page{
		Number: n,
		Bounds: Rect{X0: 0, Y0: 0, X1: pageW, Y1: pageH},
	}

	glyphs := collectGlyphs(p, pageH)
	lines := groupLines(glyphs, d.cfg)
	page.Blocks = groupBlocks(lines, d.cfg)

	if d.cfg.DetectTables {
		page.Tables = detectTables(lines, d.cfg)
	}

	if d.cfg.ExtractImages {
		imgs, err := d.pageImages(n)
		if err != nil {
			// Image extraction failure degrades to a text-only page.
			imgs = nil
		}
		page.Images = imgs
	}

	return page, nil
}

// glyph is a single positioned text run from the content stream, already
// flipped into top-left origin coordinates.
type glyph struct {
	text string
	size float64
	bold bool
	bbox Rect
}

// collectGlyphs reads the page content stream and flips the PDF's
// mathematical y axis (origin bottom-left, y up) into top-left origin so
// ascending Y0 matches visual reading order.
func collectGlyphs(p pdf.Page, pageH float64) []glyph {
	content := p.Content()
	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		top := pageH - t.Y - t.FontSize
		glyphs = append(glyphs, glyph{
			text: t.S,
			size: t.FontSize,
			bold: isBoldFont(t.Font),
			bbox: Rect{X0: t.X, Y0: top, X1: t.X + t.W, Y1: pageH - t.Y},
		})
	}
	return glyphs
}

func isBoldFont(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "bold") || strings.Contains(lower, "black") || strings.Contains(lower, "heavy")
}

// pageDimensions resolves the page MediaBox, walking up the page tree for
// inherited values. Falls back to US Letter when absent.
func pageDimensions(p pdf.Page) (float64, float64) {
	box := inheritedAttr(p.V, "MediaBox")
	if box.IsNull() || box.Len() != 4 {
		return 612, 792
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return 612, 792
	}
	return w, h
}

func inheritedAttr(v pdf.Value, key string) pdf.Value {
	for i := 0; i < 32 && !v.IsNull(); i++ {
		if attr := v.Key(key); !attr.IsNull() {
			return attr
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}
