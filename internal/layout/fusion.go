// Package layout merges the text blocks, tables, and images of one PDF
// page into ordered Markdown.
//
// Fusion runs in two passes. The first pass walks text blocks in reading
// order and replaces blocks that fall inside a detected table with a
// single placeholder comment per table; images get placeholder comments
// anchored at their own geometry. The second pass renders each table and
// recognizes each image, substituting the placeholders in the assembled
// text. Anchoring everything on block geometry keeps reading order
// correct while preventing table rows from appearing twice.
package layout

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/MeKo-Tech/pdfmark/internal/pdfreader"
)

// Recognizer extracts text from an image. Satisfied by ocr.Service.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

const (
	tablePlaceholderFmt = "<!-- TABLE_PLACEHOLDER_%d -->"
	imagePlaceholderFmt = "<!-- IMAGE_PLACEHOLDER_%d -->"
)

// Config tunes the fusion pass.
type Config struct {
	// TableOverlapRatio is the minimum fraction of a text block's area
	// that must fall inside a table bbox for the block to be absorbed
	// by that table.
	TableOverlapRatio float64

	// TableMinColumns is the minimum column count for a table to render.
	TableMinColumns int

	// HeadingFontSize is the font size above which a span renders bold.
	HeadingFontSize float64

	// ParagraphHeight is the block height above which the block is
	// separated from its neighbors by blank lines.
	ParagraphHeight float64

	// PreserveFormatting keeps line structure, bold styling, and
	// paragraph spacing. When false, blocks render as plain collapsed
	// text.
	PreserveFormatting bool
}

// DefaultConfig returns the fusion defaults.
func DefaultConfig() Config {
	return Config{
		TableOverlapRatio:  0.7,
		TableMinColumns:    2,
		HeadingFontSize:    14,
		ParagraphHeight:    20,
		PreserveFormatting: true,
	}
}

// Result is the fused output of one page.
type Result struct {
	Markdown string

	// TablesRendered counts tables that passed validation and produced
	// Markdown output.
	TablesRendered int
}

// Fuser converts the layout of a single page into Markdown.
type Fuser struct {
	cfg Config
	ocr Recognizer
}

// NewFuser builds a Fuser. A nil recognizer renders every image as a
// failed OCR block.
func NewFuser(cfg Config, ocr Recognizer) *Fuser {
	if cfg.TableOverlapRatio <= 0 {
		cfg.TableOverlapRatio = 0.7
	}
	if cfg.TableMinColumns <= 0 {
		cfg.TableMinColumns = 2
	}
	if cfg.HeadingFontSize <= 0 {
		cfg.HeadingFontSize = 14
	}
	if cfg.ParagraphHeight <= 0 {
		cfg.ParagraphHeight = 20
	}
	return &Fuser{cfg: cfg, ocr: ocr}
}

// element is one item of the first-pass emission, ordered by yAnchor.
type element struct {
	kind    string // "text", "table", "image"
	yAnchor float64
	content string
}

// FusePage merges one page into Markdown.
func (f *Fuser) FusePage(ctx context.Context, page *pdfreader.Page) (Result, error) {
	if page == nil {
		return Result{}, fmt.Errorf("nil page")
	}

	tables := make([]pdfreader.TableRegion, len(page.Tables))
	copy(tables, page.Tables)
	sort.SliceStable(tables, func(i, j int) bool {
		return tables[i].BBox.Y0 < tables[j].BBox.Y0
	})

	blocks := make([]pdfreader.TextBlock, len(page.Blocks))
	copy(blocks, page.Blocks)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].BBox.Y0 < blocks[j].BBox.Y0
	})

	var elements []element
	processedTables := make(map[int]bool)

	for _, block := range blocks {
		tIdx, ratio := bestTable(block.BBox, tables)
		if tIdx >= 0 && ratio > f.cfg.TableOverlapRatio {
			if !processedTables[tIdx] {
				processedTables[tIdx] = true
				elements = append(elements, element{
					kind:    "table",
					yAnchor: tableByIndex(tables, tIdx).BBox.Y0,
					content: fmt.Sprintf(tablePlaceholderFmt, tIdx),
				})
			}
			continue
		}
		content := f.formatBlock(block)
		if content == "" {
			continue
		}
		elements = append(elements, element{
			kind:    "text",
			yAnchor: block.BBox.Y0,
			content: content,
		})
	}

	for i, img := range page.Images {
		elements = append(elements, element{
			kind:    "image",
			yAnchor: img.BBox.Y0,
			content: fmt.Sprintf(imagePlaceholderFmt, i),
		})
	}

	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].yAnchor < elements[j].yAnchor
	})

	var sb strings.Builder
	for i, el := range elements {
		if i > 0 {
			sb.WriteString("\n")
		}
		if el.kind == "table" {
			sb.WriteString("\n" + el.content + "\n")
		} else {
			sb.WriteString(el.content)
		}
	}
	markdown := sb.String()

	rendered := 0
	for tIdx := range processedTables {
		table := tableByIndex(tables, tIdx)
		md := renderTable(table.Cells, f.cfg.TableMinColumns)
		replacement := ""
		if md != "" {
			rendered++
			replacement = "**表格:**\n\n" + md + "\n"
		}
		markdown = strings.ReplaceAll(markdown, fmt.Sprintf(tablePlaceholderFmt, tIdx), replacement)
	}

	for i, img := range page.Images {
		placeholder := fmt.Sprintf(imagePlaceholderFmt, i)
		if !strings.Contains(markdown, placeholder) {
			continue
		}
		block := f.imageBlock(ctx, page.Number, i, img)
		markdown = strings.ReplaceAll(markdown, placeholder, block)
	}

	return Result{Markdown: markdown, TablesRendered: rendered}, nil
}

// bestTable returns the index and overlap ratio of the table that best
// contains bbox, or (-1, 0) when no table overlaps it.
func bestTable(bbox pdfreader.Rect, tables []pdfreader.TableRegion) (int, float64) {
	best, bestRatio := -1, 0.0
	for _, t := range tables {
		if ratio := bbox.OverlapRatio(t.BBox); ratio > bestRatio {
			best, bestRatio = t.Index, ratio
		}
	}
	return best, bestRatio
}

func tableByIndex(tables []pdfreader.TableRegion, idx int) pdfreader.TableRegion {
	for _, t := range tables {
		if t.Index == idx {
			return t
		}
	}
	return pdfreader.TableRegion{}
}
