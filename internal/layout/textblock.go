package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/MeKo-Tech/pdfmark/internal/pdfreader"
)

// formatBlock renders one text block as Markdown lines.
//
// Spans are regrouped by their rounded baseline so fragments split
// across extraction lines rejoin into one visual line, then sorted
// left to right. Large or bold spans render as **bold**. Blocks taller
// than ParagraphHeight are padded with blank lines so they read as
// their own paragraph.
func (f *Fuser) formatBlock(block pdfreader.TextBlock) string {
	if !f.cfg.PreserveFormatting {
		return plainBlock(block)
	}

	buckets := make(map[int][]pdfreader.TextSpan)
	var order []int
	for _, line := range block.Lines {
		for _, span := range line.Spans {
			key := int(math.Round(span.BBox.Y0))
			if _, seen := buckets[key]; !seen {
				order = append(order, key)
			}
			buckets[key] = append(buckets[key], span)
		}
	}
	sort.Ints(order)

	lines := make([]string, 0, len(order))
	for _, key := range order {
		spans := buckets[key]
		sort.SliceStable(spans, func(i, j int) bool {
			return spans[i].BBox.X0 < spans[j].BBox.X0
		})

		parts := make([]string, 0, len(spans))
		for _, span := range spans {
			text := collapseWhitespace(span.Text)
			if text == "" {
				continue
			}
			if span.FontSize > f.cfg.HeadingFontSize || span.Bold {
				text = "**" + text + "**"
			}
			parts = append(parts, text)
		}
		if len(parts) == 0 {
			continue
		}
		lines = append(lines, strings.Join(parts, " "))
	}

	out := strings.Join(lines, "\n")
	if out != "" && block.BBox.Height() > f.cfg.ParagraphHeight {
		out = "\n" + out + "\n"
	}
	return out
}

// plainBlock joins the block's span texts in extraction order, without
// styling or line structure.
func plainBlock(block pdfreader.TextBlock) string {
	var parts []string
	for _, line := range block.Lines {
		for _, span := range line.Spans {
			if text := collapseWhitespace(span.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " ")
}

// collapseWhitespace trims the string and squeezes internal whitespace
// runs to a single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
