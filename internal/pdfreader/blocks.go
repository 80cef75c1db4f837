package pdfreader

import "sort"

// groupLines clusters glyphs into visual lines and splits each line into
// spans wherever the font changes or a horizontal gap wide enough to be
// word-or-column spacing appears.
func groupLines(glyphs []glyph, cfg Config) []TextLine {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].bbox.Y0 != sorted[j].bbox.Y0 {
			return sorted[i].bbox.Y0 < sorted[j].bbox.Y0
		}
		return sorted[i].bbox.X0 < sorted[j].bbox.X0
	})

	var rows [][]glyph
	rowTop := sorted[0].bbox.Y0
	current := []glyph{sorted[0]}
	for _, g := range sorted[1:] {
		if g.bbox.Y0-rowTop > cfg.LineTolerance {
			rows = append(rows, current)
			current = nil
			rowTop = g.bbox.Y0
		}
		current = append(current, g)
	}
	rows = append(rows, current)

	lines := make([]TextLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, buildLine(row, cfg))
	}
	return lines
}

// buildLine orders the glyphs of one visual line left to right and merges
// adjacent glyphs into spans.
func buildLine(row []glyph, cfg Config) TextLine {
	sort.SliceStable(row, func(i, j int) bool {
		return row[i].bbox.X0 < row[j].bbox.X0
	})

	var spans []TextSpan
	var cur TextSpan
	var curText []byte
	flush := func() {
		if len(curText) == 0 {
			return
		}
		cur.Text = string(curText)
		spans = append(spans, cur)
		curText = nil
	}

	for _, g := range row {
		gap := g.bbox.X0 - cur.BBox.X1
		sameRun := len(curText) > 0 &&
			g.size == cur.FontSize &&
			g.bold == cur.Bold &&
			gap <= cfg.WordGapFactor*maxf(g.size, cur.FontSize)
		if sameRun {
			curText = append(curText, g.text...)
			cur.BBox = cur.BBox.Union(g.bbox)
			continue
		}
		flush()
		cur = TextSpan{FontSize: g.size, Bold: g.bold, BBox: g.bbox}
		curText = append(curText, g.text...)
	}
	flush()

	line := TextLine{Spans: spans}
	for i, s := range spans {
		if i == 0 {
			line.BBox = s.BBox
		} else {
			line.BBox = line.BBox.Union(s.BBox)
		}
	}
	return line
}

// groupBlocks merges consecutive lines separated by at most BlockGap into
// paragraph-level text blocks.
func groupBlocks(lines []TextLine, cfg Config) []TextBlock {
	if len(lines) == 0 {
		return nil
	}

	var blocks []TextBlock
	cur := TextBlock{Lines: []TextLine{lines[0]}, BBox: lines[0].BBox}
	for _, line := range lines[1:] {
		if line.BBox.Y0-cur.BBox.Y1 > cfg.BlockGap {
			blocks = append(blocks, cur)
			cur = TextBlock{Lines: []TextLine{line}, BBox: line.BBox}
			continue
		}
		cur.Lines = append(cur.Lines, line)
		cur.BBox = cur.BBox.Union(line.BBox)
	}
	blocks = append(blocks, cur)
	return blocks
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
