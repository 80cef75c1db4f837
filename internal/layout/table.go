package layout

import "strings"

// renderTable turns extracted table cells into a Markdown table. The
// first row becomes the header; shorter rows are right-padded and
// longer rows truncated to the header width. Tables with fewer than two
// rows, fewer than minColumns columns, or only whitespace content yield
// the empty string.
func renderTable(cells [][]string, minColumns int) string {
	if len(cells) < 2 {
		return ""
	}

	rows := make([][]string, len(cells))
	maxCols := 0
	hasContent := false
	for i, row := range cells {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = normalizeCell(cell)
			if rows[i][j] != "" {
				hasContent = true
			}
		}
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	if maxCols < minColumns || !hasContent {
		return ""
	}

	header := rows[0]
	width := len(header)
	if width < 2 {
		// Header narrower than the body; pad it to the table width.
		padded := make([]string, maxCols)
		copy(padded, header)
		header = padded
		width = maxCols
	}

	var sb strings.Builder
	writeRow(&sb, header, width)
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(&sb, row, width)
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, row []string, width int) {
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		sb.WriteString(" " + cell + " |")
	}
	sb.WriteString("\n")
}

// normalizeCell converts newlines to literal <br> tokens and collapses
// whitespace runs so the cell stays on one Markdown table line.
func normalizeCell(cell string) string {
	cell = strings.ReplaceAll(cell, "\r\n", "\n")
	parts := strings.Split(cell, "\n")
	for i, p := range parts {
		parts[i] = collapseWhitespace(p)
	}
	out := strings.Join(parts, "<br>")
	for strings.HasPrefix(out, "<br>") {
		out = strings.TrimPrefix(out, "<br>")
	}
	for strings.HasSuffix(out, "<br>") {
		out = strings.TrimSuffix(out, "<br>")
	}
	return out
}
