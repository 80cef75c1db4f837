package pdfreader

import (
	"math"
	"sort"
	"strings"
)

// detectTables finds grid-like regions by looking for runs of consecutive
// lines whose span start positions align into the same columns. A run of
// at least two aligned multi-column lines becomes a TableRegion.
func detectTables(lines []TextLine, cfg Config) []TableRegion {
	minCols := cfg.TableMinColumns
	if minCols < 2 {
		minCols = 2
	}

	var regions []TableRegion
	var run []TextLine
	var runCols []float64

	flush := func() {
		if len(run) >= 2 {
			regions = append(regions, buildTable(run, runCols))
		}
		run = nil
		runCols = nil
	}

	for _, line := range lines {
		starts := spanStarts(line)
		if len(starts) < minCols {
			flush()
			continue
		}
		if len(run) > 0 && !columnsAligned(runCols, starts, cfg.ColumnTolerance) {
			flush()
		}
		if len(run) == 0 {
			runCols = starts
		}
		run = append(run, line)
	}
	flush()

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].BBox.Y0 < regions[j].BBox.Y0
	})
	for i := range regions {
		regions[i].Index = i
	}
	return regions
}

func spanStarts(line TextLine) []float64 {
	starts := make([]float64, 0, len(line.Spans))
	for _, s := range line.Spans {
		starts = append(starts, s.BBox.X0)
	}
	return starts
}

// columnsAligned reports whether two rows share the same column layout:
// equal column counts with every start within tolerance of its peer.
func columnsAligned(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// buildTable converts an aligned run of lines into a rectangular cell
// matrix. Each span lands in the column whose start is nearest; spans
// colliding in one cell are joined with a space.
func buildTable(run []TextLine, cols []float64) TableRegion {
	cells := make([][]string, len(run))
	bbox := run[0].BBox
	for r, line := range run {
		row := make([]string, len(cols))
		for _, s := range line.Spans {
			c := nearestColumn(cols, s.BBox.X0)
			if row[c] == "" {
				row[c] = s.Text
			} else {
				row[c] += " " + s.Text
			}
		}
		for c := range row {
			row[c] = strings.TrimSpace(row[c])
		}
		cells[r] = row
		bbox = bbox.Union(line.BBox)
	}
	return TableRegion{BBox: bbox, Cells: cells}
}

func nearestColumn(cols []float64, x float64) int {
	best := 0
	bestDist := math.Abs(cols[0] - x)
	for i := 1; i < len(cols); i++ {
		if d := math.Abs(cols[i] - x); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
