package ocr

import (
	"image"
	"strings"
)

// ctcGreedyDecode performs greedy CTC decoding over per-step class
// probabilities: take the argmax at each step, collapse repeats, skip
// the blank class (index 0). Class i>0 maps to dict[i-1].
func ctcGreedyDecode(probs []float32, steps, classes int, dict []string) string {
	if steps <= 0 || classes <= 0 || len(probs) < steps*classes {
		return ""
	}

	var sb strings.Builder
	prev := -1
	for t := 0; t < steps; t++ {
		row := probs[t*classes : (t+1)*classes]
		best := 0
		for c := 1; c < classes; c++ {
			if row[c] > row[best] {
				best = c
			}
		}
		if best != 0 && best != prev {
			if idx := best - 1; idx < len(dict) {
				sb.WriteString(dict[idx])
			}
		}
		prev = best
	}
	return sb.String()
}

// connectedRegions finds bounding boxes of 4-connected true regions in a
// binary mask, dropping regions smaller than minSize in either dimension.
func connectedRegions(mask []bool, w, h, minSize int) []image.Rectangle {
	visited := make([]bool, len(mask))
	var boxes []image.Rectangle
	var queue []int

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}

		minX, minY := w, h
		maxX, maxY := 0, 0
		queue = append(queue[:0], start)
		visited[start] = true

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]

			x, y := idx%w, idx/w
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for _, n := range [4]int{idx - 1, idx + 1, idx - w, idx + w} {
				if n < 0 || n >= len(mask) || visited[n] || !mask[n] {
					continue
				}
				// Horizontal neighbors must stay on the same row.
				if (n == idx-1 || n == idx+1) && n/w != y {
					continue
				}
				visited[n] = true
				queue = append(queue, n)
			}
		}

		if maxX-minX+1 >= minSize && maxY-minY+1 >= minSize {
			boxes = append(boxes, image.Rect(minX, minY, maxX+1, maxY+1))
		}
	}
	return boxes
}
