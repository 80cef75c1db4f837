package pdfreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRect_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"disjoint horizontal", Rect{0, 0, 10, 10}, Rect{20, 0, 30, 10}, false},
		{"disjoint vertical", Rect{0, 0, 10, 10}, Rect{0, 20, 10, 30}, false},
		{"partial overlap", Rect{0, 0, 10, 10}, Rect{5, 5, 15, 15}, true},
		{"contained", Rect{0, 0, 10, 10}, Rect{2, 2, 8, 8}, true},
		{"touching edge", Rect{0, 0, 10, 10}, Rect{10, 0, 20, 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestRect_OverlapRatio(t *testing.T) {
	a := Rect{0, 0, 10, 10}

	// Fully contained in a larger rect.
	assert.InDelta(t, 1.0, a.OverlapRatio(Rect{-5, -5, 15, 15}), 1e-9)

	// Half covered.
	assert.InDelta(t, 0.5, a.OverlapRatio(Rect{5, 0, 20, 10}), 1e-9)

	// No overlap.
	assert.Zero(t, a.OverlapRatio(Rect{30, 30, 40, 40}))

	// Degenerate rect has ratio 0 regardless of position.
	empty := Rect{5, 5, 5, 5}
	assert.Zero(t, empty.OverlapRatio(a))
}

func TestRect_OverlapRatio_Asymmetry(t *testing.T) {
	// A small block inside a big table: block ratio is high, table ratio low.
	block := Rect{10, 10, 20, 20}
	table := Rect{0, 0, 100, 100}

	assert.InDelta(t, 1.0, block.OverlapRatio(table), 1e-9)
	assert.InDelta(t, 0.01, table.OverlapRatio(block), 1e-9)
}

func TestRect_Union(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{5, -5, 20, 8}
	assert.Equal(t, Rect{0, -5, 20, 10}, a.Union(b))
}
