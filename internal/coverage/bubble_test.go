package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBubbleSize(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		max      int64
		expected float64
	}{
		{name: "zero total", total: 0, max: 100, expected: 5},
		{name: "at max", total: 100, max: 100, expected: 25},
		{name: "quarter is half extra", total: 25, max: 100, expected: 15},
		{name: "empty set", total: 0, max: 0, expected: 5},
		{name: "above max clamps", total: 400, max: 100, expected: 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, BubbleSize(tt.total, tt.max, 5, 20), 1e-9)
		})
	}
}

func TestBubbleSize_MonotonicAndBounded(t *testing.T) {
	prev := BubbleSize(0, 1000, DefaultBubbleMinM, DefaultBubbleExtraM)
	for total := int64(1); total <= 1000; total++ {
		s := BubbleSize(total, 1000, DefaultBubbleMinM, DefaultBubbleExtraM)
		assert.GreaterOrEqual(t, s, prev)
		assert.GreaterOrEqual(t, s, DefaultBubbleMinM)
		assert.LessOrEqual(t, s, DefaultBubbleMinM+DefaultBubbleExtraM)
		prev = s
	}
}

func TestBubbleSizes(t *testing.T) {
	sizes := BubbleSizes([]Result{{TotalWeight: 100}, {TotalWeight: 0}, {TotalWeight: 25}}, 5, 20)
	assert.InDeltaSlice(t, []float64{25, 5, 15}, sizes, 1e-9)
}
