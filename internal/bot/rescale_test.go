package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNeedsRescale verifies the trailing-band trigger on both bounds.
func TestNeedsRescale(t *testing.T) {
	d := RescaleDetector{TrailingPercent: 0.1}

	// width=100, threshold=10: trigger above 190 or below 110
	tests := []struct {
		name  string
		price float64
		want  bool
	}{
		{"well inside", 150, false},
		{"near upper bound", 195, true},
		{"at upper trigger edge", 190, false},
		{"near lower bound", 105, true},
		{"at lower trigger edge", 110, false},
		{"above range", 250, true},
		{"below range", 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.NeedsRescale(tt.price, 100, 200))
		})
	}
}

// TestRecenter verifies the range is recentered on the current price while
// preserving its width, rounded to whole price units.
func TestRecenter(t *testing.T) {
	d := RescaleDetector{TrailingPercent: 0.1}

	newMin, newMax := d.Recenter(195, 100, 200)
	assert.Equal(t, 145.0, newMin)
	assert.Equal(t, 245.0, newMax)
	assert.Equal(t, 100.0, newMax-newMin)

	// non-integer current price still yields integer bounds
	newMin, newMax = d.Recenter(195.4, 100, 200)
	assert.Equal(t, 145.0, newMin)
	assert.Equal(t, 245.0, newMax)
}
