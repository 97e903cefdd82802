package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPlanLevels verifies the arithmetic progression of grid levels.
func TestPlanLevels(t *testing.T) {
	levels, err := PlanLevels(100, 200, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 125, 150, 175, 200}, levels)
}

// TestPlanLevelsStrictlyIncreasing verifies levels are distinct and ordered
// even for a step that does not divide evenly.
func TestPlanLevelsStrictlyIncreasing(t *testing.T) {
	levels, err := PlanLevels(100, 200, 7)
	require.NoError(t, err)
	require.Len(t, levels, 7)

	assert.Equal(t, 100.0, levels[0])
	assert.Equal(t, 200.0, levels[6])
	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i], levels[i-1])
	}
}

// TestPlanLevelsValidation verifies invalid parameters are rejected with a
// validation-kind error.
func TestPlanLevelsValidation(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
		count    int
	}{
		{"too few levels", 100, 200, 1},
		{"inverted bounds", 200, 100, 5},
		{"equal bounds", 100, 100, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanLevels(tt.min, tt.max, tt.count)
			require.Error(t, err)

			var cycleErr *CycleError
			require.True(t, errors.As(err, &cycleErr))
			assert.Equal(t, ErrKindValidation, cycleErr.Kind)
		})
	}
}
