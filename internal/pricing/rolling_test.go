package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngine_RollingAverage(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name   string
		points []float64
		flags  []bool
		want   float64
	}{
		{
			name:   "empty series",
			points: nil,
			flags:  nil,
			want:   0,
		},
		{
			name:   "single race",
			points: []float64{25},
			flags:  nil,
			want:   25,
		},
		{
			// Only the five most recent entries count
			name:   "window cuts older entries",
			points: []float64{10, 20, 30, 40, 50, 100, 200},
			flags:  nil,
			want:   30,
		},
		{
			name:   "full window of races",
			points: []float64{25, 18, 15, 12, 10},
			flags:  nil,
			want:   16,
		},
		{
			// (8*0.75 + 25) / (0.75 + 1)
			name:   "sprint entry weighs less",
			points: []float64{8, 25},
			flags:  []bool{true, false},
			want:   31.0 / 1.75,
		},
		{
			// Weight applies to numerator and denominator alike, so a
			// pure-sprint window averages like a pure-race window
			name:   "all sprints match plain mean",
			points: []float64{8, 6, 4},
			flags:  []bool{true, true, true},
			want:   6,
		},
		{
			// Flags shorter than points leave the tail at race weight
			name:   "short flag slice",
			points: []float64{8, 25, 18},
			flags:  []bool{true},
			want:   49.0 / 2.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.RollingAverage(tt.points, tt.flags)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestEngine_RollingAverageWindowMatchesConstant(t *testing.T) {
	e := testEngine()

	// An entry past the window must not move the result.
	base := make([]float64, RollingWindow)
	for i := range base {
		base[i] = float64((i + 1) * 10)
	}
	inWindow := e.RollingAverage(base, nil)

	extended := append(append([]float64{}, base...), 9999)
	assert.Equal(t, inWindow, e.RollingAverage(extended, nil))
}
