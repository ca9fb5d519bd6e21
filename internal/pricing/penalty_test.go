package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngine_DNFPricePenalty(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name      string
		dnfLap    int
		totalLaps int
		want      float64
	}{
		{name: "lap one retirement costs max", dnfLap: 1, totalLaps: 50, want: 20},
		{name: "final lap retirement costs min", dnfLap: 50, totalLaps: 50, want: 5},
		{name: "half distance", dnfLap: 25, totalLaps: 50, want: 13},
		{name: "penultimate lap", dnfLap: 49, totalLaps: 50, want: 6},
		{name: "single lap race takes min", dnfLap: 1, totalLaps: 1, want: 5},
		{name: "zero lap race takes min", dnfLap: 0, totalLaps: 0, want: 5},
		{name: "zero dnf lap takes max", dnfLap: 0, totalLaps: 50, want: 20},
		{name: "negative dnf lap takes max", dnfLap: -3, totalLaps: 50, want: 20},
		{name: "dnf lap past distance takes min", dnfLap: 60, totalLaps: 50, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.DNFPricePenalty(tt.dnfLap, tt.totalLaps)
			assert.Equal(t, tt.want, got)
		})
	}
}

// The later a driver retires, the less it should cost. Walk every lap
// of a full-distance race and check the penalty never increases.
func TestEngine_DNFPricePenaltyMonotonic(t *testing.T) {
	e := testEngine()

	const totalLaps = 50
	prev := e.DNFPricePenalty(1, totalLaps)
	assert.Equal(t, DNFPenaltyMax, prev)

	for lap := 2; lap <= totalLaps; lap++ {
		p := e.DNFPricePenalty(lap, totalLaps)
		assert.LessOrEqual(t, p, prev, "penalty rose between lap %d and %d", lap-1, lap)
		assert.GreaterOrEqual(t, p, DNFPenaltyMin)
		assert.LessOrEqual(t, p, DNFPenaltyMax)
		prev = p
	}

	assert.Equal(t, DNFPenaltyMin, prev)
}

func TestEngine_ApplyDNFPenalty(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name         string
		price        float64
		dnfLap       int
		totalLaps    int
		wantNewPrice float64
		wantPenalty  float64
	}{
		{
			name:         "early retirement at healthy price",
			price:        100,
			dnfLap:       1,
			totalLaps:    50,
			wantNewPrice: 80,
			wantPenalty:  20,
		},
		{
			name:         "late retirement at healthy price",
			price:        100,
			dnfLap:       50,
			totalLaps:    50,
			wantNewPrice: 95,
			wantPenalty:  5,
		},
		{
			// 40 - 20 = 20 would undercut the DNF floor
			name:         "penalty floors at thirty",
			price:        40,
			dnfLap:       1,
			totalLaps:    50,
			wantNewPrice: 30,
			wantPenalty:  20,
		},
		{
			// The floor sits below the regular minimum price
			name:         "minimum price can break below fifty",
			price:        50,
			dnfLap:       1,
			totalLaps:    50,
			wantNewPrice: 30,
			wantPenalty:  20,
		},
		{
			// 31 - 5 = 26 still floors; penalty reported in full
			name:         "reported penalty ignores the floor",
			price:        31,
			dnfLap:       50,
			totalLaps:    50,
			wantNewPrice: 30,
			wantPenalty:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.ApplyDNFPenalty(tt.price, tt.dnfLap, tt.totalLaps)
			assert.Equal(t, tt.wantNewPrice, result.NewPrice)
			assert.Equal(t, tt.wantPenalty, result.Penalty)
		})
	}
}
