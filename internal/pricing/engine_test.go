package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/config"
	"github.com/wonny/podium/backend/pkg/logger"
)

func testEngine() *Engine {
	log := logger.New(&config.Config{
		Env:       "test",
		LogLevel:  "error",
		LogFormat: "json",
	})
	return NewEngine(log)
}

func TestEngine_InitialPrice(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name       string
		prevPoints int
		want       float64
	}{
		{name: "mid-field driver", prevPoints: 360, want: 225},     // 15 pts/race * 15
		{name: "championship winner", prevPoints: 480, want: 300},  // 20 pts/race * 15
		{name: "rookie with no history", prevPoints: 0, want: 50},  // clamps to floor
		{name: "runaway total clamps", prevPoints: 1000, want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.InitialPrice(tt.prevPoints)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_PPM(t *testing.T) {
	e := testEngine()

	assert.Equal(t, 1.0, e.PPM(250, 250))
	assert.Equal(t, 0.5, e.PPM(100, 200))
	assert.Equal(t, 0.0, e.PPM(100, 0), "zero price defines PPM as 0")
	assert.Equal(t, 0.0, e.PPM(0, 250))
}

func TestEngine_PerformanceTier(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name string
		ppm  float64
		want contracts.PerformanceTier
	}{
		{name: "well above great", ppm: 1.5, want: contracts.PerfGreat},
		{name: "exactly great boundary", ppm: 1.0, want: contracts.PerfGreat},
		{name: "just under great", ppm: 0.99, want: contracts.PerfGood},
		{name: "exactly good boundary", ppm: 0.5, want: contracts.PerfGood},
		{name: "just under good", ppm: 0.49, want: contracts.PerfPoor},
		{name: "exactly poor boundary", ppm: 0.2, want: contracts.PerfPoor},
		{name: "just under poor", ppm: 0.19, want: contracts.PerfTerrible},
		{name: "zero", ppm: 0, want: contracts.PerfTerrible},
		{name: "negative", ppm: -0.4, want: contracts.PerfTerrible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.PerformanceTier(tt.ppm))
		})
	}
}

func TestEngine_PriceTier(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name  string
		price float64
		want  contracts.PriceTier
	}{
		{name: "above A threshold", price: 241, want: contracts.TierA},
		{name: "exactly A threshold stays B", price: 240, want: contracts.TierB},
		{name: "above B threshold", price: 121, want: contracts.TierB},
		{name: "exactly B threshold stays C", price: 120, want: contracts.TierC},
		{name: "floor price", price: 50, want: contracts.TierC},
		{name: "ceiling price", price: 500, want: contracts.TierA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.PriceTier(tt.price))
		})
	}
}

func TestEngine_PriceChange(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name         string
		points       float64
		price        float64
		wantNewPrice float64
		wantChange   float64
	}{
		{
			// 250 points at price 250: PPM 1.0 (great), tier A
			name:         "great season at tier A",
			points:       250,
			price:        250,
			wantNewPrice: 286,
			wantChange:   36,
		},
		{
			// PPM 0.5 (good), tier B
			name:         "good season at tier B",
			points:       100,
			price:        200,
			wantNewPrice: 212,
			wantChange:   12,
		},
		{
			// PPM 0.25 (poor), tier C
			name:         "poor season at tier C",
			points:       25,
			price:        100,
			wantNewPrice: 91,
			wantChange:   -9,
		},
		{
			// PPM 0 (terrible), tier A
			name:         "terrible season at tier A",
			points:       0,
			price:        300,
			wantNewPrice: 264,
			wantChange:   -36,
		},
		{
			// Ceiling clamp: 490 + 36 would exceed MaxPrice
			name:         "upward move clamps at ceiling",
			points:       500,
			price:        490,
			wantNewPrice: 500,
			wantChange:   10,
		},
		{
			// Already at ceiling, great performance moves nothing
			name:         "great at ceiling holds",
			points:       600,
			price:        500,
			wantNewPrice: 500,
			wantChange:   0,
		},
		{
			// Floor clamp: 55 - 18 would undercut MinPrice
			name:         "downward move clamps at floor",
			points:       0,
			price:        55,
			wantNewPrice: 50,
			wantChange:   -5,
		},
		{
			// Already at floor, terrible performance moves nothing
			name:         "terrible at floor holds",
			points:       0,
			price:        50,
			wantNewPrice: 50,
			wantChange:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update := e.PriceChange(tt.points, tt.price)
			assert.Equal(t, tt.wantNewPrice, update.NewPrice)
			assert.Equal(t, tt.wantChange, update.Change)
		})
	}
}

// Sweep a grid of inputs and assert the structural invariants every
// update must satisfy, regardless of which table cell it hit.
func TestEngine_PriceChangeInvariants(t *testing.T) {
	e := testEngine()

	for price := 50.0; price <= 500; price += 7 {
		for points := 0.0; points <= 600; points += 31 {
			update := e.PriceChange(points, price)

			assert.GreaterOrEqual(t, update.NewPrice, MinPrice,
				"price=%.0f points=%.0f", price, points)
			assert.LessOrEqual(t, update.NewPrice, MaxPrice,
				"price=%.0f points=%.0f", price, points)
			assert.LessOrEqual(t, update.Change, MaxChangePerRace,
				"price=%.0f points=%.0f", price, points)
			assert.GreaterOrEqual(t, update.Change, -MaxChangePerRace,
				"price=%.0f points=%.0f", price, points)
			assert.Equal(t, update.NewPrice, price+update.Change,
				"reported change must be the applied movement")
		}
	}
}

func TestEngine_Trend(t *testing.T) {
	e := testEngine()

	assert.Equal(t, contracts.TrendUp, e.Trend(286, 250))
	assert.Equal(t, contracts.TrendDown, e.Trend(232, 250))
	assert.Equal(t, contracts.TrendNeutral, e.Trend(250, 250))
}

func TestEngine_ChangePercentage(t *testing.T) {
	e := testEngine()

	assert.InDelta(t, 14.4, e.ChangePercentage(286, 250), 0.0001)
	assert.InDelta(t, -10.0, e.ChangePercentage(225, 250), 0.0001)
	assert.Equal(t, 0.0, e.ChangePercentage(286, 0), "zero previous price defines change as 0")
}
