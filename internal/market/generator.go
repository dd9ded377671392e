package market

import (
	"math"
	"math/rand/v2"
	"time"
)

// Generator produces a synthetic daily series: a base price plus a sine
// trend, uniform noise and a linear drift.
type Generator struct {
	BasePrice      float64
	TrendAmplitude float64
	TrendPeriod    float64 // steps per radian
	Volatility     float64 // width of the uniform noise band
	Drift          float64 // added per step
	Step           time.Duration
	// Seed makes the series reproducible; 0 draws a fresh seed per call.
	Seed uint64
}

// DefaultGenerator mirrors the static fallback series served to clients.
func DefaultGenerator() Generator {
	return Generator{
		BasePrice:      35000,
		TrendAmplitude: 3000,
		TrendPeriod:    20,
		Volatility:     1000,
		Drift:          30,
		Step:           24 * time.Hour,
	}
}

// Generate returns n points ending one step before end.
func (g Generator) Generate(n int, end time.Time) []Point {
	if n <= 0 {
		return []Point{}
	}

	seed := g.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	period := g.TrendPeriod
	if period == 0 {
		period = 1
	}
	step := int64(g.Step / time.Second)
	last := end.Unix()

	points := make([]Point, n)
	for i := 0; i < n; i++ {
		noise := (rng.Float64() - 0.5) * g.Volatility
		trend := math.Sin(float64(i)/period) * g.TrendAmplitude
		points[i] = Point{
			Time:  last - int64(n-i)*step,
			Value: g.BasePrice + trend + noise + float64(i)*g.Drift,
		}
	}
	return points
}
