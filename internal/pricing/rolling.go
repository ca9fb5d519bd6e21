package pricing

// Rolling form window. Sprint results carry a reduced weight in both
// the numerator and the denominator, so a sprint-heavy window is not
// diluted below a comparable race-only window.
const (
	RollingWindow = 5
	SprintWeight  = 0.75
)

// RollingAverage computes the weighted mean of the most recent scores.
// Entries must be ordered most recent first; only the first
// RollingWindow entries count. sprintFlags marks which entries came
// from sprint sessions and may be nil or shorter than points, in which
// case the unmarked entries weigh as full races. An empty series
// averages to 0.
func (e *Engine) RollingAverage(points []float64, sprintFlags []bool) float64 {
	n := len(points)
	if n > RollingWindow {
		n = RollingWindow
	}

	var sum, weight float64
	for i := 0; i < n; i++ {
		w := 1.0
		if i < len(sprintFlags) && sprintFlags[i] {
			w = SprintWeight
		}
		sum += points[i] * w
		weight += w
	}

	if weight == 0 {
		return 0
	}
	return sum / weight
}
