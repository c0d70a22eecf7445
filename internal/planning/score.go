package planning

import "math"

// Dimension weights for the fitness score. Risk is inverted because a
// lower risk is better — it is the only inverted dimension.
const (
	weightFeasibility  = 0.30
	weightCompleteness = 0.25
	weightCoherence    = 0.25
	weightRisk         = 0.20
)

// CalculateWeightedScore computes the single scalar fitness value for an
// approach from its four evaluation dimensions, rounded to 2 decimals.
func CalculateWeightedScore(s Scores) float64 {
	raw := s.Feasibility*weightFeasibility +
		s.Completeness*weightCompleteness +
		s.Coherence*weightCoherence +
		(10-s.Risk)*weightRisk
	return math.Round(raw*100) / 100
}
