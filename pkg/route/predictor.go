package route

import "math"

// Abort thresholds for the routing-failure predictor, as multiples of the
// iteration budget.
const (
	predictorAbortFactorSafe       = 1.5
	predictorAbortFactorAggressive = 1.2

	// minAbsoluteOveruseThreshold gates abort checks: with fewer overused
	// nodes the fit is too noisy to act on.
	minAbsoluteOveruseThreshold = 100

	// predictorWindow is how many trailing iterations feed the fit.
	predictorWindow = 5
)

// Predictor estimates the iteration at which the overuse trend reaches
// zero, i.e. when routing would converge. The outer loop aborts early when
// that estimate lands far beyond the iteration budget.
type Predictor struct {
	iters   []float64
	overuse []float64
}

// NewPredictor creates an empty predictor.
func NewPredictor() *Predictor {
	return &Predictor{}
}

// AddIterationOveruse records the overused node count of an iteration.
func (p *Predictor) AddIterationOveruse(itry int, overusedNodes int) {
	p.iters = append(p.iters, float64(itry))
	p.overuse = append(p.overuse, float64(overusedNodes))
}

// EstimateSuccessIteration extrapolates a least-squares line through the
// recent overuse counts and returns the iteration where it crosses zero.
// Returns NaN when there is not enough data or the trend is not improving.
func (p *Predictor) EstimateSuccessIteration() float64 {
	n := len(p.iters)
	if n < 2 {
		return math.NaN()
	}
	start := n - predictorWindow
	if start < 0 {
		start = 0
	}
	xs := p.iters[start:]
	ys := p.overuse[start:]

	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	m := float64(len(xs))
	denom := m*sumXX - sumX*sumX
	if denom == 0 {
		return math.NaN()
	}
	slope := (m*sumXY - sumX*sumY) / denom
	if slope >= 0 {
		// Overuse is flat or growing; no crossing ahead.
		return math.NaN()
	}
	intercept := (sumY - slope*sumX) / m
	return -intercept / slope
}

// abortThreshold returns the abort iteration for the configured predictor
// mode, or +Inf when the predictor is off.
func abortThreshold(mode PredictorMode, maxIters int) float64 {
	switch mode {
	case PredictorSafe:
		return predictorAbortFactorSafe * float64(maxIters)
	case PredictorAggressive:
		return predictorAbortFactorAggressive * float64(maxIters)
	default:
		return math.Inf(1)
	}
}
