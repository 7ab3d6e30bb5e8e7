package route

import (
	"math"
	"testing"
)

func TestPredictor_LinearDecline(t *testing.T) {
	p := NewPredictor()
	// Overuse falling by 100 per iteration from 400 hits zero at
	// iteration 5.
	for itry := 1; itry <= 4; itry++ {
		p.AddIterationOveruse(itry, 500-100*itry)
	}

	est := p.EstimateSuccessIteration()
	if math.IsNaN(est) {
		t.Fatal("EstimateSuccessIteration() = NaN for a declining trend")
	}
	if math.Abs(est-5) > 0.01 {
		t.Errorf("EstimateSuccessIteration() = %v, want 5", est)
	}
}

func TestPredictor_GrowingOveruse(t *testing.T) {
	p := NewPredictor()
	for itry := 1; itry <= 5; itry++ {
		p.AddIterationOveruse(itry, 100*itry)
	}
	if est := p.EstimateSuccessIteration(); !math.IsNaN(est) {
		t.Errorf("EstimateSuccessIteration() = %v for growing overuse, want NaN", est)
	}
}

func TestPredictor_TooLittleData(t *testing.T) {
	p := NewPredictor()
	if est := p.EstimateSuccessIteration(); !math.IsNaN(est) {
		t.Errorf("estimate with no data = %v, want NaN", est)
	}
	p.AddIterationOveruse(1, 300)
	if est := p.EstimateSuccessIteration(); !math.IsNaN(est) {
		t.Errorf("estimate with one point = %v, want NaN", est)
	}
}

func TestPredictor_WindowIgnoresOldHistory(t *testing.T) {
	p := NewPredictor()
	// A long flat prefix followed by a sharp decline: the window must see
	// only the decline.
	for itry := 1; itry <= 10; itry++ {
		p.AddIterationOveruse(itry, 1000)
	}
	for itry := 11; itry <= 15; itry++ {
		p.AddIterationOveruse(itry, 1000-200*(itry-10))
	}

	est := p.EstimateSuccessIteration()
	if math.IsNaN(est) {
		t.Fatal("estimate = NaN despite recent decline")
	}
	if math.Abs(est-15) > 0.5 {
		t.Errorf("estimate = %v, want about 15", est)
	}
}

func TestAbortThreshold(t *testing.T) {
	if got := abortThreshold(PredictorSafe, 100); got != 150 {
		t.Errorf("safe threshold = %v, want 150", got)
	}
	if got := abortThreshold(PredictorAggressive, 100); got != 120 {
		t.Errorf("aggressive threshold = %v, want 120", got)
	}
	if got := abortThreshold(PredictorOff, 100); !math.IsInf(got, 1) {
		t.Errorf("off threshold = %v, want +Inf", got)
	}
}
