/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package simplex

/*****************************************************************************************************************/

import (
	"math"
	"testing"
)

/*****************************************************************************************************************/

func TestMinimizeFindsParabolaMinimum(t *testing.T) {
	f := func(p []float64) float64 {
		dx := p[0] - 3
		dy := p[1] + 2
		return dx*dx + dy*dy
	}

	opts := DefaultOptions()
	opts.InitialStep = []float64{1, 1}

	result, err := Minimize(f, []float64{0, 0}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Converged {
		t.Errorf("expected convergence within %d iterations, used %d", opts.MaxIterations, result.Iterations)
	}

	if math.Abs(result.Best[0]-3) > 1e-3 {
		t.Errorf("Best[0] = %f; want close to 3", result.Best[0])
	}
	if math.Abs(result.Best[1]-(-2)) > 1e-3 {
		t.Errorf("Best[1] = %f; want close to -2", result.Best[1])
	}
}

/*****************************************************************************************************************/

func TestMinimizeRejectsDimensionMismatch(t *testing.T) {
	f := func(p []float64) float64 { return 0 }
	opts := DefaultOptions()
	opts.InitialStep = []float64{1}

	if _, err := Minimize(f, []float64{0, 0}, opts); err != ErrDimensionMismatch {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

/*****************************************************************************************************************/

func TestParameterErrorsShrinkNearConvergence(t *testing.T) {
	f := func(p []float64) float64 {
		return p[0] * p[0]
	}

	opts := DefaultOptions()
	opts.InitialStep = []float64{5}
	opts.Tol = 1e-10
	opts.MaxIterations = 5000

	result, err := Minimize(f, []float64{10}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	errs := result.ParameterErrors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 parameter error, got %d", len(errs))
	}
	if errs[0] > 1e-2 {
		t.Errorf("expected small parameter error near convergence, got %f", errs[0])
	}
}

/*****************************************************************************************************************/

func TestMinimizeStopsAtMaxIterationsWithoutConverging(t *testing.T) {
	// A pathological oscillating function that never satisfies the
	// convergence test, to exercise the ConvergenceWarning path (§4.5).
	f := func(p []float64) float64 {
		return math.Abs(math.Sin(p[0]*1000) + math.Cos(p[1]*1000))
	}

	opts := DefaultOptions()
	opts.InitialStep = []float64{1, 1}
	opts.MaxIterations = 5
	opts.Tol = 1e-15

	result, err := Minimize(f, []float64{0.1, 0.1}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Converged {
		t.Error("did not expect convergence within 5 iterations at tol=1e-15")
	}
	if result.Iterations != opts.MaxIterations {
		t.Errorf("Iterations = %d; want %d", result.Iterations, opts.MaxIterations)
	}
}

/*****************************************************************************************************************/
