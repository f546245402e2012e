/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package simplex implements a downhill (Nelder-Mead) simplex minimiser
// exposing its final vertex set, shared by the per-ring fitter (§4.5) and
// the parameter guesser's inclination refinement (§4.7). Hand-rolled rather
// than wrapping gonum/optimize because both callers need the live simplex
// itself: the fitter's convergence test runs over the current high/low
// vertices every iteration, and its per-parameter error bars are the
// stddev of each parameter across the final simplex (see DESIGN.md).
// Grounded on the teacher's preference for small, self-contained numerical
// routines (pkg/solver, pkg/projection) over black-box library calls.
package simplex

/*****************************************************************************************************************/

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

/*****************************************************************************************************************/

// Func is the objective to minimise: given a point in parameter space it
// returns a scalar cost (the residual evaluator of §4.4, for the fitter).
type Func func(point []float64) float64

/*****************************************************************************************************************/

// Options configures a Minimize call.
type Options struct {
	// InitialStep is the per-parameter displacement used to build the
	// initial simplex's extra n vertices from the starting point.
	InitialStep []float64

	// Tol is the convergence tolerance applied to the spec's criterion:
	// 2*|f_high-f_low| / (|f_high|+|f_low|+Eps) < Tol.
	Tol float64

	// Eps guards the convergence denominator against division by zero.
	Eps float64

	// MaxIterations bounds the number of reflect/expand/contract/shrink
	// steps before giving up (§4.5's ConvergenceWarning path).
	MaxIterations int

	Alpha float64 // reflection coefficient, default 1.0
	Gamma float64 // expansion coefficient, default 2.0
	Rho   float64 // contraction coefficient, default 0.5
	Sigma float64 // shrink coefficient, default 0.5
}

/*****************************************************************************************************************/

// DefaultOptions returns the classic Nelder-Mead coefficients with a
// reasonable iteration cap; callers override Tol/Eps/InitialStep per §4.5.
func DefaultOptions() Options {
	return Options{
		Tol:           1e-6,
		Eps:           1e-12,
		MaxIterations: 2000,
		Alpha:         1.0,
		Gamma:         2.0,
		Rho:           0.5,
		Sigma:         0.5,
	}
}

/*****************************************************************************************************************/

// Result is the outcome of a Minimize call: the best point found, the
// value there, the full final simplex (n+1 vertices, each an n-vector) and
// whether the convergence test was satisfied before MaxIterations was hit.
type Result struct {
	Best       []float64
	BestValue  float64
	Vertices   [][]float64 // final simplex, sorted ascending by cost
	Values     []float64   // cost at each vertex, same order as Vertices
	Converged  bool
	Iterations int
}

/*****************************************************************************************************************/

// ErrDimensionMismatch is returned when InitialStep's length does not match
// the starting point's dimension.
var ErrDimensionMismatch = errors.New("simplex: InitialStep length must match the starting point's dimension")

/*****************************************************************************************************************/

// Minimize runs the downhill simplex algorithm starting from start, per
// §4.5's per-ring fitting loop.
func Minimize(f Func, start []float64, opts Options) (Result, error) {
	n := len(start)
	if n == 0 {
		return Result{}, errors.New("simplex: starting point must have at least one dimension")
	}
	if len(opts.InitialStep) != n {
		return Result{}, ErrDimensionMismatch
	}

	vertices := make([][]float64, n+1)
	vertices[0] = append([]float64(nil), start...)
	for i := 0; i < n; i++ {
		v := append([]float64(nil), start...)
		v[i] += opts.InitialStep[i]
		vertices[i+1] = v
	}

	values := make([]float64, n+1)
	for i, v := range vertices {
		values[i] = f(v)
	}

	converged := false
	iter := 0

	for ; iter < opts.MaxIterations; iter++ {
		sortByValue(vertices, values)

		fLow := values[0]
		fHigh := values[n]

		denom := math.Abs(fHigh) + math.Abs(fLow) + opts.Eps
		if 2*math.Abs(fHigh-fLow)/denom < opts.Tol {
			converged = true
			break
		}

		centroid := centroidExcluding(vertices, n)

		// Reflection:
		reflected := pointAlong(centroid, vertices[n], -opts.Alpha)
		fReflected := f(reflected)

		switch {
		case fReflected < values[0]:
			// Expansion:
			expanded := pointAlong(centroid, vertices[n], -opts.Gamma)
			fExpanded := f(expanded)
			if fExpanded < fReflected {
				vertices[n], values[n] = expanded, fExpanded
			} else {
				vertices[n], values[n] = reflected, fReflected
			}
		case fReflected < values[n-1]:
			vertices[n], values[n] = reflected, fReflected
		default:
			// Contraction:
			var contracted []float64
			var fContracted float64
			if fReflected < values[n] {
				contracted = pointAlong(centroid, vertices[n], -opts.Rho*opts.Alpha)
				fContracted = f(contracted)
			} else {
				contracted = pointAlong(centroid, vertices[n], opts.Rho)
				fContracted = f(contracted)
			}

			if fContracted < values[n] && fContracted < fReflected {
				vertices[n], values[n] = contracted, fContracted
			} else {
				// Shrink toward the best vertex:
				best := vertices[0]
				for i := 1; i <= n; i++ {
					for d := range vertices[i] {
						vertices[i][d] = best[d] + opts.Sigma*(vertices[i][d]-best[d])
					}
					values[i] = f(vertices[i])
				}
			}
		}
	}

	sortByValue(vertices, values)

	return Result{
		Best:       append([]float64(nil), vertices[0]...),
		BestValue:  values[0],
		Vertices:   vertices,
		Values:     values,
		Converged:  converged,
		Iterations: iter,
	}, nil
}

/*****************************************************************************************************************/

// ParameterErrors returns, for each of the n free parameters, the standard
// deviation of that parameter's value across the final simplex's n+1
// vertices, per §4.5's error-bar contract.
func (r Result) ParameterErrors() []float64 {
	if len(r.Vertices) == 0 {
		return nil
	}
	n := len(r.Vertices[0])
	errs := make([]float64, n)
	column := make([]float64, len(r.Vertices))
	for d := 0; d < n; d++ {
		for i, v := range r.Vertices {
			column[i] = v[d]
		}
		errs[d] = stat.StdDev(column, nil)
	}
	return errs
}

/*****************************************************************************************************************/

func sortByValue(vertices [][]float64, values []float64) {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	sortedVertices := make([][]float64, len(vertices))
	sortedValues := make([]float64, len(values))
	for i, j := range idx {
		sortedVertices[i] = vertices[j]
		sortedValues[i] = values[j]
	}
	copy(vertices, sortedVertices)
	copy(values, sortedValues)
}

/*****************************************************************************************************************/

// centroidExcluding returns the centroid of vertices[0:n], excluding
// vertices[n] (the worst vertex).
func centroidExcluding(vertices [][]float64, n int) []float64 {
	dims := len(vertices[0])
	c := make([]float64, dims)
	for i := 0; i < n; i++ {
		for d := 0; d < dims; d++ {
			c[d] += vertices[i][d]
		}
	}
	for d := range c {
		c[d] /= float64(n)
	}
	return c
}

/*****************************************************************************************************************/

// pointAlong returns centroid + factor*(worst-centroid), the shared
// formula behind reflection/expansion/contraction.
func pointAlong(centroid, worst []float64, factor float64) []float64 {
	out := make([]float64, len(centroid))
	for d := range out {
		out[d] = centroid[d] + factor*(worst[d]-centroid[d])
	}
	return out
}

/*****************************************************************************************************************/
