/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package galfit

/*****************************************************************************************************************/

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/observerly/galtilt/internal/ringset"
)

/*****************************************************************************************************************/

// GeometricalParams are the ring parameters the second pass typically
// regularises, per §4.5: position, orientation and thickness, as opposed to
// the kinematic parameters (vrot, vdisp, vrad) that are re-optimised against
// the frozen, smoothed geometry.
var GeometricalParams = []Param{ParamInc, ParamPa, ParamXpos, ParamYpos, ParamVsys, ParamZ0}

/*****************************************************************************************************************/

// RegulariseOptions configures the optional second pass of §4.5.
type RegulariseOptions struct {
	// Enabled turns the second pass on. When false, FitAllWithRegularisation
	// behaves exactly like FitAll.
	Enabled bool

	// Geometrical names the free parameters whose radial profile is smoothed
	// before the refit. Defaults to GeometricalParams when nil.
	Geometrical []Param

	// Degree is the polynomial degree fit to each regularised parameter's
	// radial profile; Degree = -1 selects a Bézier-smoothed interpolation
	// instead of a polynomial.
	Degree int

	// RefitOpts is used for the second-pass per-ring refit of the remaining
	// (kinematic) free parameters, with geometry held fixed. Its Free field
	// is ignored; the refit always uses opts.Free minus the regularised
	// parameters of the first pass.
	RefitOpts Options
}

/*****************************************************************************************************************/

// FitAllWithRegularisation runs the first-pass fit of §4.5 via FitAll, and
// then, if opts.Enabled, regularises each of opts.Geometrical's radial
// profile (polynomial or Bézier-smoothed) and refits the remaining free
// parameters per ring with the regularised geometry held fixed.
func FitAllWithRegularisation(
	ctx context.Context,
	obs observedCube,
	rs *ringset.RingSet,
	firstPassOpts Options,
	opts RegulariseOptions,
) (*ringset.RingSet, map[int]map[Param]float64, error) {
	fitted, errorsByRing, err := FitAll(ctx, obs, rs, firstPassOpts)
	if err != nil {
		return nil, nil, err
	}

	if !opts.Enabled {
		return fitted, errorsByRing, nil
	}

	geometrical := opts.Geometrical
	if geometrical == nil {
		geometrical = GeometricalParams
	}

	regularised := regulariseGeometry(fitted, firstPassOpts.Free, geometrical, opts.Degree)

	remaining := subtractParams(firstPassOpts.Free, geometrical)
	if len(remaining) == 0 {
		return regularised, errorsByRing, nil
	}

	secondPassOpts := opts.RefitOpts
	secondPassOpts.Free = remaining

	refit, refitErrors, err := FitAll(ctx, obs, regularised, secondPassOpts)
	if err != nil {
		return nil, nil, err
	}

	for i, e := range refitErrors {
		if errorsByRing[i] == nil {
			errorsByRing[i] = map[Param]float64{}
		}
		for p, v := range e {
			errorsByRing[i][p] = v
		}
	}

	return refit, errorsByRing, nil
}

/*****************************************************************************************************************/

// regulariseGeometry replaces each ring's free, geometrical parameters with
// a smoothed radial profile, interpolating over rings flagged NoData (§4.5,
// §7: "regularisation pass interpolates").
func regulariseGeometry(rs *ringset.RingSet, free []Param, geometrical []Param, degree int) *ringset.RingSet {
	out := rs.Clone()

	for _, p := range geometrical {
		if !containsParam(free, p) {
			continue
		}

		radii := make([]float64, 0, len(rs.Rings))
		values := make([]float64, 0, len(rs.Rings))
		for _, r := range rs.Rings {
			if r.NoData {
				continue
			}
			radii = append(radii, r.Radius)
			values = append(values, getParam(r, p))
		}
		if len(radii) < 2 {
			continue
		}

		// Build the smoothed profile once, then sample it at every ring's
		// radius (including NoData ones), so the second pass interpolates
		// across gaps left by a degenerate first-pass ring.
		var sample func(r float64) (float64, bool)
		if degree < 0 {
			smoothed := bezierSmooth(radii, values)
			sample = func(r float64) (float64, bool) { return interpAt(radii, smoothed, r), true }
		} else {
			coeffs, ok := polynomialFit(radii, values, degree)
			if !ok {
				continue
			}
			sample = func(r float64) (float64, bool) { return evalPolynomial(coeffs, r), true }
		}

		for i := range out.Rings {
			value, ok := sample(out.Rings[i].Radius)
			if !ok {
				continue
			}
			setParam(&out.Rings[i], p, value)
			out.Rings[i].NoData = false
		}
	}

	return out
}

/*****************************************************************************************************************/

// polynomialFit solves the least-squares Vandermonde system for the
// coefficients (ascending order, constant term first) of the degree-d
// polynomial best fitting (x,y), following the normal-equations-via-QR
// pattern of a 2D Savitzky-Golay kernel fit (gonum mat.Dense.Solve over a
// Vandermonde design matrix).
func polynomialFit(x, y []float64, degree int) ([]float64, bool) {
	n := len(x)
	terms := degree + 1
	if n < terms {
		return nil, false
	}

	a := mat.NewDense(n, terms, nil)
	for i := range x {
		p := 1.0
		for k := 0; k < terms; k++ {
			a.Set(i, k, p)
			p *= x[i]
		}
	}
	b := mat.NewDense(n, 1, append([]float64(nil), y...))

	var solution mat.Dense
	if err := solution.Solve(a, b); err != nil {
		return nil, false
	}

	coeffs := make([]float64, terms)
	for k := 0; k < terms; k++ {
		coeffs[k] = solution.At(k, 0)
	}
	return coeffs, true
}

/*****************************************************************************************************************/

func evalPolynomial(coeffs []float64, x float64) float64 {
	value := 0.0
	p := 1.0
	for _, c := range coeffs {
		value += c * p
		p *= x
	}
	return value
}

/*****************************************************************************************************************/

// bezierSmooth replaces each interior value with the midpoint (t=0.5) of the
// quadratic Bézier curve whose control points are its two radial neighbours
// and itself, a standard smoothing approximation for a "Bézier-smoothed"
// radial profile (§4.5's `POLYN = -1`); endpoints are left unchanged since
// they have no neighbour on one side.
func bezierSmooth(x, y []float64) []float64 {
	out := make([]float64, len(y))
	copy(out, y)
	for i := 1; i < len(y)-1; i++ {
		p0, p1, p2 := y[i-1], y[i], y[i+1]
		// Quadratic Bézier B(t) = (1-t)^2 p0 + 2t(1-t) p1 + t^2 p2 at t=0.5:
		out[i] = 0.25*p0 + 0.5*p1 + 0.25*p2
	}
	return out
}

/*****************************************************************************************************************/

// interpAt linearly interpolates (or, outside the sampled range, clamps to
// the nearest endpoint) the smoothed radial profile at radius r.
func interpAt(radii, values []float64, r float64) float64 {
	if r <= radii[0] {
		return values[0]
	}
	if r >= radii[len(radii)-1] {
		return values[len(values)-1]
	}
	for i := 1; i < len(radii); i++ {
		if r <= radii[i] {
			frac := (r - radii[i-1]) / (radii[i] - radii[i-1])
			return values[i-1] + frac*(values[i]-values[i-1])
		}
	}
	return values[len(values)-1]
}

/*****************************************************************************************************************/

func containsParam(ps []Param, target Param) bool {
	for _, p := range ps {
		if p == target {
			return true
		}
	}
	return false
}

/*****************************************************************************************************************/

func subtractParams(all, remove []Param) []Param {
	out := make([]Param, 0, len(all))
	for _, p := range all {
		if !containsParam(remove, p) {
			out = append(out, p)
		}
	}
	return out
}

/*****************************************************************************************************************/
