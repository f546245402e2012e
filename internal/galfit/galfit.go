/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package galfit implements the per-ring tilted-ring fit of §4.5: for each
// ring independently, a downhill simplex search over a user-selected
// subset of free parameters minimises the residual evaluator's cost, with
// an optional second (regularisation) pass that replaces each free
// parameter's ring-to-ring profile with a smooth polynomial or Bézier
// curve before a final re-fit. The outer per-ring pool is an
// errgroup.Group exactly as the teacher's own pkg/solver fans out two
// independent solve paths and reduces their results, generalised from two
// fixed goroutines to n rings with a bounded worker count.
package galfit

/*****************************************************************************************************************/

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/observerly/galtilt/internal/errs"
	"github.com/observerly/galtilt/internal/galmod"
	"github.com/observerly/galtilt/internal/obslog"
	"github.com/observerly/galtilt/internal/progress"
	"github.com/observerly/galtilt/internal/residual"
	"github.com/observerly/galtilt/internal/ringset"
	"github.com/observerly/galtilt/internal/simplex"
)

/*****************************************************************************************************************/

// Param identifies one free ring field the simplex can vary.
type Param int

/*****************************************************************************************************************/

const (
	ParamXpos Param = iota
	ParamYpos
	ParamVsys
	ParamVrot
	ParamVdisp
	ParamVrad
	ParamInc
	ParamPa
	ParamZ0
)

/*****************************************************************************************************************/

func getParam(r ringset.Ring, p Param) float64 {
	switch p {
	case ParamXpos:
		return r.Xpos
	case ParamYpos:
		return r.Ypos
	case ParamVsys:
		return r.Vsys
	case ParamVrot:
		return r.Vrot
	case ParamVdisp:
		return r.Vdisp
	case ParamVrad:
		return r.Vrad
	case ParamInc:
		return r.Inc
	case ParamPa:
		return r.Pa
	case ParamZ0:
		return r.Z0
	default:
		return 0
	}
}

/*****************************************************************************************************************/

func setParam(r *ringset.Ring, p Param, value float64) {
	switch p {
	case ParamXpos:
		r.Xpos = value
	case ParamYpos:
		r.Ypos = value
	case ParamVsys:
		r.Vsys = value
	case ParamVrot:
		r.Vrot = value
	case ParamVdisp:
		r.Vdisp = math.Abs(value)
	case ParamVrad:
		r.Vrad = value
	case ParamInc:
		r.Inc = clamp(value, 0, 90)
	case ParamPa:
		r.Pa = math.Mod(math.Mod(value, 360)+360, 360)
	case ParamZ0:
		r.Z0 = math.Abs(value)
	}
}

/*****************************************************************************************************************/

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

/*****************************************************************************************************************/

// Options configures a fit run.
type Options struct {
	Free         []Param
	InitialStep  map[Param]float64
	ModelOpts    galmod.Options
	ResOpts      residual.Options
	SimplexOpts  simplex.Options
	OuterThreads int // concurrent rings fitted at once; <=1 means sequential
	Logger       *obslog.Logger
	Progress     *progress.Bar
}

/*****************************************************************************************************************/

// RingResult is the outcome of fitting a single ring.
type RingResult struct {
	Ring   ringset.Ring
	Errors map[Param]float64
}

/*****************************************************************************************************************/

// FitRing runs the simplex search for a single ring's free parameters
// against observed, holding every other ring's parameters fixed at their
// current values in rs.
func FitRing(ctx context.Context, obs observedCube, rs *ringset.RingSet, ringIndex int, opts Options) (RingResult, error) {
	ring := rs.Rings[ringIndex]

	if len(opts.Free) == 0 {
		return RingResult{Ring: ring}, errs.NewRing(errs.UserError, ringIndex, "galfit.FitRing", errNoFreeParams)
	}

	if residual.AnnulusVoxelCount(obs.Header, ring) == 0 {
		ring.NoData = true
		return RingResult{Ring: ring}, errs.NewRing(errs.RingDegenerate, ringIndex, "galfit.FitRing", errRingHasNoVoxels)
	}

	start := make([]float64, len(opts.Free))
	step := make([]float64, len(opts.Free))
	for i, p := range opts.Free {
		start[i] = getParam(ring, p)
		if s, ok := opts.InitialStep[p]; ok {
			step[i] = s
		} else {
			step[i] = defaultStep(p, start[i])
		}
	}

	objective := func(point []float64) float64 {
		candidate := ring
		for i, p := range opts.Free {
			setParam(&candidate, p, point[i])
		}
		cost, err := residual.EvaluateRing(ctx, obs, candidate, opts.ModelOpts, opts.ResOpts)
		if err != nil {
			return math.Inf(1)
		}
		return cost
	}

	simplexOpts := opts.SimplexOpts
	simplexOpts.InitialStep = step

	result, err := simplex.Minimize(objective, start, simplexOpts)
	if err != nil {
		return RingResult{Ring: ring}, errs.NewRing(errs.InternalError, ringIndex, "galfit.FitRing", err)
	}

	fitted := ring
	for i, p := range opts.Free {
		setParam(&fitted, p, result.Best[i])
	}

	if !result.Converged {
		fitted.NotConverged = true
		if opts.Logger != nil {
			opts.Logger.Warnf("ring %d: simplex did not converge within %d iterations", ringIndex, result.Iterations)
		}
	}

	errsOut := make(map[Param]float64, len(opts.Free))
	paramErrs := result.ParameterErrors()
	for i, p := range opts.Free {
		errsOut[p] = paramErrs[i]
	}

	return RingResult{Ring: fitted, Errors: errsOut}, nil
}

/*****************************************************************************************************************/

// observedCube bundles the header and cube the residual evaluator needs;
// kept local to avoid a dependency on internal/cube and internal/header
// beyond what this file already imports transitively through residual.
type observedCube = residual.Observed

/*****************************************************************************************************************/

var errNoFreeParams = simpleError("galfit: Options.Free must name at least one parameter")
var errRingHasNoVoxels = simpleError("galfit: ring's deprojected annulus covers no voxels in the cube")

/*****************************************************************************************************************/

type simpleError string

func (e simpleError) Error() string { return string(e) }

/*****************************************************************************************************************/

// defaultStep returns the initial simplex step for parameters the caller
// did not override in Options.InitialStep, per §4.5: each free parameter's
// initial vertices are built by perturbing it by 5-10% of its own value
// (10% for vrot/vdisp, 5% for angles). value near zero (e.g. an initial
// vrad of 0) would collapse that percentage to a degenerate zero step, so a
// small parameter-shaped floor is applied underneath the percentage.
func defaultStep(p Param, value float64) float64 {
	var fraction, floor float64
	switch p {
	case ParamVrot, ParamVdisp:
		fraction, floor = 0.10, 2.0
	case ParamInc, ParamPa:
		fraction, floor = 0.05, 2.0
	case ParamXpos, ParamYpos:
		fraction, floor = 0.05, 1.0
	case ParamZ0:
		fraction, floor = 0.05, 0.5
	default: // ParamVsys, ParamVrad
		fraction, floor = 0.05, 5.0
	}
	step := math.Abs(value) * fraction
	if step < floor {
		return floor
	}
	return step
}

/*****************************************************************************************************************/

// FitAll fits every ring in rs independently, using an errgroup.Group
// bounded to OuterThreads concurrent rings (§4.5/§5): a single ring's
// unrecoverable error cancels the group, while a ConvergenceWarning or
// RingDegenerate condition is recorded on that ring and the rest proceed.
func FitAll(ctx context.Context, obs observedCube, rs *ringset.RingSet, opts Options) (*ringset.RingSet, map[int]map[Param]float64, error) {
	out := rs.Clone()
	errorsByRing := make(map[int]map[Param]float64, len(rs.Rings))

	group, gctx := errgroup.WithContext(ctx)
	limit := opts.OuterThreads
	if limit < 1 {
		limit = 1
	}
	group.SetLimit(limit)

	type ringOutcome struct {
		index  int
		result RingResult
	}
	outcomes := make(chan ringOutcome, len(rs.Rings))

	for i := range rs.Rings {
		i := i
		group.Go(func() error {
			if rs.Rings[i].NoData {
				outcomes <- ringOutcome{index: i, result: RingResult{Ring: rs.Rings[i]}}
				return nil
			}

			result, err := FitRing(gctx, obs, rs, i, opts)
			if err != nil {
				if errs.Is(err, errs.RingDegenerate) || errs.Is(err, errs.ConvergenceWarning) {
					if opts.Logger != nil {
						opts.Logger.Warnf("ring %d: %v", i, err)
					}
					outcomes <- ringOutcome{index: i, result: result}
					return nil
				}
				return err
			}

			outcomes <- ringOutcome{index: i, result: result}

			if opts.Progress != nil {
				opts.Progress.Increment()
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	close(outcomes)

	for o := range outcomes {
		out.Rings[o.index] = o.result.Ring
		if o.result.Errors != nil {
			errorsByRing[o.index] = o.result.Errors
		}
	}

	return out, errorsByRing, nil
}

/*****************************************************************************************************************/
