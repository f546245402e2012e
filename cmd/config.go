/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"runtime"

	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/errs"
	"github.com/observerly/galtilt/internal/finder"
	"github.com/observerly/galtilt/internal/galfit"
	"github.com/observerly/galtilt/internal/galmod"
	"github.com/observerly/galtilt/internal/guesser"
	"github.com/observerly/galtilt/internal/header"
	"github.com/observerly/galtilt/internal/obslog"
	"github.com/observerly/galtilt/internal/paramfile"
	"github.com/observerly/galtilt/internal/progress"
	"github.com/observerly/galtilt/internal/residual"
	"github.com/observerly/galtilt/internal/ringset"
)

/*****************************************************************************************************************/

// defaultFree is the free-parameter subset fit when FREE is absent from
// the parameter file: the classic tilted-ring rotation-curve recovery set.
var defaultFree = []galfit.Param{galfit.ParamVrot, galfit.ParamVdisp}

/*****************************************************************************************************************/

// buildInitialRingSet derives the starting ring set for a fit, per §4.7:
// it runs the source finder and parameter guesser whenever any of the
// geometry keys are "auto", falling back to a uniform ring template built
// directly from the parameter file's explicit scalar values otherwise.
// Per-ring override files (a Value with IsPath set) are an Open Question
// this driver declines to resolve: there is no ring-profile-file reader
// named anywhere in §4 or §6, so a request for one is a UserError rather
// than a silent guess at a file format.
func buildInitialRingSet(h header.Header, c *cube.Cube, cfg *paramfile.Config, log *obslog.Logger) (*ringset.RingSet, []string, error) {
	for _, v := range []paramfile.Value{cfg.Xpos, cfg.Ypos, cfg.Vsys, cfg.Vrot, cfg.Vdisp, cfg.Inc, cfg.Pa, cfg.Z0, cfg.Dens} {
		if v.IsPath {
			return nil, nil, errs.New(errs.UserError, "cmd.buildInitialRingSet", errRingProfileFileUnsupported)
		}
	}

	needsGuess := cfg.Xpos.Auto || cfg.Ypos.Auto || cfg.Vsys.Auto || cfg.Inc.Auto || cfg.Pa.Auto ||
		cfg.Vrot.Auto || cfg.NRadii == 0 || cfg.RadSep.Auto

	var rs *ringset.RingSet
	var warnings []string

	if needsGuess {
		findOpts := defaultFindOptions(h, c)
		detections := finder.Find(h, c, findOpts)
		if len(detections) == 0 {
			return nil, nil, errs.New(errs.DataError, "cmd.buildInitialRingSet", errNoDetection)
		}

		primary := largestDetection(detections)

		guessOpts := guesser.Options{
			RefineInclination: true,
			DefaultVdisp:      valueOr(cfg.Vdisp, 8),
			DefaultZ0:         valueOr(cfg.Z0, 0),
		}

		result, err := guesser.Guess(h, c, primary, guessOpts)
		if err != nil {
			return nil, nil, errs.New(errs.DataError, "cmd.buildInitialRingSet", err)
		}

		rs = result.RingSet
		warnings = result.Warnings

		if log != nil {
			log.Infof("guessed %d rings from detection of %d voxels", len(rs.Rings), primary.VoxelCount)
		}
	} else {
		template := ringset.Ring{
			Xpos:    cfg.Xpos.Number,
			Ypos:    cfg.Ypos.Number,
			Vsys:    cfg.Vsys.Number,
			Vrot:    valueOr(cfg.Vrot, 0),
			Vdisp:   valueOr(cfg.Vdisp, 8),
			Inc:     cfg.Inc.Number,
			Pa:      cfg.Pa.Number,
			Z0:      valueOr(cfg.Z0, 0),
			Density: valueOr(cfg.Dens, 1),
		}
		rs = ringset.New(cfg.NRadii, cfg.RadSep.Number, template)
	}

	applyScalarOverride(rs, cfg.Xpos, func(r *ringset.Ring, v float64) { r.Xpos = v })
	applyScalarOverride(rs, cfg.Ypos, func(r *ringset.Ring, v float64) { r.Ypos = v })
	applyScalarOverride(rs, cfg.Vsys, func(r *ringset.Ring, v float64) { r.Vsys = v })
	applyScalarOverride(rs, cfg.Vrot, func(r *ringset.Ring, v float64) { r.Vrot = v })
	applyScalarOverride(rs, cfg.Vdisp, func(r *ringset.Ring, v float64) { r.Vdisp = v })
	applyScalarOverride(rs, cfg.Inc, func(r *ringset.Ring, v float64) { r.Inc = v })
	applyScalarOverride(rs, cfg.Pa, func(r *ringset.Ring, v float64) { r.Pa = v })
	applyScalarOverride(rs, cfg.Z0, func(r *ringset.Ring, v float64) { r.Z0 = v })
	applyScalarOverride(rs, cfg.Dens, func(r *ringset.Ring, v float64) { r.Density = v })

	return rs, warnings, nil
}

/*****************************************************************************************************************/

func applyScalarOverride(rs *ringset.RingSet, v paramfile.Value, set func(*ringset.Ring, float64)) {
	if v.Auto || v.IsPath {
		return
	}
	for i := range rs.Rings {
		set(&rs.Rings[i], v.Number)
	}
}

/*****************************************************************************************************************/

func valueOr(v paramfile.Value, fallback float64) float64 {
	if v.Auto || v.IsPath {
		return fallback
	}
	return v.Number
}

/*****************************************************************************************************************/

func defaultFindOptions(header.Header, *cube.Cube) finder.Options {
	return finder.Options{
		Primary:             finder.Threshold{Mode: finder.ThresholdSNR, Value: 5},
		Secondary:           finder.Threshold{Mode: finder.ThresholdSNR, Value: 3},
		SearchKind:          finder.SearchSpatial,
		MinVoxels:           16,
		MinPixelsPerChannel: 2,
		MinChannels:         2,
		SpatialGap:          1,
		VelocityGap:         1,
		Grow:                true,
		TwoStageMerge:       true,
		RelaxedSpatialGap:   2,
		RelaxedVelocityGap:  2,
	}
}

/*****************************************************************************************************************/

func largestDetection(detections []*finder.Detection) *finder.Detection {
	best := detections[0]
	for _, d := range detections[1:] {
		if d.VoxelCount > best.VoxelCount {
			best = d
		}
	}
	return best
}

/*****************************************************************************************************************/

// buildGalfitOptions maps a parameter-file configuration onto the typed
// Options the fitter, residual evaluator and synthesiser expect, so the
// CLI driver is the only place that ever translates between the two.
// sigma is the cube's robust noise estimate (§4.8) and externalMask is the
// source finder's voxel mask, used respectively as the chi-squared
// denominator and as the MASK=search/smooth/both eligibility mask; neither
// has a dedicated parameter-file key of its own (§6 lists no THRESHOLD
// key), so both are derived at run time rather than configured.
func buildGalfitOptions(cfg *paramfile.Config, sigma float64, externalMask []bool, log *obslog.Logger, bar *progress.Bar) (galfit.Options, galfit.RegulariseOptions) {
	free := cfg.Free
	if len(free) == 0 {
		free = defaultFree
	}

	modelOpts := galmod.Options{
		Cdens:         cfg.Cdens,
		Nv:            cfg.Nv,
		LType:         cfg.LType,
		Normalisation: cfg.Norm,
		Threads:       cfg.Threads,
	}

	resOpts := residual.Options{
		FType:      cfg.FType,
		Weighting:  cfg.WFunc,
		Mask:       cfg.Mask,
		Side:       cfg.Side,
		Threshold:  3 * sigma,
		External:   externalMask,
		NoiseSigma: sigma,
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	fitOpts := galfit.Options{
		Free:         free,
		ModelOpts:    modelOpts,
		ResOpts:      resOpts,
		OuterThreads: threads,
		Logger:       log,
		Progress:     bar,
	}
	fitOpts.SimplexOpts.Tol = cfg.Tol
	fitOpts.SimplexOpts.Eps = 1e-12
	fitOpts.SimplexOpts.MaxIterations = 2000
	fitOpts.SimplexOpts.Alpha = 1.0
	fitOpts.SimplexOpts.Gamma = 2.0
	fitOpts.SimplexOpts.Rho = 0.5
	fitOpts.SimplexOpts.Sigma = 0.5

	regOpts := galfit.RegulariseOptions{
		Enabled:   cfg.TwoStage,
		Degree:    cfg.Polyn,
		RefitOpts: fitOpts,
	}

	return fitOpts, regOpts
}

/*****************************************************************************************************************/

type simpleError string

func (e simpleError) Error() string { return string(e) }

var (
	errNoDetection                = simpleError("cmd: source finder found no detection in the cube")
	errRingProfileFileUnsupported = simpleError("cmd: ring-parameter override files are not supported, use a scalar value or auto")
)

/*****************************************************************************************************************/
