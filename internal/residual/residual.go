/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package residual implements the ring-restricted residual evaluator of
// §4.4: it re-synthesises a single candidate ring via internal/galmod and
// compares it against the observed cube over that ring's annulus only,
// under a chosen cost function, azimuthal weighting and voxel mask. The
// annulus restriction (evaluate only the pixels a ring could plausibly
// touch, not the whole cube) follows the teacher's own bounding-box
// clipping in pkg/sky's GenerateFieldImage, generalised from "clip to the
// PSF footprint" to "clip to the ring's deprojected annulus".
package residual

/*****************************************************************************************************************/

import (
	"context"
	"errors"
	"math"

	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/galmod"
	"github.com/observerly/galtilt/internal/geometry"
	"github.com/observerly/galtilt/internal/header"
	"github.com/observerly/galtilt/internal/ringset"
)

/*****************************************************************************************************************/

// Observed bundles the header and the observed cube the residual
// evaluator and the fitter both need, so callers pass a single value
// instead of threading the pair through every function signature.
type Observed struct {
	Header header.Header
	Cube   *cube.Cube
}

/*****************************************************************************************************************/

// FType selects the per-voxel cost term, §4.4.
type FType int

/*****************************************************************************************************************/

const (
	FTypeChiSquared FType = iota
	FTypeAbsDiff
	FTypeAbsDiffNormalised
)

/*****************************************************************************************************************/

// Weighting selects the azimuthal weighting applied to each column of the
// annulus, §4.4.
type Weighting int

/*****************************************************************************************************************/

const (
	WeightUniform Weighting = iota
	WeightAbsCosTheta
	WeightCosSquaredTheta
)

/*****************************************************************************************************************/

// MaskMode selects which voxels are eligible to contribute to the
// residual, §4.4.
type MaskMode int

/*****************************************************************************************************************/

const (
	MaskNone MaskMode = iota
	MaskSmoothing
	MaskSearching
	MaskSmoothAndSearch
	MaskThreshold
	MaskNegative
)

/*****************************************************************************************************************/

// Side restricts the fit to one half of the disk, split by the sign of
// cos(theta) in the deprojected annulus (the `SIDE` parameter-file key).
type Side int

/*****************************************************************************************************************/

const (
	SideBoth Side = iota
	SideApproaching
	SideReceding
)

/*****************************************************************************************************************/

// Options configures a residual evaluation.
type Options struct {
	FType     FType
	Weighting Weighting
	Mask      MaskMode
	Side      Side

	// Threshold is the observed-flux cutoff used by MaskThreshold.
	Threshold float64

	// External is the externally supplied voxel mask (true = eligible)
	// used by MaskSmoothing/MaskSearching/MaskSmoothAndSearch, typically
	// produced by a smoothed-cube threshold pass and/or internal/finder.
	External []bool

	// NoiseSigma is the per-voxel noise estimate used as the chi-squared
	// denominator; required when FType == FTypeChiSquared.
	NoiseSigma float64
}

/*****************************************************************************************************************/

// ErrMissingNoiseSigma is returned when FTypeChiSquared is requested
// without a positive NoiseSigma.
var ErrMissingNoiseSigma = errors.New("residual: FTypeChiSquared requires a positive NoiseSigma")

/*****************************************************************************************************************/

// EvaluateRing re-synthesises candidate in isolation and returns its
// residual cost against observed, restricted to candidate's annulus, per
// §4.5's per-ring fit loop (the residual evaluator this wraps is always
// invoked one ring at a time: "the objective function synthesises only the
// candidate ring, never the full model").
func EvaluateRing(
	ctx context.Context,
	obs Observed,
	candidate ringset.Ring,
	modelOpts galmod.Options,
	resOpts Options,
) (float64, error) {
	if resOpts.FType == FTypeChiSquared && resOpts.NoiseSigma <= 0 {
		return 0, ErrMissingNoiseSigma
	}

	single := &ringset.RingSet{DeltaR: candidate.Width, Rings: []ringset.Ring{candidate}}

	model, err := galmod.Synthesise(ctx, obs.Header, single, modelOpts)
	if err != nil {
		return 0, err
	}

	return Evaluate(obs.Header, obs.Cube, model, candidate, resOpts)
}

/*****************************************************************************************************************/

// Evaluate computes the residual cost between observed and model over
// ring's deprojected annulus.
func Evaluate(h header.Header, observed, model *cube.Cube, ring ringset.Ring, opts Options) (float64, error) {
	if opts.FType == FTypeChiSquared && opts.NoiseSigma <= 0 {
		return 0, ErrMissingNoiseSigma
	}

	inner := ring.Radius - ring.Width/2
	if inner < 0 {
		inner = 0
	}
	outer := ring.Radius + ring.Width/2

	var total float64
	var count int

	for y := 0; y < h.Ny; y++ {
		for x := 0; x < h.Nx; x++ {
			r, theta := geometry.PixelToRing(float64(x), float64(y), ring.Inc, ring.Pa, ring.Xpos, ring.Ypos, h.PixelScaleArcsec)
			if r < inner || r > outer {
				continue
			}

			if !sideEligible(opts.Side, theta) {
				continue
			}

			weight := weightFor(opts.Weighting, theta)
			if weight == 0 {
				continue
			}

			for z := 0; z < h.Nz; z++ {
				idx := (z*h.Ny+y)*h.Nx + x

				if h.IsBlank(observed.Data[idx]) {
					continue
				}

				if !eligible(observed.Data[idx], idx, opts) {
					continue
				}

				term := costTerm(opts.FType, observed.Data[idx], model.Data[idx], opts.NoiseSigma)
				total += weight * term
				count++
			}
		}
	}

	if count == 0 {
		return 0, nil
	}

	return total / float64(count), nil
}

/*****************************************************************************************************************/

// AnnulusVoxelCount reports how many spatial pixels of h's grid fall
// within ring's deprojected annulus, regardless of masking. The fitter
// uses this to detect a degenerate ring (§4.5/§7's RingDegenerate path)
// before spending a simplex search on a ring with no data to constrain it.
func AnnulusVoxelCount(h header.Header, ring ringset.Ring) int {
	inner := ring.Radius - ring.Width/2
	if inner < 0 {
		inner = 0
	}
	outer := ring.Radius + ring.Width/2

	count := 0
	for y := 0; y < h.Ny; y++ {
		for x := 0; x < h.Nx; x++ {
			r, _ := geometry.PixelToRing(float64(x), float64(y), ring.Inc, ring.Pa, ring.Xpos, ring.Ypos, h.PixelScaleArcsec)
			if r >= inner && r <= outer {
				count++
			}
		}
	}
	return count
}

/*****************************************************************************************************************/

// sideEligible reports whether a disk-plane azimuth belongs to the
// requested half: receding is cos(theta) > 0 (the +PA major-axis
// direction, per §4.1's RingPointToPixel), approaching is cos(theta) < 0.
func sideEligible(side Side, theta float64) bool {
	switch side {
	case SideApproaching:
		return math.Cos(theta) < 0
	case SideReceding:
		return math.Cos(theta) > 0
	default:
		return true
	}
}

/*****************************************************************************************************************/

func weightFor(w Weighting, theta float64) float64 {
	switch w {
	case WeightUniform:
		return 1.0
	case WeightAbsCosTheta:
		return math.Abs(math.Cos(theta))
	case WeightCosSquaredTheta:
		c := math.Cos(theta)
		return c * c
	default:
		return 1.0
	}
}

/*****************************************************************************************************************/

func eligible(observedValue float64, idx int, opts Options) bool {
	switch opts.Mask {
	case MaskNone:
		return true
	case MaskThreshold:
		return observedValue >= opts.Threshold
	case MaskNegative:
		return observedValue < 0
	case MaskSmoothing, MaskSearching, MaskSmoothAndSearch:
		if opts.External == nil {
			return true
		}
		if idx >= len(opts.External) {
			return false
		}
		return opts.External[idx]
	default:
		return true
	}
}

/*****************************************************************************************************************/

func costTerm(ftype FType, observed, modelled, noiseSigma float64) float64 {
	diff := modelled - observed
	switch ftype {
	case FTypeChiSquared:
		return (diff * diff) / (noiseSigma * noiseSigma)
	case FTypeAbsDiff:
		return math.Abs(diff)
	case FTypeAbsDiffNormalised:
		denom := math.Abs(modelled) + math.Abs(observed)
		if denom == 0 {
			return 0
		}
		return math.Abs(diff) / denom
	default:
		return math.Abs(diff)
	}
}

/*****************************************************************************************************************/
