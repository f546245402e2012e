/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package galmod implements the cube synthesiser of §4.3: given a ring set
// it Monte-Carlo samples "cloudlets" from each ring, projects them into
// sky/spectral voxels, accumulates flux, then convolves the spatial planes
// with the instrumental beam. The cloudlet accumulation loop is grounded on
// the teacher's own pkg/sky.GenerateFieldImage (bounding-box-clipped,
// flat-array accumulation of per-source profiles), generalised from a
// single 2D star field to a ring-by-ring 3D cloud.
package galmod

/*****************************************************************************************************************/

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/observerly/galtilt/internal/beam"
	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/errs"
	"github.com/observerly/galtilt/internal/geometry"
	"github.com/observerly/galtilt/internal/header"
	"github.com/observerly/galtilt/internal/matrix"
	"github.com/observerly/galtilt/internal/ringset"
	"github.com/observerly/galtilt/internal/robuststats"
)

/*****************************************************************************************************************/

// LType is the vertical (vertical-to-the-disk) density law used to sample a
// cloudlet's height above the disk plane.
type LType int

/*****************************************************************************************************************/

const (
	LTypeGaussian LType = iota
	LTypeSech2
	LTypeExponential
	LTypeLorentzian
	LTypeBox
)

/*****************************************************************************************************************/

// NormScheme is the post-accumulation flux normalisation scheme of §4.3.
type NormScheme int

/*****************************************************************************************************************/

const (
	NormNone NormScheme = iota
	NormLocal
	NormAzimuthal
)

/*****************************************************************************************************************/

// Options configures a single Synthesise call.
type Options struct {
	Cdens             float64 // cloud column density per unit ring area
	Nv                int     // velocity subclouds per cloudlet; -1 means auto
	LType             LType
	SigmaInstrumental float64
	Normalisation     NormScheme
	ReferenceProfile  []float64 // per-pixel (LOCAL) or per-ring (AZIMUTHAL) reference intensities
	Smooth            bool
	Threads           int // cloudlet-emission worker count; <=1 means sequential

	// ConvolveConcurrency bounds how many spectral planes are convolved
	// with the beam at once (§5: the inner pool, capped independently of
	// the outer per-ring fit pool so the two never double-book cores).
	// <=1 means sequential.
	ConvolveConcurrency int

	Seed int64
}

/*****************************************************************************************************************/

// Synthesise builds a noise-free model cube matching h's pixel and velocity
// grid from the given ring set, per §4.3. ctx governs only the beam
// convolution pool (§5's inner pool); cloudlet emission does not itself
// observe cancellation since it is expected to run to completion quickly
// relative to a fit's outer ring loop.
func Synthesise(ctx context.Context, h header.Header, rs *ringset.RingSet, opts Options) (*cube.Cube, error) {
	if err := h.Validate(); err != nil {
		return nil, errs.New(errs.DataError, "galmod.Synthesise", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, errs.New(errs.UserError, "galmod.Synthesise", err)
	}

	out := cube.New(h.Nx, h.Ny, h.Nz)

	for ringIndex, ring := range rs.Rings {
		accum, err := emitRing(h, ring, ringIndex, opts)
		if err != nil {
			return nil, err
		}

		if opts.Normalisation == NormAzimuthal && ringIndex < len(opts.ReferenceProfile) {
			scaleRingToReference(accum, opts.ReferenceProfile[ringIndex])
		}

		for i, v := range accum.Data {
			out.Data[i] += v
		}
	}

	if opts.Smooth {
		kernel, err := beam.KernelFromHeader(h)
		if err != nil {
			return nil, errs.New(errs.DataError, "galmod.Synthesise", err)
		}
		if err := convolveCube(ctx, out, h, kernel, opts.ConvolveConcurrency); err != nil {
			return nil, err
		}
	}

	if opts.Normalisation == NormLocal {
		normaliseLocal(out, opts.ReferenceProfile)
	}

	return out, nil
}

/*****************************************************************************************************************/

// convolveCube convolves every spectral plane of out with kernel in place.
// When concurrency > 1, planes are convolved by a pool bounded by a
// semaphore.Weighted of that size, coordinated by an errgroup so the first
// plane's error cancels the rest (§5).
func convolveCube(ctx context.Context, out *cube.Cube, h header.Header, kernel *matrix.Matrix, concurrency int) error {
	if concurrency <= 1 {
		for z := 0; z < h.Nz; z++ {
			plane := out.Plane(z)
			convolved, err := beam.ConvolvePlane(plane, h.Nx, h.Ny, kernel, h.HasBlank, h.Blank)
			if err != nil {
				return errs.New(errs.InternalError, "galmod.Synthesise", err)
			}
			if err := out.SetPlane(z, convolved); err != nil {
				return errs.New(errs.InternalError, "galmod.Synthesise", err)
			}
		}
		return nil
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	group, gctx := errgroup.WithContext(ctx)

	for z := 0; z < h.Nz; z++ {
		z := z
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)
			plane := out.Plane(z)
			convolved, err := beam.ConvolvePlane(plane, h.Nx, h.Ny, kernel, h.HasBlank, h.Blank)
			if err != nil {
				return errs.New(errs.InternalError, "galmod.Synthesise", err)
			}
			return out.SetPlane(z, convolved)
		})
	}

	if err := group.Wait(); err != nil {
		return errs.New(errs.InternalError, "galmod.Synthesise", err)
	}
	return nil
}

/*****************************************************************************************************************/

// emitRing Monte-Carlo samples every cloudlet belonging to one ring into a
// fresh accumulator cube, seeded deterministically from (ringIndex,
// opts.Seed) per §5/§9 so parallel runs stay reproducible.
func emitRing(h header.Header, ring ringset.Ring, ringIndex int, opts Options) (*cube.Cube, error) {
	accum := cube.New(h.Nx, h.Ny, h.Nz)

	if ring.NoData {
		return accum, nil
	}

	nCloudlets := int(math.Ceil(ring.AreaArcsec2() * opts.Cdens))
	if nCloudlets <= 0 {
		return accum, nil
	}

	threads := opts.Threads
	if threads <= 1 {
		src := rand.New(rand.NewSource(seedFor(ringIndex, opts.Seed, 0)))
		emitCloudlets(accum, h, ring, opts, src, 0, nCloudlets, nCloudlets)
		return accum, nil
	}

	// Partition cloudlets across workers, each with a private accumulator,
	// summed by reduction at the end (§4.3 "per-ring accumulations... must be
	// combined by reduction").
	partials := make([]*cube.Cube, threads)
	chunk := (nCloudlets + threads - 1) / threads

	done := make(chan int, threads)
	for w := 0; w < threads; w++ {
		start := w * chunk
		end := start + chunk
		if end > nCloudlets {
			end = nCloudlets
		}
		partials[w] = cube.New(h.Nx, h.Ny, h.Nz)
		if start >= end {
			done <- w
			continue
		}
		go func(w, start, end int) {
			src := rand.New(rand.NewSource(seedFor(ringIndex, opts.Seed, w)))
			emitCloudlets(partials[w], h, ring, opts, src, start, end, nCloudlets)
			done <- w
		}(w, start, end)
	}
	for i := 0; i < threads; i++ {
		<-done
	}

	for _, p := range partials {
		for i, v := range p.Data {
			accum.Data[i] += v
		}
	}

	return accum, nil
}

/*****************************************************************************************************************/

// seedFor derives a deterministic per-(ring, worker) RNG seed from the
// run seed, never from wall-clock time (§5, §9).
func seedFor(ringIndex int, runSeed int64, worker int) int64 {
	return runSeed*1000003 + int64(ringIndex)*1009 + int64(worker)
}

/*****************************************************************************************************************/

// emitCloudlets draws cloudlets [start,end) of the ring's total of
// totalCloudlets into accum. totalCloudlets (N_c) is the full per-ring
// cloudlet count, independent of how this call's [start,end) slice is
// chunked across worker goroutines, since the per-cloudlet flux share
// A_ring/N_c must reflect the ring's whole sampling, not one chunk's size.
func emitCloudlets(accum *cube.Cube, h header.Header, ring ringset.Ring, opts Options, src *rand.Rand, start, end, totalCloudlets int) {
	inner := ring.Radius - ring.Width/2
	if inner < 0 {
		inner = 0
	}

	incRad := geometry.Radians(ring.Inc)
	sinInc := math.Sin(incRad)

	sigma := math.Sqrt(ring.Vdisp*ring.Vdisp + opts.SigmaInstrumental*opts.SigmaInstrumental)

	nv := opts.Nv
	if nv == -1 {
		nv = autoNv(sigma, h)
	}
	if nv < 1 {
		nv = 1
	}

	// Each cloudlet carries a 1/N_c share of the ring's area so that total
	// emitted flux is density * A_ring regardless of how finely the ring is
	// sampled (§4.3, §8): Cdens only trades sampling noise for runtime, it
	// must never change the integrated flux.
	fluxPerCloud := ring.AreaArcsec2() / float64(totalCloudlets)
	fluxPerSubsample := fluxPerCloud / float64(nv)

	for i := start; i < end; i++ {
		theta := robuststats.UniformInRange(src, 0, 2*math.Pi)
		radialOffset := robuststats.UniformInRange(src, 0, ring.Width)
		r := inner + radialOffset

		z := sampleHeight(src, opts.LType, ring.Z0)
		_ = z // height only perturbs the line-of-sight path length for very thick disks; §4.3's projection is 2D-plane (x,y) so z only affects cloud column density weighting, folded into ring.Density at the ring level.

		x, y := geometry.RingPointToPixel(r, theta, ring.Inc, ring.Pa, ring.Xpos, ring.Ypos, h.PixelScaleArcsec)

		px, py := int(math.Round(x)), int(math.Round(y))
		if px < 0 || px >= h.Nx || py < 0 || py >= h.Ny {
			continue
		}

		vLos := ring.Vsys + (ring.Vrot*math.Cos(theta)+ring.Vrad*math.Sin(theta))*sinInc

		for s := 0; s < nv; s++ {
			v := robuststats.NormalDistributedRandomNumber(src, vLos, sigma)
			channel := geometry.ChannelOf(h, v)
			pz := int(math.Round(channel))
			if pz < 0 || pz >= h.Nz {
				continue
			}
			accum.Add(px, py, pz, fluxPerSubsample*ring.Density)
		}
	}
}

/*****************************************************************************************************************/

// autoNv picks a velocity-subcloud count proportional to how many channels
// the dispersion spans, so broad lines are still smoothly sampled.
func autoNv(sigma float64, h header.Header) int {
	channelWidth := math.Abs(h.Z.Cdelt)
	if h.SpectralAxis != header.Velocity {
		// Approximate a velocity-equivalent channel width at the reference
		// pixel for non-velocity spectral axes:
		v0 := geometry.VelocityOf(h, h.Z.Crpix-1)
		v1 := geometry.VelocityOf(h, h.Z.Crpix)
		channelWidth = math.Abs(v1 - v0)
	}
	if channelWidth <= 0 {
		return 8
	}
	n := int(math.Ceil(6 * sigma / channelWidth))
	if n < 3 {
		n = 3
	}
	if n > 64 {
		n = 64
	}
	return n
}

/*****************************************************************************************************************/

func sampleHeight(src *rand.Rand, ltype LType, z0 float64) float64 {
	if z0 <= 0 {
		return 0
	}

	u := src.Float64()

	switch ltype {
	case LTypeGaussian:
		return robuststats.NormalDistributedRandomNumber(src, 0, z0)
	case LTypeSech2:
		// Inverse CDF of the logistic distribution scaled by z0:
		return z0 * math.Log(u/(1-u))
	case LTypeExponential:
		sign := 1.0
		if src.Float64() < 0.5 {
			sign = -1.0
		}
		return sign * (-z0 * math.Log(1-u))
	case LTypeLorentzian:
		return z0 * math.Tan(math.Pi*(u-0.5))
	case LTypeBox:
		return robuststats.UniformInRange(src, -z0, z0)
	default:
		return 0
	}
}

/*****************************************************************************************************************/

// normaliseLocal rescales each spatial pixel so its synthetic integrated
// intensity matches the reference map (LOCAL scheme, §4.3).
func normaliseLocal(out *cube.Cube, reference []float64) {
	if reference == nil {
		return
	}

	npix := out.Nx * out.Ny

	integrated := make([]float64, npix)
	for z := 0; z < out.Nz; z++ {
		for p := 0; p < npix; p++ {
			integrated[p] += out.Data[z*npix+p]
		}
	}

	for p := 0; p < npix && p < len(reference); p++ {
		if integrated[p] == 0 {
			continue
		}
		factor := reference[p] / integrated[p]
		for z := 0; z < out.Nz; z++ {
			out.Data[z*npix+p] *= factor
		}
	}
}

/*****************************************************************************************************************/

// scaleRingToReference rescales one ring's entire accumulator cube so its
// total flux matches the corresponding reference radial-profile value
// (AZIMUTHAL scheme, §4.3) before it is folded into the full cube.
func scaleRingToReference(accum *cube.Cube, reference float64) {
	total := accum.Sum()
	if total == 0 {
		return
	}
	factor := reference / total
	for i := range accum.Data {
		accum.Data[i] *= factor
	}
}

/*****************************************************************************************************************/
