/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package guesser implements the parameter guesser of §4.7: given a
// primary finder.Detection it derives first-guess tilted-ring geometry
// (centre, systemic velocity, position angle, inclination, maximum radius,
// ring width, rotation speed) from the detection's moment maps, refining
// inclination with the same downhill-simplex minimiser the fitter uses
// (internal/simplex). Grounded on the teacher's habit of a small dedicated
// search routine for a low-dimensional geometric fit (pkg/solver runs two
// independent search passes and reduces their results; this package runs
// one low-dimensional simplex search over the same internal/simplex
// primitive the ring fitter uses).
package guesser

/*****************************************************************************************************************/

import (
	"context"
	"math"

	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/finder"
	"github.com/observerly/galtilt/internal/galmod"
	"github.com/observerly/galtilt/internal/geometry"
	"github.com/observerly/galtilt/internal/header"
	"github.com/observerly/galtilt/internal/ringset"
	"github.com/observerly/galtilt/internal/robuststats"
	"github.com/observerly/galtilt/internal/simplex"
)

/*****************************************************************************************************************/

// InclinationObjective selects the cost minimised by the optional
// inclination refinement of §4.7.
type InclinationObjective int

/*****************************************************************************************************************/

const (
	// ObjectiveBlankCount minimises (blank voxels inside the candidate
	// ellipse) minus (non-blank voxels inside it).
	ObjectiveBlankCount InclinationObjective = iota
	// ObjectiveIntensityResidual minimises the sum of absolute differences
	// between the observed intensity map and a disposable flat-ring-profile
	// synthesis of §4.3.
	ObjectiveIntensityResidual
)

/*****************************************************************************************************************/

// Options configures a Guess call.
type Options struct {
	RefineInclination    bool
	InclinationObjective InclinationObjective

	// DefaultVdisp and DefaultZ0 seed every guessed ring's dispersion and
	// scale height, which have no direct geometric estimator in §4.7.
	DefaultVdisp float64
	DefaultZ0    float64

	// ModelOpts is used only for the ObjectiveIntensityResidual refinement
	// pass's disposable galmod.Synthesise calls.
	ModelOpts galmod.Options
}

/*****************************************************************************************************************/

// Result is the outcome of a Guess call: the initial ring set plus any
// non-fatal warnings encountered deriving it (§4.7's axmaj/axmin swap, for
// instance).
type Result struct {
	RingSet  *ringset.RingSet
	Warnings []string
}

/*****************************************************************************************************************/

// Guess derives an initial RingSet from the primary detection d, per §4.7.
func Guess(h header.Header, c *cube.Cube, d *finder.Detection, opts Options) (*Result, error) {
	moments := BuildMoments(h, c, d)

	xGeom, yGeom := geometricCentroid(moments)
	x0 := (xGeom + d.XCen) / 2
	y0 := (yGeom + d.YCen) / 2
	vsys := d.Vsys

	var warnings []string

	pa := estimatePA(moments, x0, y0, vsys)

	axmaj, axmin := axisLengths(moments, x0, y0, pa)
	if axmin > axmaj {
		axmaj, axmin = axmin, axmaj
		warnings = append(warnings, "guesser: axmin > axmaj on the initial major/minor axis estimate; swapped")
	}

	var inc float64
	if axmaj > 0 {
		inc = geometry.Degrees(math.Acos(clampUnit(axmin / axmaj)))
	} else {
		inc = 45
	}
	rmax := axmaj * h.PixelScaleArcsec

	if opts.RefineInclination {
		rmax, inc = refineInclination(h, c, moments, x0, y0, pa, rmax, inc, opts)
	}

	deltaR := h.BeamModel.BmajArcsec * h.PixelScaleArcsec
	if deltaR <= 0 {
		deltaR = rmax / 10
	}
	nRings := 0
	for attempt := 0; attempt < 8; attempt++ {
		nRings = int(math.Round(rmax / deltaR))
		if nRings >= 5 || deltaR <= 1e-9 {
			break
		}
		deltaR /= 2
	}
	if nRings < 1 {
		nRings = 1
	}

	incRad := geometry.Radians(inc)
	var vrot float64
	if math.Sin(incRad) > 1e-6 {
		vrot = d.W50 / (2 * math.Sin(incRad))
	}

	vdisp := opts.DefaultVdisp
	if vdisp <= 0 {
		vdisp = 8
	}
	z0 := opts.DefaultZ0

	avgIntensity := 0.0
	nPix := 0
	for i, has := range moments.HasData {
		if has {
			avgIntensity += moments.Intensity[i]
			nPix++
		}
	}
	density := 1.0
	if nPix > 0 {
		density = avgIntensity / float64(nPix)
		if density <= 0 {
			density = 1.0
		}
	}

	template := ringset.Ring{
		Xpos:    x0,
		Ypos:    y0,
		Vsys:    vsys,
		Vrot:    vrot,
		Vdisp:   vdisp,
		Inc:     inc,
		Pa:      math.Mod(pa+360, 360),
		Z0:      z0,
		Density: density,
	}

	rs := ringset.New(nRings, deltaR, template)

	return &Result{RingSet: rs, Warnings: warnings}, nil
}

/*****************************************************************************************************************/

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

/*****************************************************************************************************************/

// geometricCentroid returns the unweighted mean pixel position of every
// pixel carrying any detected flux, §4.7's "geometric centroid".
func geometricCentroid(m *Moments) (x, y float64) {
	var sx, sy float64
	n := 0
	for py := 0; py < m.Ny; py++ {
		for px := 0; px < m.Nx; px++ {
			_, _, ok := m.At(px, py)
			if !ok {
				continue
			}
			sx += float64(px)
			sy += float64(py)
			n++
		}
	}
	if n == 0 {
		return float64(m.Nx) / 2, float64(m.Ny) / 2
	}
	return sx / float64(n), sy / float64(n)
}

/*****************************************************************************************************************/

// sampleLine walks outward from (x0,y0) at angle pDeg (degrees, measured
// the same way as ring.Pa: east of north, 0 at +y) in unit-pixel steps in
// both directions, returning the velocities and signed distances of every
// pixel with data along the line.
func sampleLine(m *Moments, x0, y0, pDeg float64, maxSteps int) (distances, velocities []float64) {
	rad := geometry.Radians(pDeg)
	// Direction vector for "north rotated east by pDeg", matching the ring
	// convention of internal/geometry.RingPointToPixel's rotation sense.
	dx := -math.Sin(rad)
	dy := math.Cos(rad)

	for s := -maxSteps; s <= maxSteps; s++ {
		if s == 0 {
			continue
		}
		px := int(math.Round(x0 + float64(s)*dx))
		py := int(math.Round(y0 + float64(s)*dy))
		_, v, ok := m.At(px, py)
		if !ok {
			continue
		}
		distances = append(distances, float64(s))
		velocities = append(velocities, v)
	}
	return
}

/*****************************************************************************************************************/

// estimatePA implements §4.7's kinematic position angle search: rotate a
// candidate angle p in [0,180) in 0.5-degree steps, sample the velocity
// field along the line through the centre at angle p, and take the median
// absolute deviation from vsys; the maximising p is the kinematic PA (up to
// the 180-degree ambiguity, broken by which half is receding).
func estimatePA(m *Moments, x0, y0, vsys float64) float64 {
	maxSteps := m.Nx + m.Ny

	bestP := 0.0
	bestScore := -1.0

	for p := 0.0; p < 180; p += 0.5 {
		_, velocities := sampleLine(m, x0, y0, p, maxSteps)
		if len(velocities) == 0 {
			continue
		}
		score := medianAbsDeviationFrom(velocities, vsys)
		if score > bestScore {
			bestScore = score
			bestP = p
		}
	}

	distances, velocities := sampleLine(m, x0, y0, bestP, maxSteps)
	var posSum, negSum float64
	for i, d := range distances {
		if d > 0 {
			posSum += velocities[i] - vsys
		} else {
			negSum += velocities[i] - vsys
		}
	}

	// The receding (redshifted, v > vsys) side defines the +PA direction;
	// if the "positive distance" side is approaching instead, the true PA
	// points the opposite way.
	if posSum < negSum {
		bestP += 180
	}

	return math.Mod(bestP+360, 360)
}

/*****************************************************************************************************************/

func medianAbsDeviationFrom(values []float64, reference float64) float64 {
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - reference)
	}
	return robuststats.Median(dev)
}

/*****************************************************************************************************************/

// axisLengths returns the pixel distance to the farthest non-blank pixel
// along the major-axis line (angle pa) and the minor-axis line (pa+90),
// per §4.7.
func axisLengths(m *Moments, x0, y0, pa float64) (axmaj, axmin float64) {
	maxSteps := m.Nx + m.Ny

	distances, _ := sampleLine(m, x0, y0, pa, maxSteps)
	for _, d := range distances {
		if math.Abs(d) > axmaj {
			axmaj = math.Abs(d)
		}
	}

	distancesMinor, _ := sampleLine(m, x0, y0, pa+90, maxSteps)
	for _, d := range distancesMinor {
		if math.Abs(d) > axmin {
			axmin = math.Abs(d)
		}
	}

	return axmaj, axmin
}

/*****************************************************************************************************************/

// refineInclination runs a 2-parameter downhill simplex over (Rmax, inc)
// per §4.7's optional refinement, using the simplex primitive shared with
// the ring fitter (internal/simplex).
func refineInclination(h header.Header, c *cube.Cube, m *Moments, x0, y0, pa, rmax, inc float64, opts Options) (float64, float64) {
	objective := func(point []float64) float64 {
		r, i := point[0], point[1]
		if r <= 0 || i < 0 || i > 90 {
			return math.Inf(1)
		}
		switch opts.InclinationObjective {
		case ObjectiveIntensityResidual:
			return intensityResidualObjective(h, m, x0, y0, pa, r, i, opts)
		default:
			return blankCountObjective(m, x0, y0, pa, r, i, h.PixelScaleArcsec)
		}
	}

	start := []float64{rmax, inc}
	step := []float64{rmax * 0.1, inc * 0.1}
	if step[1] == 0 {
		step[1] = 5
	}

	simplexOpts := simplex.DefaultOptions()
	simplexOpts.InitialStep = step
	simplexOpts.MaxIterations = 500

	result, err := simplex.Minimize(objective, start, simplexOpts)
	if err != nil || len(result.Best) != 2 {
		return rmax, inc
	}

	r, i := result.Best[0], result.Best[1]
	if r <= 0 || i < 0 || i > 90 {
		return rmax, inc
	}
	return r, i
}

/*****************************************************************************************************************/

func blankCountObjective(m *Moments, x0, y0, pa, rmaxArcsec, incDeg, pixelScaleArcsec float64) float64 {
	var blanksInside, nonBlanksInside int
	for py := 0; py < m.Ny; py++ {
		for px := 0; px < m.Nx; px++ {
			r, _ := geometry.PixelToRing(float64(px), float64(py), incDeg, pa, x0, y0, pixelScaleArcsec)
			if r > rmaxArcsec {
				continue
			}
			if _, _, ok := m.At(px, py); ok {
				nonBlanksInside++
			} else {
				blanksInside++
			}
		}
	}
	return float64(blanksInside - nonBlanksInside)
}

/*****************************************************************************************************************/

// intensityResidualObjective synthesises a disposable flat-ring-profile
// model cube (§4.3, via internal/galmod) and compares its intensity map
// against the observed one. The template ring's density is normalised to
// O(1) to avoid underflow in the synthesiser, per §4.7.
func intensityResidualObjective(h header.Header, m *Moments, x0, y0, pa, rmaxArcsec, incDeg float64, opts Options) float64 {
	ring := ringset.Ring{
		Radius:  rmaxArcsec / 2,
		Width:   rmaxArcsec,
		Xpos:    x0,
		Ypos:    y0,
		Inc:     incDeg,
		Pa:      pa,
		Vdisp:   8,
		Density: 1.0,
	}
	rs := &ringset.RingSet{DeltaR: ring.Width, Rings: []ringset.Ring{ring}}

	modelOpts := opts.ModelOpts
	if modelOpts.Cdens <= 0 {
		modelOpts.Cdens = 2
	}
	if modelOpts.Nv == 0 {
		modelOpts.Nv = 1
	}
	modelOpts.Smooth = false
	modelOpts.Seed = 1

	model, err := galmod.Synthesise(context.Background(), h, rs, modelOpts)
	if err != nil {
		return math.Inf(1)
	}

	npix := h.Nx * h.Ny
	modelIntensity := make([]float64, npix)
	for z := 0; z < h.Nz; z++ {
		for p := 0; p < npix; p++ {
			modelIntensity[p] += model.Data[z*npix+p]
		}
	}

	var total float64
	for i := range modelIntensity {
		total += math.Abs(m.Intensity[i] - modelIntensity[i])
	}
	return total
}
