/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package robuststats implements the robust location/scale estimators of
// §4.8 (mean, stddev, median, MADFM) and the Monte-Carlo sampling primitives
// used by the cube synthesiser, grounded on the teacher's own
// pkg/statistics package (a small free-function random-number helper rather
// than a stateful "Stats" object) but corrected: the teacher's
// NormalDistributedRandomNumber does not actually sample a Gaussian
// (v*(stdDev*sqrt(2*pi))+mean is not a valid inverse-CDF or Box-Muller
// transform), which would bias the Monte-Carlo cloud placement in §4.3.
// This package uses a real Box-Muller transform instead.
package robuststats

/*****************************************************************************************************************/

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

/*****************************************************************************************************************/

// Stats is a robust summary of a float64 sample.
type Stats struct {
	Mean   float64
	StdDev float64
	Median float64
	MADFM  float64
}

/*****************************************************************************************************************/

// Compute derives mean, stddev, median and MADFM over values, optionally
// restricted to the positions where mask is true (mask may be nil, meaning
// "include everything"). The input slice is never mutated: MADFM uses a
// scratch buffer, per §4.8.
func Compute(values []float64, mask []bool) Stats {
	filtered := filter(values, mask)
	if len(filtered) == 0 {
		return Stats{}
	}

	mean := stat.Mean(filtered, nil)
	stddev := stat.StdDev(filtered, nil)
	median := Median(filtered)
	madfm := MADFM(filtered, median)

	return Stats{Mean: mean, StdDev: stddev, Median: median, MADFM: madfm}
}

/*****************************************************************************************************************/

func filter(values []float64, mask []bool) []float64 {
	if mask == nil {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	out := make([]float64, 0, len(values))
	for i, v := range values {
		if i < len(mask) && mask[i] {
			out = append(out, v)
		}
	}
	return out
}

/*****************************************************************************************************************/

// Median returns the median of values without mutating the input.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	scratch := make([]float64, len(values))
	copy(scratch, values)
	sort.Float64s(scratch)

	n := len(scratch)
	if n%2 == 1 {
		return scratch[n/2]
	}
	return (scratch[n/2-1] + scratch[n/2]) / 2
}

/*****************************************************************************************************************/

// MADFM returns the median absolute deviation from the given median, without
// mutating the input.
func MADFM(values []float64, median float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	scratch := make([]float64, len(values))
	for i, v := range values {
		scratch[i] = math.Abs(v - median)
	}
	return Median(scratch)
}

/*****************************************************************************************************************/

// MADFMToSigma converts a MADFM value to the equivalent Gaussian standard
// deviation (sigma = MADFM/0.6745), per §4.6's robust noise definition.
func MADFMToSigma(madfm float64) float64 {
	return madfm / 0.6745
}

/*****************************************************************************************************************/

// NormalDistributedRandomNumber draws a Gaussian-distributed random number
// with the given mean and standard deviation via the Box-Muller transform,
// using src as its entropy source so callers can seed deterministically
// per §5/§9 ("RNG must be seeded deterministically from (ring_index, run_seed)").
func NormalDistributedRandomNumber(src *rand.Rand, mean, stdDev float64) float64 {
	u1 := src.Float64()
	u2 := src.Float64()

	// Guard against log(0):
	for u1 <= 1e-300 {
		u1 = src.Float64()
	}

	z0 := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	return mean + stdDev*z0
}

/*****************************************************************************************************************/

// UniformInRange draws a uniform random number in [lo, hi).
func UniformInRange(src *rand.Rand, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

/*****************************************************************************************************************/
