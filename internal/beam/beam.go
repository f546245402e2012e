/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package beam implements the analytic elliptical Gaussian point-spread
// function of §4.2: an exact-sum-to-one sampled kernel and a direct spatial
// convolver, in the teacher's habit (pkg/sky's generateMoffatProfile) of
// building a small flattened profile over a bounded pixel window rather than
// reaching for an FFT-based convolution.
package beam

/*****************************************************************************************************************/

import (
	"errors"
	"math"

	"github.com/observerly/galtilt/internal/header"
	"github.com/observerly/galtilt/internal/matrix"
)

/*****************************************************************************************************************/

// ErrBeamUnknown is returned when convolution is attempted against a header
// whose beam has not been set (BmajArcsec < 0, per §4.2).
var ErrBeamUnknown = errors.New("beam: header beam is unknown; it must be set before convolution")

/*****************************************************************************************************************/

// Kernel2D samples a centred elliptical Gaussian with FWHMs bmaj, bmin
// (arcsec) and position angle paDeg (degrees, east of north), in pixels of
// size scaleArcsec, sized to at least 5 sigma on each axis, normalised so the
// kernel sums to one.
func Kernel2D(bmajArcsec, bminArcsec, paDeg, scaleArcsec float64) (*matrix.Matrix, error) {
	if bmajArcsec < 0 {
		return nil, ErrBeamUnknown
	}
	if bminArcsec <= 0 || bmajArcsec <= 0 {
		return nil, errors.New("beam: bmaj and bmin must be positive")
	}

	// Convert FWHM to sigma in pixels:
	const fwhmToSigma = 1.0 / 2.3548200450309493 // 1 / (2*sqrt(2*ln2))
	sigmaMajPx := (bmajArcsec / scaleArcsec) * fwhmToSigma
	sigmaMinPx := (bminArcsec / scaleArcsec) * fwhmToSigma

	// Size the kernel to at least 5 sigma on the major axis on each side:
	half := int(math.Ceil(5 * math.Max(sigmaMajPx, sigmaMinPx)))
	if half < 1 {
		half = 1
	}
	size := 2*half + 1

	k, err := matrix.New(size, size)
	if err != nil {
		return nil, err
	}

	pa := paDeg * math.Pi / 180

	// Rotate into the beam's major/minor axis frame; pa is measured east of
	// north (0 at +y, increasing through -x), matching the ring convention
	// in internal/geometry:
	sinPa, cosPa := math.Sin(pa), math.Cos(pa)

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			dx := float64(col - half)
			dy := float64(row - half)

			// Rotate (dx,dy) into the beam-aligned frame:
			u := -dx*sinPa - dy*cosPa
			v := dx*cosPa - dy*sinPa

			value := math.Exp(-0.5 * ((u*u)/(sigmaMajPx*sigmaMajPx) + (v*v)/(sigmaMinPx*sigmaMinPx)))

			if err := k.Set(row, col, value); err != nil {
				return nil, err
			}
		}
	}

	sum := k.Sum()
	if sum <= 0 {
		return nil, errors.New("beam: kernel sampled to zero; check bmaj/bmin against pixel scale")
	}
	k.Scale(1 / sum)

	return k, nil
}

/*****************************************************************************************************************/

// KernelFromHeader builds the kernel described by h.BeamModel, scaled by
// h.PixelScaleArcsec.
func KernelFromHeader(h header.Header) (*matrix.Matrix, error) {
	if h.BeamModel.Unknown() {
		return nil, ErrBeamUnknown
	}
	return Kernel2D(h.BeamModel.BmajArcsec, h.BeamModel.BminArcsec, h.BeamModel.PaDeg, h.PixelScaleArcsec)
}

/*****************************************************************************************************************/

// ConvolvePlane convolves a flattened Nx*Ny plane (x-fastest) with kernel
// using direct spatial convolution and zero-padded boundaries. blank voxels
// (matching blankValue when hasBlank is true) pass through unmodified.
func ConvolvePlane(plane []float64, nx, ny int, kernel *matrix.Matrix, hasBlank bool, blankValue float64) ([]float64, error) {
	if kernel == nil {
		return nil, ErrBeamUnknown
	}
	if len(plane) != nx*ny {
		return nil, errors.New("beam: plane length does not match nx*ny")
	}

	ksize := kernel.Rows()
	khalf := ksize / 2

	out := make([]float64, nx*ny)

	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			idx := y*nx + x

			if hasBlank && plane[idx] == blankValue {
				out[idx] = blankValue
				continue
			}

			acc := 0.0
			for kr := 0; kr < ksize; kr++ {
				sy := y + kr - khalf
				if sy < 0 || sy >= ny {
					continue
				}
				for kc := 0; kc < ksize; kc++ {
					sx := x + kc - khalf
					if sx < 0 || sx >= nx {
						continue
					}

					srcIdx := sy*nx + sx
					srcVal := plane[srcIdx]

					if hasBlank && srcVal == blankValue {
						continue
					}

					w, err := kernel.At(kr, kc)
					if err != nil {
						return nil, err
					}

					acc += srcVal * w
				}
			}

			out[idx] = acc
		}
	}

	return out, nil
}

/*****************************************************************************************************************/
