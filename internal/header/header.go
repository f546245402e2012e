/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package header defines the immutable descriptor of a cube's pixel and
// spectral grid and its beam, read-only to every other component (§3 of the
// specification this module implements).
package header

/*****************************************************************************************************************/

import "errors"

/*****************************************************************************************************************/

// SpectralKind identifies which physical quantity the spectral axis samples.
type SpectralKind int

/*****************************************************************************************************************/

const (
	Frequency SpectralKind = iota
	Wavelength
	Velocity
)

/*****************************************************************************************************************/

// VelocityDefinition identifies the convention used to convert a spectral
// sample into a line-of-sight velocity.
type VelocityDefinition int

/*****************************************************************************************************************/

const (
	Radio VelocityDefinition = iota
	Optical
	Relativistic
)

/*****************************************************************************************************************/

// SpeedOfLightKmS is the speed of light in km/s, the unit used throughout
// the velocity-domain conversions in this module.
const SpeedOfLightKmS = 299792.458

/*****************************************************************************************************************/

// Beam describes the instrument's elliptical Gaussian point-spread function.
// BmajArcsec < 0 means the beam is unknown; convolution must reject it.
type Beam struct {
	BmajArcsec float64
	BminArcsec float64
	PaDeg      float64
}

/*****************************************************************************************************************/

// Unknown reports whether the beam has not yet been set.
func (b Beam) Unknown() bool {
	return b.BmajArcsec < 0
}

/*****************************************************************************************************************/

// Axis describes one of the header's three coordinate axes in the standard
// FITS reference-pixel/reference-value/step convention.
type Axis struct {
	Crpix float64 // reference pixel (1-indexed, FITS convention)
	Crval float64 // value at the reference pixel
	Cdelt float64 // step per pixel
	Ctype string
	Cunit string
}

/*****************************************************************************************************************/

// Header is the immutable descriptor shared read-only by every component.
type Header struct {
	Nx, Ny, Nz int

	PixelScaleArcsec float64 // arcsec per spatial pixel

	X Axis
	Y Axis
	Z Axis

	SpectralAxis  SpectralKind
	VelocityDef   VelocityDefinition
	RestFrequency float64 // Hz, valid when SpectralAxis == Frequency
	RestWavelength float64 // m, valid when SpectralAxis == Wavelength

	BeamModel Beam

	FluxUnit string
	Blank    float64
	HasBlank bool
}

/*****************************************************************************************************************/

// Validate checks the structural invariants a Header must hold before it can
// be used by any other component.
func (h Header) Validate() error {
	if h.Nx <= 0 || h.Ny <= 0 || h.Nz <= 0 {
		return errors.New("header: cube dimensions must be positive")
	}
	if h.PixelScaleArcsec <= 0 {
		return errors.New("header: pixel scale must be positive")
	}
	if h.Z.Cdelt == 0 {
		return errors.New("header: spectral axis step (CDELT3) must be non-zero")
	}
	return nil
}

/*****************************************************************************************************************/

// IsBlank reports whether value equals the header's blanking value.
func (h Header) IsBlank(value float64) bool {
	return h.HasBlank && value == h.Blank
}

/*****************************************************************************************************************/
