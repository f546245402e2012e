/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package geometry implements the pixel <-> sky and channel <-> velocity
// transforms of §4.1: pure functions over a header.Header, composed the way
// the teacher composes its own coordinate transforms (deprojection, rotation,
// translation) in pkg/wcs and pkg/projection.
package geometry

/*****************************************************************************************************************/

import (
	"math"

	"github.com/observerly/galtilt/internal/header"
)

/*****************************************************************************************************************/

// RAD2DEG and DEG2RAD mirror the teacher's pkg/projection constants; every
// inclination/position-angle conversion in this module goes through these so
// the degrees-vs-radians inconsistency flagged as an Open Question in the
// specification (inc/360*pi vs inc/180*pi) never recurs here.
var (
	RAD2DEG = 180 / math.Pi
	DEG2RAD = math.Pi / 180
)

/*****************************************************************************************************************/

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * DEG2RAD
}

/*****************************************************************************************************************/

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * RAD2DEG
}

/*****************************************************************************************************************/

// VelocityOf converts a fractional channel index to a line-of-sight velocity
// in km/s, per the header's spectral axis kind and velocity definition.
func VelocityOf(h header.Header, z float64) float64 {
	switch h.SpectralAxis {
	case header.Velocity:
		// The spectral axis already samples velocity directly.
		return h.Z.Crval + (z-(h.Z.Crpix-1))*h.Z.Cdelt
	case header.Frequency:
		nu0 := h.RestFrequency
		nu := h.Z.Crval + (z-(h.Z.Crpix-1))*h.Z.Cdelt
		return frequencyToVelocity(nu0, nu, h.VelocityDef)
	case header.Wavelength:
		lambda0 := h.RestWavelength
		lambda := h.Z.Crval + (z-(h.Z.Crpix-1))*h.Z.Cdelt
		return wavelengthToVelocity(lambda0, lambda, h.VelocityDef)
	default:
		return math.NaN()
	}
}

/*****************************************************************************************************************/

func frequencyToVelocity(nu0, nu float64, def header.VelocityDefinition) float64 {
	c := header.SpeedOfLightKmS
	switch def {
	case header.Radio:
		return c * (nu0 - nu) / nu0
	case header.Optical:
		return c * (nu0*nu0 - nu*nu) / (nu0 * nu0)
	case header.Relativistic:
		return c * (nu0*nu0 - nu*nu) / (nu0*nu0 + nu*nu)
	default:
		return math.NaN()
	}
}

/*****************************************************************************************************************/

func wavelengthToVelocity(lambda0, lambda float64, def header.VelocityDefinition) float64 {
	c := header.SpeedOfLightKmS
	switch def {
	case header.Radio:
		return c * (lambda - lambda0) / lambda
	case header.Optical:
		return c * (lambda - lambda0) / lambda0
	case header.Relativistic:
		r := lambda * lambda / (lambda0 * lambda0)
		return c * (r - 1) / (r + 1)
	default:
		return math.NaN()
	}
}

/*****************************************************************************************************************/

// ChannelOf converts a line-of-sight velocity (km/s) back to a fractional
// channel index; it is the exact inverse of VelocityOf (§8: "channelOf(
// velocityOf(z)) == z for all integer z to machine precision").
func ChannelOf(h header.Header, v float64) float64 {
	var physical float64
	switch h.SpectralAxis {
	case header.Velocity:
		physical = v
		return (physical-h.Z.Crval)/h.Z.Cdelt + (h.Z.Crpix - 1)
	case header.Frequency:
		nu0 := h.RestFrequency
		physical = velocityToFrequency(nu0, v, h.VelocityDef)
	case header.Wavelength:
		lambda0 := h.RestWavelength
		physical = velocityToWavelength(lambda0, v, h.VelocityDef)
	default:
		return math.NaN()
	}
	return (physical-h.Z.Crval)/h.Z.Cdelt + (h.Z.Crpix - 1)
}

/*****************************************************************************************************************/

func velocityToFrequency(nu0, v float64, def header.VelocityDefinition) float64 {
	c := header.SpeedOfLightKmS
	switch def {
	case header.Radio:
		return nu0 * (1 - v/c)
	case header.Optical:
		return nu0 * math.Sqrt(1-v/c)
	case header.Relativistic:
		beta := v / c
		return nu0 * math.Sqrt((1-beta)/(1+beta))
	default:
		return math.NaN()
	}
}

/*****************************************************************************************************************/

func velocityToWavelength(lambda0, v float64, def header.VelocityDefinition) float64 {
	c := header.SpeedOfLightKmS
	switch def {
	case header.Radio:
		return lambda0 / (1 - v/c)
	case header.Optical:
		return lambda0 * (1 + v/c)
	case header.Relativistic:
		beta := v / c
		return lambda0 * math.Sqrt((1+beta)/(1-beta))
	default:
		return math.NaN()
	}
}

/*****************************************************************************************************************/

// RingPointToPixel maps a disk-plane point at radius r (arcsec) and azimuth
// theta (radians, measured from the major axis in the disk plane) onto sky
// pixel coordinates, given inclination and position angle (degrees) and a
// centre (pixels). Composition: deprojection by inc, rotation by pa,
// translation by (x0,y0) — §4.1.
func RingPointToPixel(
	r, theta float64,
	incDeg, paDeg float64,
	x0, y0 float64,
	pixelScaleArcsec float64,
) (x, y float64) {
	inc := Radians(incDeg)
	pa := Radians(paDeg)

	// Disk-plane cartesian coordinates before deprojection:
	xd := r * math.Cos(theta)
	yd := r * math.Sin(theta) * math.Cos(inc)

	// Rotate by the position angle, measured east of north (0 deg at +y,
	// increasing through -x, the galactic convention):
	xs := -xd*math.Sin(pa) - yd*math.Cos(pa)
	ys := xd*math.Cos(pa) - yd*math.Sin(pa)

	// Translate by the centre, converting arcsec to pixels:
	x = x0 + xs/pixelScaleArcsec
	y = y0 + ys/pixelScaleArcsec

	return x, y
}

/*****************************************************************************************************************/

// PixelToRing is the inverse of RingPointToPixel: given a sky pixel and ring
// geometry it recovers the disk-plane radius (arcsec) and azimuth (radians).
func PixelToRing(
	x, y float64,
	incDeg, paDeg float64,
	x0, y0 float64,
	pixelScaleArcsec float64,
) (r, theta float64) {
	inc := Radians(incDeg)
	pa := Radians(paDeg)

	xs := (x - x0) * pixelScaleArcsec
	ys := (y - y0) * pixelScaleArcsec

	xd := -xs*math.Sin(pa) + ys*math.Cos(pa)
	yd := -xs*math.Cos(pa) - ys*math.Sin(pa)

	cosInc := math.Cos(inc)
	var yUndeprojected float64
	if math.Abs(cosInc) > 1e-12 {
		yUndeprojected = yd / cosInc
	} else {
		yUndeprojected = yd / 1e-12
	}

	r = math.Hypot(xd, yUndeprojected)
	theta = math.Atan2(yUndeprojected, xd)

	return r, theta
}

/*****************************************************************************************************************/
