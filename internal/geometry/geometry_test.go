/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package geometry

/*****************************************************************************************************************/

import (
	"math"
	"testing"

	"github.com/observerly/galtilt/internal/header"
)

/*****************************************************************************************************************/

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

/*****************************************************************************************************************/

func radioVelocityHeader() header.Header {
	return header.Header{
		Nx: 64, Ny: 64, Nz: 64,
		PixelScaleArcsec: 1,
		Z: header.Axis{
			Crpix: 1,
			Crval: 0,
			Cdelt: 10,
		},
		SpectralAxis: header.Velocity,
		VelocityDef:  header.Radio,
	}
}

/*****************************************************************************************************************/

func TestChannelOfVelocityOfRoundTrip(t *testing.T) {
	h := radioVelocityHeader()

	for z := 0; z < h.Nz; z++ {
		v := VelocityOf(h, float64(z))
		back := ChannelOf(h, v)
		if !almostEqual(back, float64(z), 1e-9) {
			t.Errorf("channelOf(velocityOf(%d)) = %f; want %d", z, back, z)
		}
	}
}

/*****************************************************************************************************************/

func TestFrequencyVelocityRoundTrip(t *testing.T) {
	h := header.Header{
		Nx: 32, Ny: 32, Nz: 32,
		PixelScaleArcsec: 1,
		Z: header.Axis{
			Crpix: 1,
			Crval: 1.420405e9,
			Cdelt: -1e4,
		},
		SpectralAxis:  header.Frequency,
		VelocityDef:   header.Radio,
		RestFrequency: 1.420405751e9,
	}

	for z := 0; z < h.Nz; z++ {
		v := VelocityOf(h, float64(z))
		back := ChannelOf(h, v)
		if !almostEqual(back, float64(z), 1e-6) {
			t.Errorf("channelOf(velocityOf(%d)) = %f; want %d", z, back, z)
		}
	}
}

/*****************************************************************************************************************/

func TestRingPointToPixelInverse(t *testing.T) {
	cases := []struct {
		r, theta, inc, pa, x0, y0, scale float64
	}{
		{60, 0.5, 60, 90, 32, 32, 1},
		{10, 2.1, 30, 10, 100, 80, 2},
		{0, 0, 0, 0, 0, 0, 1},
	}

	for _, c := range cases {
		x, y := RingPointToPixel(c.r, c.theta, c.inc, c.pa, c.x0, c.y0, c.scale)
		r, theta := PixelToRing(x, y, c.inc, c.pa, c.x0, c.y0, c.scale)

		if !almostEqual(r, c.r, 1e-6) {
			t.Errorf("recovered r = %f; want %f", r, c.r)
		}

		// theta is only meaningful modulo 2*pi and degenerates at r=0:
		if c.r > 1e-9 {
			dx := math.Cos(theta) - math.Cos(c.theta)
			dy := math.Sin(theta) - math.Sin(c.theta)
			if math.Hypot(dx, dy) > 1e-6 {
				t.Errorf("recovered theta = %f; want %f", theta, c.theta)
			}
		}
	}
}

/*****************************************************************************************************************/

func TestRadiansDegreesRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 45, 90, 180, 359.5} {
		if !almostEqual(Degrees(Radians(deg)), deg, 1e-9) {
			t.Errorf("degrees(radians(%f)) round trip failed", deg)
		}
	}
}

/*****************************************************************************************************************/
