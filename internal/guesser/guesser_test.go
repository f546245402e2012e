/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package guesser

/*****************************************************************************************************************/

import (
	"math"
	"testing"

	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/finder"
	"github.com/observerly/galtilt/internal/header"
)

/*****************************************************************************************************************/

func diskHeader(n int) header.Header {
	return header.Header{
		Nx: n, Ny: n, Nz: 64,
		PixelScaleArcsec: 1,
		Z:                header.Axis{Crpix: 1, Crval: -300, Cdelt: 10},
		SpectralAxis:     header.Velocity,
		BeamModel:        header.Beam{BmajArcsec: 5, BminArcsec: 5},
	}
}

/*****************************************************************************************************************/

// buildDiscDetection synthesises a simple rotating-disk detection by hand:
// a solid circular disk of radius rPix centred at (cx,cy), with velocity
// increasing linearly with distance along the +x axis, i.e. the receding
// (redshifted) half is the +x half. Under this module's PA convention (0
// degrees at +y, increasing through -x), the line through the centre along
// x corresponds to a candidate angle of 90 degrees; the receding-side
// disambiguation should then report a PA near 270 degrees, whose forward
// direction points toward +x.
func buildDiscDetection(t *testing.T, h header.Header, cx, cy, rPix, vsys float64) (*cube.Cube, *finder.Detection) {
	t.Helper()

	c := cube.New(h.Nx, h.Ny, h.Nz)
	obj := map[int]*finder.Object2D{}

	for y := 0; y < h.Ny; y++ {
		for x := 0; x < h.Nx; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			r := math.Hypot(dx, dy)
			if r > rPix {
				continue
			}
			v := vsys + 100*(dx/rPix)
			z := int(math.Round((v - h.Z.Crval) / h.Z.Cdelt))
			if z < 0 || z >= h.Nz {
				continue
			}
			c.Set(x, y, z, 1.0)
			o, ok := obj[z]
			if !ok {
				o = &finder.Object2D{Z: z}
				obj[z] = o
			}
			o.Scans = append(o.Scans, finder.Scan{Y: y, XStart: x, XEnd: x})
		}
	}

	d := &finder.Detection{Channels: obj}
	moments := BuildMoments(h, c, d)
	// Recompute the finder-side aggregate fields the same way finder would,
	// using the moment maps this test just built directly from the cube.
	var sumFlux, sumX, sumY, sumZV float64
	for i, has := range moments.HasData {
		if !has {
			continue
		}
		flux := moments.Intensity[i]
		x := float64(i % h.Nx)
		y := float64(i / h.Nx)
		sumFlux += flux
		sumX += flux * x
		sumY += flux * y
		sumZV += flux * moments.Velocity[i]
	}
	d.Flux = sumFlux
	d.XCen = sumX / sumFlux
	d.YCen = sumY / sumFlux
	d.Vsys = sumZV / sumFlux
	d.W50 = 100

	return c, d
}

/*****************************************************************************************************************/

func TestGuessCentreWithinOnePixel(t *testing.T) {
	h := diskHeader(64)
	cx, cy := 40.5, 25.5
	c, d := buildDiscDetection(t, h, cx, cy, 10, 0)

	result, err := Guess(h, c, d, Options{})
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if len(result.RingSet.Rings) == 0 {
		t.Fatalf("Guess produced an empty ring set")
	}

	gx := result.RingSet.Rings[0].Xpos
	gy := result.RingSet.Rings[0].Ypos

	if math.Abs(gx-cx) > 1.0 {
		t.Errorf("guessed Xpos = %f; want within 1px of %f", gx, cx)
	}
	if math.Abs(gy-cy) > 1.0 {
		t.Errorf("guessed Ypos = %f; want within 1px of %f", gy, cy)
	}
}

/*****************************************************************************************************************/

func TestGuessPADiscrimination(t *testing.T) {
	h := diskHeader(64)
	c, d := buildDiscDetection(t, h, 32, 32, 15, 0)

	result, err := Guess(h, c, d, Options{})
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}

	pa := result.RingSet.Rings[0].Pa
	if pa < 260 || pa > 280 {
		t.Errorf("guessed PA = %f; want within [260,280] (receding half on +x)", pa)
	}
}

/*****************************************************************************************************************/
