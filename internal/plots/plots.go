/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package plots renders the per-ring PA/INC/VROT/VDISP radial profile
// diagnostics named in §6's "Persisted outputs" as PNG images, adapting
// the teacher's `gg.Context` drawing calls from star/quad annotation over
// a FITS frame to plain XY line-plot rendering over a blank canvas.
package plots

/*****************************************************************************************************************/

import (
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/observerly/galtilt/internal/ringset"
)

/*****************************************************************************************************************/

const (
	width      = 800
	height     = 500
	marginLeft = 70
	marginRest = 30
)

/*****************************************************************************************************************/

var (
	axisColor  = color.RGBA{R: 71, G: 85, B: 105, A: 255}
	lineColor  = color.RGBA{R: 129, G: 140, B: 248, A: 255}
	pointColor = color.RGBA{R: 241, G: 245, B: 249, A: 255}
	badColor   = color.RGBA{R: 248, G: 113, B: 113, A: 255}
	textColor  = color.RGBA{R: 15, G: 23, B: 42, A: 255}
)

/*****************************************************************************************************************/

// Series is one named radial profile: a parameter value (and whether that
// ring converged) at each ring radius.
type Series struct {
	Label  string
	Unit   string
	Radii  []float64
	Values []float64
	Bad    []bool // NotConverged or NoData, drawn in badColor
}

/*****************************************************************************************************************/

// FromRingSet extracts the four standard diagnostic series (PA, INC, VROT,
// VDISP) named in §6 from a fitted ring set.
func FromRingSet(rs *ringset.RingSet) []Series {
	n := len(rs.Rings)

	radii := make([]float64, n)
	pa := make([]float64, n)
	inc := make([]float64, n)
	vrot := make([]float64, n)
	vdisp := make([]float64, n)
	bad := make([]bool, n)

	for i, r := range rs.Rings {
		radii[i] = r.Radius
		pa[i] = r.Pa
		inc[i] = r.Inc
		vrot[i] = r.Vrot
		vdisp[i] = r.Vdisp
		bad[i] = r.NotConverged || r.NoData
	}

	return []Series{
		{Label: "PA", Unit: "deg", Radii: radii, Values: pa, Bad: bad},
		{Label: "INC", Unit: "deg", Radii: radii, Values: inc, Bad: bad},
		{Label: "VROT", Unit: "km/s", Radii: radii, Values: vrot, Bad: bad},
		{Label: "VDISP", Unit: "km/s", Radii: radii, Values: vdisp, Bad: bad},
	}
}

/*****************************************************************************************************************/

// Render draws a single radial profile to w as a PNG.
func Render(w io.Writer, s Series) error {
	dc := gg.NewContext(width, height)

	dc.SetColor(color.White)
	dc.Clear()

	if len(s.Radii) == 0 {
		return png.Encode(w, dc.Image())
	}

	minR, maxR := extent(s.Radii)
	minV, maxV := extent(s.Values)
	if minV == maxV {
		minV -= 1
		maxV += 1
	}

	plotX := func(r float64) float64 {
		return marginLeft + (r-minR)/(maxR-minR)*(width-marginLeft-marginRest)
	}
	plotY := func(v float64) float64 {
		return height - marginRest - (v-minV)/(maxV-minV)*(height-marginRest-marginRest)
	}

	dc.SetColor(axisColor)
	dc.SetLineWidth(1.5)
	dc.DrawLine(marginLeft, marginRest, marginLeft, height-marginRest)
	dc.DrawLine(marginLeft, height-marginRest, width-marginRest, height-marginRest)
	dc.Stroke()

	dc.SetColor(lineColor)
	dc.SetLineWidth(2)
	for i := 1; i < len(s.Radii); i++ {
		dc.DrawLine(plotX(s.Radii[i-1]), plotY(s.Values[i-1]), plotX(s.Radii[i]), plotY(s.Values[i]))
	}
	dc.Stroke()

	for i := range s.Radii {
		if len(s.Bad) > i && s.Bad[i] {
			dc.SetColor(badColor)
		} else {
			dc.SetColor(pointColor)
		}
		dc.DrawCircle(plotX(s.Radii[i]), plotY(s.Values[i]), 3.5)
		dc.Fill()
	}

	dc.SetColor(textColor)
	dc.DrawString(fmt.Sprintf("%s (%s) vs radius (arcsec)", s.Label, s.Unit), marginLeft, 20)

	return png.Encode(w, dc.Image())
}

/*****************************************************************************************************************/

func extent(values []float64) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

/*****************************************************************************************************************/
