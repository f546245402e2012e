/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package galfit

/*****************************************************************************************************************/

import (
	"math"
	"testing"

	"github.com/observerly/galtilt/internal/ringset"
)

/*****************************************************************************************************************/

func TestPolynomialFitRecoversLinearProfile(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := make([]float64, len(x))
	for i, xv := range x {
		y[i] = 3 + 2*xv
	}

	coeffs, ok := polynomialFit(x, y, 1)
	if !ok {
		t.Fatalf("polynomialFit reported failure for a well-posed system")
	}
	if math.Abs(coeffs[0]-3) > 1e-6 || math.Abs(coeffs[1]-2) > 1e-6 {
		t.Errorf("coeffs = %v; want [3 2]", coeffs)
	}
}

/*****************************************************************************************************************/

func TestBezierSmoothPreservesEndpoints(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{10, 0, 10, 0, 10}

	smoothed := bezierSmooth(x, y)

	if smoothed[0] != y[0] || smoothed[len(y)-1] != y[len(y)-1] {
		t.Errorf("bezierSmooth must leave endpoints unchanged, got %v", smoothed)
	}
	for i := 1; i < len(y)-1; i++ {
		if smoothed[i] == y[i] {
			t.Errorf("expected interior value at %d to be smoothed away from the noisy zig-zag", i)
		}
	}
}

/*****************************************************************************************************************/

func TestRegulariseGeometryInterpolatesNoDataRing(t *testing.T) {
	rs := &ringset.RingSet{
		DeltaR: 4,
		Rings: []ringset.Ring{
			{Radius: 2, Width: 4, Inc: 50, Pa: 30, Vdisp: 8},
			{Radius: 6, Width: 4, Inc: 60, Pa: 30, Vdisp: 8, NoData: true},
			{Radius: 10, Width: 4, Inc: 70, Pa: 30, Vdisp: 8},
		},
	}

	out := regulariseGeometry(rs, []Param{ParamInc}, []Param{ParamInc}, 1)

	if out.Rings[1].NoData {
		t.Error("regulariseGeometry must clear NoData once the profile has been interpolated")
	}
	if diff := out.Rings[1].Inc - 60; diff > 1 || diff < -1 {
		t.Errorf("interpolated Inc = %f; want close to 60", out.Rings[1].Inc)
	}
	if out.Rings[0].Pa != 30 {
		t.Errorf("Pa was not a requested regularisation target and must be left untouched, got %f", out.Rings[0].Pa)
	}
}

/*****************************************************************************************************************/
