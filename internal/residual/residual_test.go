/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package residual

/*****************************************************************************************************************/

import (
	"testing"

	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/header"
	"github.com/observerly/galtilt/internal/ringset"
)

/*****************************************************************************************************************/

func flatHeader() header.Header {
	return header.Header{
		Nx: 16, Ny: 16, Nz: 8,
		PixelScaleArcsec: 1,
		X:                header.Axis{Crpix: 8, Crval: 0, Cdelt: 1},
		Y:                header.Axis{Crpix: 8, Crval: 0, Cdelt: 1},
		Z:                header.Axis{Crpix: 4, Crval: 0, Cdelt: 5},
		SpectralAxis:     header.Velocity,
		VelocityDef:      header.Radio,
		BeamModel:        header.Beam{BmajArcsec: -1},
	}
}

/*****************************************************************************************************************/

func testRing() ringset.Ring {
	return ringset.Ring{
		Radius: 4, Width: 4, Xpos: 8, Ypos: 8,
		Vsys: 0, Vrot: 50, Vdisp: 8, Inc: 45, Pa: 0, Z0: 1, Density: 1,
	}
}

/*****************************************************************************************************************/

func TestEvaluateIdenticalCubesIsZero(t *testing.T) {
	h := flatHeader()
	a := cube.New(h.Nx, h.Ny, h.Nz)
	for i := range a.Data {
		a.Data[i] = 1
	}
	b := a.Clone()

	cost, err := Evaluate(h, a, b, testRing(), Options{FType: FTypeAbsDiff, Weighting: WeightUniform})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 0 {
		t.Errorf("identical cubes should have zero residual, got %f", cost)
	}
}

/*****************************************************************************************************************/

func TestEvaluateChiSquaredRequiresNoiseSigma(t *testing.T) {
	h := flatHeader()
	a := cube.New(h.Nx, h.Ny, h.Nz)
	b := cube.New(h.Nx, h.Ny, h.Nz)

	_, err := Evaluate(h, a, b, testRing(), Options{FType: FTypeChiSquared})
	if err != ErrMissingNoiseSigma {
		t.Errorf("expected ErrMissingNoiseSigma, got %v", err)
	}
}

/*****************************************************************************************************************/

func TestEvaluateThresholdMaskExcludesLowFlux(t *testing.T) {
	h := flatHeader()
	observed := cube.New(h.Nx, h.Ny, h.Nz)
	model := cube.New(h.Nx, h.Ny, h.Nz)

	for i := range observed.Data {
		observed.Data[i] = 0.1 // below threshold everywhere
		model.Data[i] = 5.0    // large mismatch, should be masked out
	}

	cost, err := Evaluate(h, observed, model, testRing(), Options{
		FType: FTypeAbsDiff, Mask: MaskThreshold, Threshold: 1.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 0 {
		t.Errorf("expected zero residual when all voxels fall below threshold, got %f", cost)
	}
}

/*****************************************************************************************************************/

func TestEvaluateNegativeMaskIncludesNegativeFlux(t *testing.T) {
	h := flatHeader()
	observed := cube.New(h.Nx, h.Ny, h.Nz)
	model := cube.New(h.Nx, h.Ny, h.Nz)

	for i := range observed.Data {
		observed.Data[i] = -5.0
		model.Data[i] = 10.0
	}

	cost, err := Evaluate(h, observed, model, testRing(), Options{
		FType: FTypeAbsDiff, Mask: MaskNegative,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Every voxel is negative, so all are included: |10-(-5)| = 15 each.
	if cost != 15 {
		t.Errorf("expected residual 15 when all voxels are negative, got %f", cost)
	}
}

/*****************************************************************************************************************/

func TestEvaluateSkipsBlankVoxels(t *testing.T) {
	h := flatHeader()
	h.HasBlank = true
	h.Blank = -9999

	observed := cube.New(h.Nx, h.Ny, h.Nz)
	model := cube.New(h.Nx, h.Ny, h.Nz)
	for i := range observed.Data {
		observed.Data[i] = h.Blank
		model.Data[i] = 1000
	}

	cost, err := Evaluate(h, observed, model, testRing(), Options{FType: FTypeAbsDiff})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 0 {
		t.Errorf("expected zero residual when all voxels are blank, got %f", cost)
	}
}

/*****************************************************************************************************************/
