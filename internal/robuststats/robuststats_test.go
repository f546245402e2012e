/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package robuststats

/*****************************************************************************************************************/

import (
	"math"
	"math/rand"
	"testing"
)

/*****************************************************************************************************************/

func TestComputeBasic(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	s := Compute(values, nil)

	if s.Mean != 3 {
		t.Errorf("Mean = %f; want 3", s.Mean)
	}
	if s.Median != 3 {
		t.Errorf("Median = %f; want 3", s.Median)
	}
}

/*****************************************************************************************************************/

func TestComputeWithMask(t *testing.T) {
	values := []float64{1, 2, 100, 4, 5}
	mask := []bool{true, true, false, true, true}

	s := Compute(values, mask)

	if s.Mean != 3 {
		t.Errorf("Mean (masked) = %f; want 3", s.Mean)
	}
}

/*****************************************************************************************************************/

func TestMedianDoesNotMutateInput(t *testing.T) {
	values := []float64{5, 3, 1, 4, 2}
	original := append([]float64(nil), values...)

	_ = Median(values)

	for i := range values {
		if values[i] != original[i] {
			t.Errorf("Median mutated the input slice at index %d", i)
		}
	}
}

/*****************************************************************************************************************/

func TestMADFMOfGaussianApproximatesSigma(t *testing.T) {
	src := rand.New(rand.NewSource(42))

	values := make([]float64, 20000)
	for i := range values {
		values[i] = NormalDistributedRandomNumber(src, 0, 2)
	}

	median := Median(values)
	madfm := MADFM(values, median)
	sigma := MADFMToSigma(madfm)

	if math.Abs(sigma-2) > 0.1 {
		t.Errorf("MADFM-derived sigma = %f; want close to 2", sigma)
	}
}

/*****************************************************************************************************************/

func TestNormalDistributedRandomNumberIsReproducible(t *testing.T) {
	src1 := rand.New(rand.NewSource(7))
	src2 := rand.New(rand.NewSource(7))

	a := NormalDistributedRandomNumber(src1, 10, 3)
	b := NormalDistributedRandomNumber(src2, 10, 3)

	if a != b {
		t.Errorf("expected identical draws from identically seeded sources, got %f and %f", a, b)
	}
}

/*****************************************************************************************************************/
