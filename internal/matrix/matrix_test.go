/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package matrix

/*****************************************************************************************************************/

import "testing"

/*****************************************************************************************************************/

func TestNewAndAtSet(t *testing.T) {
	m, err := New(2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Set(1, 2, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := m.At(1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5 {
		t.Errorf("At(1,2) = %f; want 5", got)
	}
}

/*****************************************************************************************************************/

func TestNewInvalidDimensions(t *testing.T) {
	if _, err := New(0, 3); err == nil {
		t.Errorf("expected an error for zero rows")
	}
}

/*****************************************************************************************************************/

func TestSumAndScale(t *testing.T) {
	m, _ := NewFromSlice([]float64{1, 2, 3, 4}, 2, 2)

	if got := m.Sum(); got != 10 {
		t.Errorf("Sum() = %f; want 10", got)
	}

	m.Scale(0.5)

	if got := m.Sum(); got != 5 {
		t.Errorf("Sum() after Scale(0.5) = %f; want 5", got)
	}
}

/*****************************************************************************************************************/

func TestAtOutOfBounds(t *testing.T) {
	m, _ := New(2, 2)
	if _, err := m.At(5, 0); err == nil {
		t.Errorf("expected an out-of-bounds error")
	}
}

/*****************************************************************************************************************/
