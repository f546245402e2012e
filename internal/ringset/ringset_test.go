/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package ringset

/*****************************************************************************************************************/

import (
	"bytes"
	"math"
	"testing"
)

/*****************************************************************************************************************/

func TestNewRingSetMonotonic(t *testing.T) {
	rs := New(5, 30, Ring{Vdisp: 8, Inc: 60, Pa: 90, Vsys: 500})

	if err := rs.Validate(); err != nil {
		t.Fatalf("expected a valid ring set, got: %v", err)
	}

	for i := 1; i < len(rs.Rings); i++ {
		if rs.Rings[i].Radius <= rs.Rings[i-1].Radius {
			t.Errorf("ring %d radius %f is not strictly greater than ring %d radius %f", i, rs.Rings[i].Radius, i-1, rs.Rings[i-1].Radius)
		}
	}
}

/*****************************************************************************************************************/

func TestRingSetReadWriteRoundTrip(t *testing.T) {
	original := New(3, 30, Ring{Vrot: 100, Vdisp: 8, Inc: 60, Pa: 90, Vsys: 500, Xpos: 32, Ypos: 32, Density: 1})

	var buf bytes.Buffer
	if err := Write(&buf, original); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	recovered, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(recovered.Rings) != len(original.Rings) {
		t.Fatalf("expected %d rings, got %d", len(original.Rings), len(recovered.Rings))
	}

	for i := range original.Rings {
		a, b := original.Rings[i], recovered.Rings[i]
		if math.Abs(a.Radius-b.Radius) > 1e-6 || math.Abs(a.Vrot-b.Vrot) > 1e-6 || math.Abs(a.Density-b.Density) > 1e-6 {
			t.Errorf("ring %d did not round trip: got %+v, want %+v", i, b, a)
		}
	}
}

/*****************************************************************************************************************/

func TestWithRingDoesNotMutateOriginal(t *testing.T) {
	rs := New(3, 30, Ring{Vdisp: 8, Inc: 60})
	original := rs.Rings[1].Vrot

	modified := rs.WithRing(1, Ring{Vrot: 999, Vdisp: 8, Inc: 60, Radius: rs.Rings[1].Radius, Width: rs.Rings[1].Width})

	if rs.Rings[1].Vrot != original {
		t.Errorf("WithRing mutated the original ring set")
	}
	if modified.Rings[1].Vrot != 999 {
		t.Errorf("WithRing did not apply the replacement ring")
	}
}

/*****************************************************************************************************************/

func TestRingValidateInvariants(t *testing.T) {
	bad := Ring{Width: 0, Inc: 60, Vdisp: 8}
	if err := bad.Validate(); err == nil {
		t.Errorf("expected an error for zero width")
	}

	bad = Ring{Width: 10, Inc: 120, Vdisp: 8}
	if err := bad.Validate(); err == nil {
		t.Errorf("expected an error for inclination out of range")
	}
}

/*****************************************************************************************************************/
