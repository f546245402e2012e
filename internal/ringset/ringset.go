/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package ringset defines the tilted-ring model data model (§3): a single
// Ring and an ordered RingSet sharing a common width, constructed by the
// guesser, mutated by the fitter, and consumed by the synthesiser.
package ringset

/*****************************************************************************************************************/

import (
	"fmt"
)

/*****************************************************************************************************************/

// Ring is one annulus of the tilted-ring model.
type Ring struct {
	Radius  float64 // r, arcsec
	Width   float64 // delta-r, arcsec
	Xpos    float64 // pixels
	Ypos    float64 // pixels
	Vsys    float64 // km/s
	Vrot    float64 // km/s
	Vdisp   float64 // km/s
	Vrad    float64 // km/s
	Inc     float64 // degrees
	Pa      float64 // degrees
	Z0      float64 // arcsec
	Density float64 // atoms/cm^2

	// NotConverged and NoData record the fitter's failure semantics (§4.5,
	// §7); they are never read by the synthesiser.
	NotConverged bool
	NoData       bool
}

/*****************************************************************************************************************/

// Validate checks the per-ring invariants named in §3.
func (r Ring) Validate() error {
	if r.Width <= 0 {
		return fmt.Errorf("ring: width must be > 0, got %f", r.Width)
	}
	if r.Inc < 0 || r.Inc > 90 {
		return fmt.Errorf("ring: inclination must be in [0,90], got %f", r.Inc)
	}
	if r.Pa < 0 || r.Pa >= 360 {
		return fmt.Errorf("ring: position angle must be in [0,360), got %f", r.Pa)
	}
	if r.Vdisp <= 0 {
		return fmt.Errorf("ring: velocity dispersion must be > 0, got %f", r.Vdisp)
	}
	if r.Z0 < 0 {
		return fmt.Errorf("ring: scale height must be >= 0, got %f", r.Z0)
	}
	return nil
}

/*****************************************************************************************************************/

// AreaArcsec2 returns the annulus area in square arcseconds, used by the
// synthesiser to derive the number of cloudlets per ring (§4.3).
func (r Ring) AreaArcsec2() float64 {
	inner := r.Radius - r.Width/2
	outer := r.Radius + r.Width/2
	if inner < 0 {
		inner = 0
	}
	return pi * (outer*outer - inner*inner)
}

/*****************************************************************************************************************/

const pi = 3.14159265358979323846

/*****************************************************************************************************************/

// RingSet is an ordered sequence of rings, strictly radially increasing,
// sharing a common ring width.
type RingSet struct {
	DeltaR float64
	Rings  []Ring
}

/*****************************************************************************************************************/

// New builds a RingSet of n rings starting at DeltaR/2 and spaced by DeltaR,
// all sharing the supplied template's non-radial parameters.
func New(n int, deltaR float64, template Ring) *RingSet {
	rs := &RingSet{DeltaR: deltaR, Rings: make([]Ring, n)}
	for i := 0; i < n; i++ {
		ring := template
		ring.Radius = deltaR/2 + float64(i)*deltaR
		ring.Width = deltaR
		rs.Rings[i] = ring
	}
	return rs
}

/*****************************************************************************************************************/

// Validate checks that the set is non-empty, strictly radially increasing,
// and that every ring individually validates.
func (rs *RingSet) Validate() error {
	if len(rs.Rings) == 0 {
		return fmt.Errorf("ringset: must contain at least one ring")
	}
	prev := -1.0
	for i, r := range rs.Rings {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("ringset: ring %d: %w", i, err)
		}
		if r.Radius <= prev {
			return fmt.Errorf("ringset: ring %d radius %f is not strictly greater than previous radius %f", i, r.Radius, prev)
		}
		prev = r.Radius
	}
	return nil
}

/*****************************************************************************************************************/

// Clone returns a deep copy of the ring set.
func (rs *RingSet) Clone() *RingSet {
	out := &RingSet{DeltaR: rs.DeltaR, Rings: make([]Ring, len(rs.Rings))}
	copy(out.Rings, rs.Rings)
	return out
}

/*****************************************************************************************************************/

// WithRing returns a clone of rs with ring index i replaced by r, leaving rs
// itself unchanged.
func (rs *RingSet) WithRing(i int, r Ring) *RingSet {
	out := rs.Clone()
	out.Rings[i] = r
	return out
}

/*****************************************************************************************************************/
