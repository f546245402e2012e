/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package cube defines the contiguous 3D sample array shared read-only by
// every component of a fit run (§3). Voxels are addressed (x,y,z) with x,y
// spanning spatial pixels and z spanning spectral channels, stored in a flat
// slice in x-fastest order, following the teacher's own flat-slice-backed
// image convention (pkg/sky's GenerateFieldImage, internal-fits.go's Data []float32).
package cube

/*****************************************************************************************************************/

import "fmt"

/*****************************************************************************************************************/

// Cube is a contiguous 3D array of floating-point samples plus an optional
// companion mask (true = include the voxel).
type Cube struct {
	Nx, Ny, Nz int
	Data       []float64
	Mask       []bool // nil means "no mask, all voxels included"
}

/*****************************************************************************************************************/

// New allocates a zeroed cube of the given dimensions.
func New(nx, ny, nz int) *Cube {
	return &Cube{
		Nx:   nx,
		Ny:   ny,
		Nz:   nz,
		Data: make([]float64, nx*ny*nz),
	}
}

/*****************************************************************************************************************/

// Index returns the flat index of voxel (x,y,z).
func (c *Cube) Index(x, y, z int) int {
	return (z*c.Ny+y)*c.Nx + x
}

/*****************************************************************************************************************/

// InBounds reports whether (x,y,z) lies within the cube's dimensions.
func (c *Cube) InBounds(x, y, z int) bool {
	return x >= 0 && x < c.Nx && y >= 0 && y < c.Ny && z >= 0 && z < c.Nz
}

/*****************************************************************************************************************/

// At returns the sample at (x,y,z). It does no bounds check of its own: an
// out-of-range coordinate panics only when its flat index falls outside Data
// and otherwise reads a different voxel, matching the
// teacher's own direct-index style for hot inner loops (no bounds-checked
// accessor layer in the PSF convolution or cloud accumulation paths).
func (c *Cube) At(x, y, z int) float64 {
	return c.Data[c.Index(x, y, z)]
}

/*****************************************************************************************************************/

// Set stores value at (x,y,z).
func (c *Cube) Set(x, y, z int, value float64) {
	c.Data[c.Index(x, y, z)] = value
}

/*****************************************************************************************************************/

// Add accumulates value into (x,y,z).
func (c *Cube) Add(x, y, z int, value float64) {
	c.Data[c.Index(x, y, z)] += value
}

/*****************************************************************************************************************/

// Included reports whether voxel (x,y,z) is included under the mask.
func (c *Cube) Included(x, y, z int) bool {
	if c.Mask == nil {
		return true
	}
	return c.Mask[c.Index(x, y, z)]
}

/*****************************************************************************************************************/

// Plane returns a newly allocated copy of spectral plane z as an Nx*Ny slice
// in x-fastest order, for consumption by the beam convolver.
func (c *Cube) Plane(z int) []float64 {
	plane := make([]float64, c.Nx*c.Ny)
	copy(plane, c.Data[c.Index(0, 0, z):c.Index(0, 0, z)+c.Nx*c.Ny])
	return plane
}

/*****************************************************************************************************************/

// SetPlane overwrites spectral plane z with the given Nx*Ny slice.
func (c *Cube) SetPlane(z int, plane []float64) error {
	if len(plane) != c.Nx*c.Ny {
		return fmt.Errorf("cube: plane length %d does not match Nx*Ny=%d", len(plane), c.Nx*c.Ny)
	}
	copy(c.Data[c.Index(0, 0, z):c.Index(0, 0, z)+c.Nx*c.Ny], plane)
	return nil
}

/*****************************************************************************************************************/

// Sum returns the sum of all mask-included voxels; non-finite values are not
// skipped.
func (c *Cube) Sum() float64 {
	total := 0.0
	for z := 0; z < c.Nz; z++ {
		for y := 0; y < c.Ny; y++ {
			for x := 0; x < c.Nx; x++ {
				if !c.Included(x, y, z) {
					continue
				}
				total += c.At(x, y, z)
			}
		}
	}
	return total
}

/*****************************************************************************************************************/

// Clone returns a deep copy of the cube, including its mask if present.
func (c *Cube) Clone() *Cube {
	out := &Cube{Nx: c.Nx, Ny: c.Ny, Nz: c.Nz, Data: make([]float64, len(c.Data))}
	copy(out.Data, c.Data)
	if c.Mask != nil {
		out.Mask = make([]bool, len(c.Mask))
		copy(out.Mask, c.Mask)
	}
	return out
}

/*****************************************************************************************************************/
