/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package guesser

/*****************************************************************************************************************/

import (
	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/finder"
	"github.com/observerly/galtilt/internal/geometry"
	"github.com/observerly/galtilt/internal/header"
)

/*****************************************************************************************************************/

// Moments holds the 0th (intensity) and 1st (velocity) moment maps of a
// Detection, a 2D reduction of the cube along the spectral axis per the
// GLOSSARY's "Moment map" definition.
type Moments struct {
	Nx, Ny    int
	Intensity []float64
	Velocity  []float64
	HasData   []bool
}

/*****************************************************************************************************************/

func (m *Moments) index(x, y int) int { return y*m.Nx + x }

/*****************************************************************************************************************/

// At returns the intensity and velocity at pixel (x,y) and whether that
// pixel has any detected flux at all.
func (m *Moments) At(x, y int) (intensity, velocity float64, ok bool) {
	if x < 0 || x >= m.Nx || y < 0 || y >= m.Ny {
		return 0, 0, false
	}
	i := m.index(x, y)
	return m.Intensity[i], m.Velocity[i], m.HasData[i]
}

/*****************************************************************************************************************/

// BuildMoments reduces a Detection's voxels into intensity (flux sum) and
// velocity (flux-weighted first moment) maps over the cube's spatial grid,
// per §4.7.
func BuildMoments(h header.Header, c *cube.Cube, d *finder.Detection) *Moments {
	m := &Moments{
		Nx:        c.Nx,
		Ny:        c.Ny,
		Intensity: make([]float64, c.Nx*c.Ny),
		Velocity:  make([]float64, c.Nx*c.Ny),
		HasData:   make([]bool, c.Nx*c.Ny),
	}

	weightedVelocitySum := make([]float64, c.Nx*c.Ny)

	for z, obj := range d.Channels {
		v := geometry.VelocityOf(h, float64(z))
		for _, s := range obj.Scans {
			for x := s.XStart; x <= s.XEnd; x++ {
				i := m.index(x, s.Y)
				flux := c.At(x, s.Y, z)
				m.Intensity[i] += flux
				weightedVelocitySum[i] += flux * v
				m.HasData[i] = true
			}
		}
	}

	for i, intensity := range m.Intensity {
		if m.HasData[i] && intensity != 0 {
			m.Velocity[i] = weightedVelocitySum[i] / intensity
		}
	}

	return m
}

/*****************************************************************************************************************/
