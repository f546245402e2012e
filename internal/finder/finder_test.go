/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package finder

/*****************************************************************************************************************/

import (
	"testing"

	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/header"
)

/*****************************************************************************************************************/

func testHeader(nx, ny, nz int) header.Header {
	return header.Header{
		Nx: nx, Ny: ny, Nz: nz,
		PixelScaleArcsec: 1,
		Z:                header.Axis{Crpix: 1, Crval: 0, Cdelt: 10},
		SpectralAxis:     header.Velocity,
	}
}

/*****************************************************************************************************************/

func TestFindSingleLine(t *testing.T) {
	h := testHeader(16, 16, 16)
	c := cube.New(h.Nx, h.Ny, h.Nz)

	// A 5-voxel line of flux 10 against an otherwise flat background of 0.1
	// (MADFM is zero here, so the thresholds below are absolute):
	for z := 0; z < h.Nz; z++ {
		for y := 0; y < h.Ny; y++ {
			for x := 0; x < h.Nx; x++ {
				c.Set(x, y, z, 0.1)
			}
		}
	}
	for i := 0; i < 5; i++ {
		c.Set(8, 8, 5+i, 10)
	}

	opts := Options{
		Primary:             Threshold{Mode: ThresholdAbsolute, Value: 4},
		Secondary:           Threshold{Mode: ThresholdAbsolute, Value: 2},
		SearchKind:          SearchSpatial,
		MinVoxels:           1,
		MinPixelsPerChannel: 1,
		MinChannels:         1,
		FlagAdjacent:        true,
	}

	detections := Find(h, c, opts)

	if len(detections) != 1 {
		t.Fatalf("len(detections) = %d; want 1", len(detections))
	}
	if detections[0].VoxelCount < 5 {
		t.Errorf("VoxelCount = %d; want >= 5", detections[0].VoxelCount)
	}
}

/*****************************************************************************************************************/

func TestFindRejectsShortDetections(t *testing.T) {
	h := testHeader(16, 16, 16)
	c := cube.New(h.Nx, h.Ny, h.Nz)
	c.Set(2, 2, 2, 10)

	opts := Options{
		Primary:      Threshold{Mode: ThresholdAbsolute, Value: 4},
		Secondary:    Threshold{Mode: ThresholdAbsolute, Value: 2},
		MinVoxels:    1,
		MinChannels:  3,
		FlagAdjacent: true,
	}

	detections := Find(h, c, opts)
	if len(detections) != 0 {
		t.Fatalf("len(detections) = %d; want 0 (single-channel detection must be rejected by MinChannels=3)", len(detections))
	}
}

/*****************************************************************************************************************/

func TestFindSortedByDescendingVoxelCount(t *testing.T) {
	h := testHeader(32, 8, 8)
	c := cube.New(h.Nx, h.Ny, h.Nz)

	for i := 0; i < 3; i++ {
		c.Set(2, 2, 2+i, 10)
	}
	for i := 0; i < 6; i++ {
		c.Set(20, 2, 2+i, 10)
	}

	opts := Options{
		Primary:      Threshold{Mode: ThresholdAbsolute, Value: 4},
		Secondary:    Threshold{Mode: ThresholdAbsolute, Value: 2},
		MinVoxels:    1,
		MinChannels:  1,
		FlagAdjacent: true,
	}

	detections := Find(h, c, opts)
	if len(detections) != 2 {
		t.Fatalf("len(detections) = %d; want 2", len(detections))
	}
	if detections[0].VoxelCount < detections[1].VoxelCount {
		t.Errorf("detections are not sorted by descending voxel count: %d then %d", detections[0].VoxelCount, detections[1].VoxelCount)
	}
}

/*****************************************************************************************************************/

func TestW50HalfMax(t *testing.T) {
	spectrum := map[int]float64{0: 0, 1: 5, 2: 10, 3: 5, 4: 0}
	w := w50(spectrum)
	if w <= 0 || w > 4 {
		t.Errorf("w50 = %f; want a value within the profile's channel span", w)
	}
}

/*****************************************************************************************************************/
