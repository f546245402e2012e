/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/observerly/iris/pkg/fits"

	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/errs"
	"github.com/observerly/galtilt/internal/header"
)

/*****************************************************************************************************************/

// readFITSCube opens the FITS primary HDU at path and adapts it into the
// in-memory header.Header/cube.Cube pair the core consumes, per §6's
// "Input cube format" and the module map's note that the FITS adapter
// lives in cmd/ rather than any internal package. Follows the teacher's
// own fits.NewFITSImage/fit.Read/fit.Header.Floats usage pattern
// (examples/solve/main.go, internal/solver/solver.go), generalised from a
// 2D astrophotography frame to a 3-axis spectral cube.
func readFITSCube(path string) (header.Header, *cube.Cube, error) {
	file, err := os.Open(path)
	if err != nil {
		return header.Header{}, nil, errs.New(errs.DataError, "cmd.readFITSCube", err)
	}
	defer file.Close()

	fit := fits.NewFITSImage(3, 0, 0, 1)

	if err := fit.Read(file); err != nil {
		return header.Header{}, nil, errs.New(errs.DataError, "cmd.readFITSCube", err)
	}

	nx := int(fit.Header.Naxis1)
	ny := int(fit.Header.Naxis2)
	nz := int(fit.Header.Naxis3)
	if nz <= 0 {
		nz = 1
	}

	h := header.Header{
		Nx: nx,
		Ny: ny,
		Nz: nz,
		X:  axisFrom(fit.Header, 1),
		Y:  axisFrom(fit.Header, 2),
		Z:  axisFrom(fit.Header, 3),
	}

	h.PixelScaleArcsec = math.Abs(h.X.Cdelt) * 3600

	h.SpectralAxis, h.RestFrequency, h.RestWavelength = spectralKindOf(fit.Header)
	h.VelocityDef = velocityDefOf(fit.Header)

	h.BeamModel = header.Beam{
		BmajArcsec: floatHeader(fit.Header, "BMAJ", -1) * 3600,
		BminArcsec: floatHeader(fit.Header, "BMIN", -1) * 3600,
		PaDeg:      floatHeader(fit.Header, "BPA", 0),
	}
	if !hasFloatHeader(fit.Header, "BMAJ") {
		h.BeamModel.BmajArcsec = -1
	}

	h.FluxUnit = stringHeader(fit.Header, "BUNIT", "")

	if blank, ok := fit.Header.Floats["BLANK"]; ok {
		h.HasBlank = true
		h.Blank = float64(blank.Value)
	}

	if err := h.Validate(); err != nil {
		return header.Header{}, nil, errs.New(errs.DataError, "cmd.readFITSCube", err)
	}

	c := cube.New(nx, ny, nz)
	for i, v := range fit.Data {
		if i >= len(c.Data) {
			break
		}
		c.Data[i] = float64(v)
	}
	if h.HasBlank {
		c.Mask = make([]bool, len(c.Data))
		for i, v := range c.Data {
			c.Mask[i] = !h.IsBlank(v)
		}
	}

	return h, c, nil
}

/*****************************************************************************************************************/

func axisFrom(fh fits.FITSHeader, n int) header.Axis {
	return header.Axis{
		Crpix: floatHeader(fh, fmt.Sprintf("CRPIX%d", n), 1),
		Crval: floatHeader(fh, fmt.Sprintf("CRVAL%d", n), 0),
		Cdelt: floatHeader(fh, fmt.Sprintf("CDELT%d", n), 1),
		Ctype: stringHeader(fh, fmt.Sprintf("CTYPE%d", n), ""),
		Cunit: stringHeader(fh, fmt.Sprintf("CUNIT%d", n), ""),
	}
}

/*****************************************************************************************************************/

func floatHeader(fh fits.FITSHeader, key string, fallback float64) float64 {
	if v, ok := fh.Floats[key]; ok {
		return float64(v.Value)
	}
	return fallback
}

/*****************************************************************************************************************/

func hasFloatHeader(fh fits.FITSHeader, key string) bool {
	_, ok := fh.Floats[key]
	return ok
}

/*****************************************************************************************************************/

func stringHeader(fh fits.FITSHeader, key, fallback string) string {
	if v, ok := fh.Strings[key]; ok {
		return v.Value
	}
	return fallback
}

/*****************************************************************************************************************/

func spectralKindOf(fh fits.FITSHeader) (header.SpectralKind, float64, float64) {
	ctype := stringHeader(fh, "CTYPE3", "")
	switch {
	case hasFloatHeader(fh, "RESTFRQ"):
		return header.Frequency, floatHeader(fh, "RESTFRQ", 0), 0
	case hasFloatHeader(fh, "RESTWAV"):
		return header.Wavelength, 0, floatHeader(fh, "RESTWAV", 0)
	case ctype == "VELO" || ctype == "VRAD" || ctype == "VOPT":
		return header.Velocity, 0, 0
	default:
		return header.Frequency, 1.420405751e9, 0 // HI 21cm line, the common default for this instrument class
	}
}

/*****************************************************************************************************************/

func velocityDefOf(fh fits.FITSHeader) header.VelocityDefinition {
	switch stringHeader(fh, "CTYPE3", "") {
	case "VOPT":
		return header.Optical
	case "VRAD":
		return header.Radio
	default:
		return header.Radio
	}
}

/*****************************************************************************************************************/

// writeFITSCube writes c as a minimal single-HDU FITS file: a fixed
// 2880-byte-block card-image header followed by big-endian float64 data,
// padded to a 2880-byte boundary. No FITS-writing library appears
// anywhere in the retrieved example pack (the teacher's own iris
// dependency is only ever exercised for reading), so this hand-rolls the
// FITS standard's fixed-record layout rather than reaching for a library
// that isn't demonstrated anywhere to import.
func writeFITSCube(path string, h header.Header, c *cube.Cube) error {
	file, err := os.Create(path)
	if err != nil {
		return errs.New(errs.DataError, "cmd.writeFITSCube", err)
	}
	defer file.Close()

	cards := []string{
		"SIMPLE  =                    T",
		"BITPIX  =                  -64",
		"NAXIS   =                    3",
		fmt.Sprintf("NAXIS1  =           %10d", c.Nx),
		fmt.Sprintf("NAXIS2  =           %10d", c.Ny),
		fmt.Sprintf("NAXIS3  =           %10d", c.Nz),
		fmt.Sprintf("CRPIX1  =           %10.4f", h.X.Crpix),
		fmt.Sprintf("CRVAL1  =           %10.4f", h.X.Crval),
		fmt.Sprintf("CDELT1  =           %10.6f", h.X.Cdelt),
		fmt.Sprintf("CRPIX2  =           %10.4f", h.Y.Crpix),
		fmt.Sprintf("CRVAL2  =           %10.4f", h.Y.Crval),
		fmt.Sprintf("CDELT2  =           %10.6f", h.Y.Cdelt),
		fmt.Sprintf("CRPIX3  =           %10.4f", h.Z.Crpix),
		fmt.Sprintf("CRVAL3  =           %10.4f", h.Z.Crval),
		fmt.Sprintf("CDELT3  =           %10.6f", h.Z.Cdelt),
		fmt.Sprintf("BMAJ    =           %10.6f", h.BeamModel.BmajArcsec/3600),
		fmt.Sprintf("BMIN    =           %10.6f", h.BeamModel.BminArcsec/3600),
		fmt.Sprintf("BPA     =           %10.4f", h.BeamModel.PaDeg),
		fmt.Sprintf("BUNIT   = '%-8s'", h.FluxUnit),
		"END",
	}

	if err := writeCardBlock(file, cards); err != nil {
		return errs.New(errs.DataError, "cmd.writeFITSCube", err)
	}

	if err := binary.Write(file, binary.BigEndian, toFloat64Padded(c.Data)); err != nil {
		return errs.New(errs.DataError, "cmd.writeFITSCube", err)
	}

	return nil
}

/*****************************************************************************************************************/

const fitsBlockSize = 2880

/*****************************************************************************************************************/

func writeCardBlock(w *os.File, cards []string) error {
	buf := make([]byte, 0, fitsBlockSize)
	for _, card := range cards {
		line := card
		if len(line) > 80 {
			line = line[:80]
		}
		for len(line) < 80 {
			line += " "
		}
		buf = append(buf, []byte(line)...)
	}
	for len(buf)%fitsBlockSize != 0 {
		buf = append(buf, ' ')
	}
	_, err := w.Write(buf)
	return err
}

/*****************************************************************************************************************/

// toFloat64Padded pads data with trailing zeroes so its byte length (8
// bytes per float64) lands on a fitsBlockSize boundary.
func toFloat64Padded(data []float64) []float64 {
	const valuesPerBlock = fitsBlockSize / 8
	remainder := len(data) % valuesPerBlock
	if remainder == 0 {
		return data
	}
	padded := make([]float64, len(data)+(valuesPerBlock-remainder))
	copy(padded, data)
	return padded
}

/*****************************************************************************************************************/
