/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package ringset

/*****************************************************************************************************************/

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

/*****************************************************************************************************************/

// columnOrder is the whitespace-delimited text column order of §6: index,
// radius, vrot, vdisp, inc, pa, z0, xpos, ypos, vsys, vrad, density.
var columnOrder = []string{
	"index", "radius", "vrot", "vdisp", "inc", "pa", "z0", "xpos", "ypos", "vsys", "vrad", "density",
}

/*****************************************************************************************************************/

// Read parses the whitespace-delimited ring text format of §6: one row per
// ring, comment lines beginning with '#'.
func Read(r io.Reader) (*RingSet, error) {
	scanner := bufio.NewScanner(r)

	rs := &RingSet{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != len(columnOrder) {
			return nil, fmt.Errorf("ringset: expected %d columns, got %d in line %q", len(columnOrder), len(fields), line)
		}

		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("ringset: parsing column %q: %w", columnOrder[i], err)
			}
			values[i] = v
		}

		ring := Ring{
			Radius:  values[1],
			Vrot:    values[2],
			Vdisp:   values[3],
			Inc:     values[4],
			Pa:      values[5],
			Z0:      values[6],
			Xpos:    values[7],
			Ypos:    values[8],
			Vsys:    values[9],
			Vrad:    values[10],
			Density: values[11],
		}

		rs.Rings = append(rs.Rings, ring)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ringset: scanning: %w", err)
	}

	switch {
	case len(rs.Rings) >= 2:
		rs.DeltaR = rs.Rings[1].Radius - rs.Rings[0].Radius
	case len(rs.Rings) == 1:
		rs.DeltaR = rs.Rings[0].Radius
	}

	// The text format carries no explicit width column; every ring's width
	// is the uniform ring spacing, per §6.
	for i := range rs.Rings {
		rs.Rings[i].Width = rs.DeltaR
	}

	return rs, nil
}

/*****************************************************************************************************************/

// Write serialises the ring set to the whitespace-delimited text format of
// §6, one row per ring, preceded by a header comment naming the columns.
func Write(w io.Writer, rs *RingSet) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "# %s\n", strings.Join(columnOrder, " ")); err != nil {
		return err
	}

	for i, r := range rs.Rings {
		_, err := fmt.Fprintf(
			bw,
			"%d %f %f %f %f %f %f %f %f %f %f %f\n",
			i, r.Radius, r.Vrot, r.Vdisp, r.Inc, r.Pa, r.Z0, r.Xpos, r.Ypos, r.Vsys, r.Vrad, r.Density,
		)
		if err != nil {
			return fmt.Errorf("ringset: writing ring %d: %w", i, err)
		}
	}

	return bw.Flush()
}

/*****************************************************************************************************************/

// Errors holds the per-ring, per-column standard errors produced by the
// fitter when error reporting is requested (§4.5), written to a parallel
// file with the same schema and an "err" suffix per column (§6).
type Errors struct {
	Rows []map[string]float64
}

/*****************************************************************************************************************/

// WriteErrors serialises per-ring parameter errors to the parallel error
// file format of §6.
func WriteErrors(w io.Writer, errs *Errors) error {
	bw := bufio.NewWriter(w)

	cols := columnOrder[1:] // errors are never reported for the ring index column

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c + "err"
	}
	if _, err := fmt.Fprintf(bw, "# index %s\n", strings.Join(header, " ")); err != nil {
		return err
	}

	for i, row := range errs.Rows {
		fmt.Fprintf(bw, "%d", i)
		for _, c := range cols {
			fmt.Fprintf(bw, " %f", row[c])
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

/*****************************************************************************************************************/
