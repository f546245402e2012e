/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package paramfile parses and serialises the key/value run parameter file
// of §6: one `KEY value` pair per line, `#` comments, every recognised key
// defaulting to "auto" or a documented constant when absent. It is the
// adapter between the on-disk CLI surface and the typed Options structs of
// internal/galfit, internal/residual, internal/galmod and internal/finder,
// grounded on the teacher's fixed-column-order text codec style
// (internal/ringset's io.go, itself grounded on pkg/catalog) generalised
// from positional columns to named keys.
package paramfile

/*****************************************************************************************************************/

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/observerly/galtilt/internal/galfit"
	"github.com/observerly/galtilt/internal/galmod"
	"github.com/observerly/galtilt/internal/residual"
)

/*****************************************************************************************************************/

// Value is a parameter-file scalar that may be left "auto" (derived by the
// guesser), given a literal number, or (for ring parameters) point at a
// file path supplying a per-ring radial profile.
type Value struct {
	Auto   bool
	Number float64
	IsPath bool
	Path   string
}

/*****************************************************************************************************************/

func autoValue() Value { return Value{Auto: true} }

/*****************************************************************************************************************/

func parseValue(s string) Value {
	if strings.EqualFold(s, "auto") || s == "" {
		return autoValue()
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return Value{Number: n}
	}
	return Value{IsPath: true, Path: s}
}

/*****************************************************************************************************************/

func (v Value) String() string {
	switch {
	case v.Auto:
		return "auto"
	case v.IsPath:
		return v.Path
	default:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
}

/*****************************************************************************************************************/

// Config is the parsed, typed form of a parameter file's recognised keys.
type Config struct {
	NRadii int // 0 means auto
	RadSep Value

	Xpos, Ypos Value
	Vsys       Value
	Vrot       Value
	Vdisp      Value
	Inc        Value
	Pa         Value
	Z0         Value
	Dens       Value

	Free []galfit.Param

	FType residual.FType
	WFunc residual.Weighting
	Norm  galmod.NormScheme
	LType galmod.LType

	Cdens float64
	Nv    int // -1 means auto

	Tol float64

	Mask residual.MaskMode
	Side residual.Side

	TwoStage bool
	Polyn    int // -1 selects a Bezier-smoothed profile, >=0 a polynomial degree

	FlagErrors bool
	Threads    int
	OutFolder  string
}

/*****************************************************************************************************************/

// Default returns the parameter file's documented defaults (§6): NRADII/
// RADSEP/centre/VSYS/ring-parameter columns auto, FTYPE chi-squared, WFUNC
// uniform, NORM none, LTYPE Gaussian, CDENS 10, NV auto, TOL 1e-3, MASK
// none, SIDE both, TWOSTAGE off, POLYN -1 (Bezier).
func Default() *Config {
	return &Config{
		RadSep: autoValue(),
		Xpos:   autoValue(),
		Ypos:   autoValue(),
		Vsys:   autoValue(),
		Vrot:   autoValue(),
		Vdisp:  autoValue(),
		Inc:    autoValue(),
		Pa:     autoValue(),
		Z0:     autoValue(),
		Dens:   autoValue(),
		FType:  residual.FTypeChiSquared,
		WFunc:  residual.WeightUniform,
		Norm:   galmod.NormNone,
		LType:  galmod.LTypeGaussian,
		Cdens:  10,
		Nv:     -1,
		Tol:    1e-3,
		Mask:    residual.MaskNone,
		Side:    residual.SideBoth,
		Polyn:   -1,
		Threads: 1,
	}
}

/*****************************************************************************************************************/

// columnKeys is the fixed key order Write emits in, matching the order §6
// lists the recognised keys in.
var columnKeys = []string{
	"NRADII", "RADSEP", "XPOS", "YPOS", "VSYS", "VROT", "VDISP", "INC", "PA", "Z0", "DENS",
	"FREE", "FTYPE", "WFUNC", "NORM", "LTYPE", "CDENS", "NV", "TOL", "MASK", "SIDE",
	"TWOSTAGE", "POLYN", "FLAGERRORS", "THREADS", "OUTFOLDER",
}

/*****************************************************************************************************************/

// Read parses the key/value parameter-file text format of §6.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, " ", 2)
		key := strings.ToUpper(strings.TrimSpace(fields[0]))
		value := ""
		if len(fields) == 2 {
			value = strings.TrimSpace(fields[1])
		}

		if err := cfg.set(key, value); err != nil {
			return nil, fmt.Errorf("paramfile: line %q: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("paramfile: scanning: %w", err)
	}

	return cfg, nil
}

/*****************************************************************************************************************/

func (cfg *Config) set(key, value string) error {
	switch key {
	case "NRADII":
		if strings.EqualFold(value, "auto") || value == "" {
			cfg.NRadii = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.NRadii = n
	case "RADSEP":
		cfg.RadSep = parseValue(value)
	case "XPOS":
		cfg.Xpos = parseValue(value)
	case "YPOS":
		cfg.Ypos = parseValue(value)
	case "VSYS":
		cfg.Vsys = parseValue(value)
	case "VROT":
		cfg.Vrot = parseValue(value)
	case "VDISP":
		cfg.Vdisp = parseValue(value)
	case "INC":
		cfg.Inc = parseValue(value)
	case "PA":
		cfg.Pa = parseValue(value)
	case "Z0":
		cfg.Z0 = parseValue(value)
	case "DENS":
		cfg.Dens = parseValue(value)
	case "FREE":
		free, err := parseFree(value)
		if err != nil {
			return err
		}
		cfg.Free = free
	case "FTYPE":
		ftype, err := parseFType(value)
		if err != nil {
			return err
		}
		cfg.FType = ftype
	case "WFUNC":
		wfunc, err := parseWFunc(value)
		if err != nil {
			return err
		}
		cfg.WFunc = wfunc
	case "NORM":
		norm, err := parseNorm(value)
		if err != nil {
			return err
		}
		cfg.Norm = norm
	case "LTYPE":
		ltype, err := parseLType(value)
		if err != nil {
			return err
		}
		cfg.LType = ltype
	case "CDENS":
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		cfg.Cdens = n
	case "NV":
		if strings.EqualFold(value, "auto") || value == "" {
			cfg.Nv = -1
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Nv = n
	case "TOL":
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		cfg.Tol = n
	case "MASK":
		mask, err := parseMask(value)
		if err != nil {
			return err
		}
		cfg.Mask = mask
	case "SIDE":
		side, err := parseSide(value)
		if err != nil {
			return err
		}
		cfg.Side = side
	case "TWOSTAGE":
		cfg.TwoStage = parseBool(value)
	case "POLYN":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Polyn = n
	case "FLAGERRORS":
		cfg.FlagErrors = parseBool(value)
	case "THREADS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Threads = n
	case "OUTFOLDER":
		cfg.OutFolder = value
	default:
		return fmt.Errorf("unrecognised key %q", key)
	}
	return nil
}

/*****************************************************************************************************************/

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

/*****************************************************************************************************************/

var freeNames = map[string]galfit.Param{
	"XPOS":  galfit.ParamXpos,
	"YPOS":  galfit.ParamYpos,
	"VSYS":  galfit.ParamVsys,
	"VROT":  galfit.ParamVrot,
	"VDISP": galfit.ParamVdisp,
	"VRAD":  galfit.ParamVrad,
	"INC":   galfit.ParamInc,
	"PA":    galfit.ParamPa,
	"Z0":    galfit.ParamZ0,
}

/*****************************************************************************************************************/

func parseFree(value string) ([]galfit.Param, error) {
	var out []galfit.Param
	for _, name := range strings.Fields(value) {
		p, ok := freeNames[strings.ToUpper(name)]
		if !ok {
			return nil, fmt.Errorf("FREE: unrecognised parameter name %q", name)
		}
		out = append(out, p)
	}
	return out, nil
}

/*****************************************************************************************************************/

func freeToString(free []galfit.Param) string {
	names := make([]string, 0, len(free))
	for _, p := range free {
		for name, v := range freeNames {
			if v == p {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

/*****************************************************************************************************************/

func parseFType(value string) (residual.FType, error) {
	switch value {
	case "1":
		return residual.FTypeChiSquared, nil
	case "2":
		return residual.FTypeAbsDiff, nil
	case "3":
		return residual.FTypeAbsDiffNormalised, nil
	default:
		return 0, fmt.Errorf("FTYPE: expected 1, 2 or 3, got %q", value)
	}
}

/*****************************************************************************************************************/

func ftypeToString(f residual.FType) string {
	switch f {
	case residual.FTypeAbsDiff:
		return "2"
	case residual.FTypeAbsDiffNormalised:
		return "3"
	default:
		return "1"
	}
}

/*****************************************************************************************************************/

func parseWFunc(value string) (residual.Weighting, error) {
	switch value {
	case "0":
		return residual.WeightUniform, nil
	case "1":
		return residual.WeightAbsCosTheta, nil
	case "2":
		return residual.WeightCosSquaredTheta, nil
	default:
		return 0, fmt.Errorf("WFUNC: expected 0, 1 or 2, got %q", value)
	}
}

/*****************************************************************************************************************/

func wfuncToString(w residual.Weighting) string {
	switch w {
	case residual.WeightAbsCosTheta:
		return "1"
	case residual.WeightCosSquaredTheta:
		return "2"
	default:
		return "0"
	}
}

/*****************************************************************************************************************/

func parseNorm(value string) (galmod.NormScheme, error) {
	switch strings.ToLower(value) {
	case "local":
		return galmod.NormLocal, nil
	case "azim":
		return galmod.NormAzimuthal, nil
	case "none":
		return galmod.NormNone, nil
	default:
		return 0, fmt.Errorf("NORM: expected local, azim or none, got %q", value)
	}
}

/*****************************************************************************************************************/

func normToString(n galmod.NormScheme) string {
	switch n {
	case galmod.NormLocal:
		return "local"
	case galmod.NormAzimuthal:
		return "azim"
	default:
		return "none"
	}
}

/*****************************************************************************************************************/

func parseLType(value string) (galmod.LType, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("LTYPE: %w", err)
	}
	if n < 1 || n > 5 {
		return 0, fmt.Errorf("LTYPE: expected 1..5, got %d", n)
	}
	return galmod.LType(n - 1), nil
}

/*****************************************************************************************************************/

func ltypeToString(l galmod.LType) string {
	return strconv.Itoa(int(l) + 1)
}

/*****************************************************************************************************************/

func parseMask(value string) (residual.MaskMode, error) {
	switch strings.ToLower(value) {
	case "smooth":
		return residual.MaskSmoothing, nil
	case "search":
		return residual.MaskSearching, nil
	case "both":
		return residual.MaskSmoothAndSearch, nil
	case "threshold":
		return residual.MaskThreshold, nil
	case "negative":
		return residual.MaskNegative, nil
	case "none":
		return residual.MaskNone, nil
	default:
		return 0, fmt.Errorf("MASK: unrecognised mode %q", value)
	}
}

/*****************************************************************************************************************/

func maskToString(m residual.MaskMode) string {
	switch m {
	case residual.MaskSmoothing:
		return "smooth"
	case residual.MaskSearching:
		return "search"
	case residual.MaskSmoothAndSearch:
		return "both"
	case residual.MaskThreshold:
		return "threshold"
	case residual.MaskNegative:
		return "negative"
	default:
		return "none"
	}
}

/*****************************************************************************************************************/

func parseSide(value string) (residual.Side, error) {
	switch strings.ToUpper(value) {
	case "A":
		return residual.SideApproaching, nil
	case "R":
		return residual.SideReceding, nil
	case "B":
		return residual.SideBoth, nil
	default:
		return 0, fmt.Errorf("SIDE: expected A, R or B, got %q", value)
	}
}

/*****************************************************************************************************************/

func sideToString(s residual.Side) string {
	switch s {
	case residual.SideApproaching:
		return "A"
	case residual.SideReceding:
		return "R"
	default:
		return "B"
	}
}

/*****************************************************************************************************************/

// Write serialises cfg back to the key/value text format, one recognised
// key per line in the order §6 lists them, preserving every field through a
// read/write/read round trip.
func Write(w io.Writer, cfg *Config) error {
	bw := bufio.NewWriter(w)

	nradii := "auto"
	if cfg.NRadii > 0 {
		nradii = strconv.Itoa(cfg.NRadii)
	}
	nv := "auto"
	if cfg.Nv >= 0 {
		nv = strconv.Itoa(cfg.Nv)
	}

	values := map[string]string{
		"NRADII":     nradii,
		"RADSEP":     cfg.RadSep.String(),
		"XPOS":       cfg.Xpos.String(),
		"YPOS":       cfg.Ypos.String(),
		"VSYS":       cfg.Vsys.String(),
		"VROT":       cfg.Vrot.String(),
		"VDISP":      cfg.Vdisp.String(),
		"INC":        cfg.Inc.String(),
		"PA":         cfg.Pa.String(),
		"Z0":         cfg.Z0.String(),
		"DENS":       cfg.Dens.String(),
		"FREE":       freeToString(cfg.Free),
		"FTYPE":      ftypeToString(cfg.FType),
		"WFUNC":      wfuncToString(cfg.WFunc),
		"NORM":       normToString(cfg.Norm),
		"LTYPE":      ltypeToString(cfg.LType),
		"CDENS":      strconv.FormatFloat(cfg.Cdens, 'f', -1, 64),
		"NV":         nv,
		"TOL":        strconv.FormatFloat(cfg.Tol, 'f', -1, 64),
		"MASK":       maskToString(cfg.Mask),
		"SIDE":       sideToString(cfg.Side),
		"TWOSTAGE":   strconv.FormatBool(cfg.TwoStage),
		"POLYN":      strconv.Itoa(cfg.Polyn),
		"FLAGERRORS": strconv.FormatBool(cfg.FlagErrors),
		"THREADS":    strconv.Itoa(cfg.Threads),
		"OUTFOLDER":  cfg.OutFolder,
	}

	for _, key := range columnKeys {
		if _, err := fmt.Fprintf(bw, "%s %s\n", key, values[key]); err != nil {
			return fmt.Errorf("paramfile: writing key %q: %w", key, err)
		}
	}

	return bw.Flush()
}

/*****************************************************************************************************************/
