/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package paramfile

/*****************************************************************************************************************/

import (
	"bytes"
	"strings"
	"testing"

	"github.com/observerly/galtilt/internal/galfit"
	"github.com/observerly/galtilt/internal/galmod"
	"github.com/observerly/galtilt/internal/residual"
)

/*****************************************************************************************************************/

func TestReadDefaults(t *testing.T) {
	cfg, err := Read(strings.NewReader("# empty parameter file\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Xpos.Auto || !cfg.Vrot.Auto {
		t.Error("unset ring parameters must default to auto")
	}
	if cfg.FType != residual.FTypeChiSquared {
		t.Errorf("FType default = %v; want FTypeChiSquared", cfg.FType)
	}
	if cfg.Polyn != -1 {
		t.Errorf("Polyn default = %d; want -1 (Bezier)", cfg.Polyn)
	}
}

/*****************************************************************************************************************/

func TestReadWriteReadRoundTrip(t *testing.T) {
	input := `# a run configuration
NRADII 12
RADSEP 5.5
XPOS 32.5
YPOS 31.0
VSYS 500
VROT auto
VDISP 8
INC 60
PA 90
Z0 0.2
DENS 1
FREE VROT VDISP INC PA
FTYPE 2
WFUNC 1
NORM azim
LTYPE 3
CDENS 15
NV 5
TOL 0.0005
MASK search
SIDE R
TWOSTAGE true
POLYN 1
FLAGERRORS true
THREADS 4
OUTFOLDER /tmp/run
`

	cfg, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error reading: %v", err)
	}

	if cfg.NRadii != 12 {
		t.Errorf("NRadii = %d; want 12", cfg.NRadii)
	}
	if cfg.FType != residual.FTypeAbsDiff {
		t.Errorf("FType = %v; want FTypeAbsDiff", cfg.FType)
	}
	if cfg.Norm != galmod.NormAzimuthal {
		t.Errorf("Norm = %v; want NormAzimuthal", cfg.Norm)
	}
	if cfg.LType != galmod.LTypeExponential {
		t.Errorf("LType = %v; want LTypeExponential (LTYPE 3)", cfg.LType)
	}
	if cfg.Side != residual.SideReceding {
		t.Errorf("Side = %v; want SideReceding", cfg.Side)
	}
	if len(cfg.Free) != 4 {
		t.Fatalf("len(Free) = %d; want 4", len(cfg.Free))
	}
	if !containsFreeParam(cfg.Free, galfit.ParamVrot) || !containsFreeParam(cfg.Free, galfit.ParamPa) {
		t.Errorf("Free = %v; want it to include Vrot and Pa", cfg.Free)
	}

	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		t.Fatalf("unexpected error writing: %v", err)
	}

	reread, err := Read(&buf)
	if err != nil {
		t.Fatalf("unexpected error re-reading: %v", err)
	}

	if reread.NRadii != cfg.NRadii || reread.FType != cfg.FType || reread.Norm != cfg.Norm ||
		reread.LType != cfg.LType || reread.Side != cfg.Side || reread.Polyn != cfg.Polyn ||
		reread.Threads != cfg.Threads || reread.OutFolder != cfg.OutFolder {
		t.Errorf("round trip did not preserve scalar fields: got %+v, want %+v", reread, cfg)
	}
	if len(reread.Free) != len(cfg.Free) {
		t.Errorf("round trip did not preserve FREE: got %v, want %v", reread.Free, cfg.Free)
	}
}

/*****************************************************************************************************************/

func containsFreeParam(ps []galfit.Param, target galfit.Param) bool {
	for _, p := range ps {
		if p == target {
			return true
		}
	}
	return false
}

/*****************************************************************************************************************/
