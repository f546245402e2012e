/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/errs"
	"github.com/observerly/galtilt/internal/finder"
	"github.com/observerly/galtilt/internal/galfit"
	"github.com/observerly/galtilt/internal/galmod"
	"github.com/observerly/galtilt/internal/header"
	"github.com/observerly/galtilt/internal/obslog"
	"github.com/observerly/galtilt/internal/paramfile"
	"github.com/observerly/galtilt/internal/plots"
	"github.com/observerly/galtilt/internal/progress"
	"github.com/observerly/galtilt/internal/residual"
	"github.com/observerly/galtilt/internal/ringset"
	"github.com/observerly/galtilt/internal/robuststats"
	"github.com/observerly/galtilt/internal/rundb"
	"github.com/observerly/galtilt/internal/runid"
)

/*****************************************************************************************************************/

var (
	fitsPath  string
	outFolder string
)

/*****************************************************************************************************************/

var fitCommand = &cobra.Command{
	Use:   "fit [parameter-file]",
	Short: "Fit a tilted-ring model to an observed cube (§4.5).",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFit,
}

/*****************************************************************************************************************/

func init() {
	for _, c := range []*cobra.Command{fitCommand, guessCommand, modelCommand} {
		c.Flags().StringVarP(&fitsPath, "fits", "f", "", "path to the observed FITS cube")
	}
	fitCommand.Flags().StringVarP(&outFolder, "out", "o", "", "output folder override (OUTFOLDER)")
}

/*****************************************************************************************************************/

// runFit drives the full pipeline of §4: read the cube, derive or load an
// initial ring set (§4.7), fit every ring (§4.5, with the optional §4.5
// regularisation pass), then persist the outputs named in §6.
func runFit(command *cobra.Command, args []string) error {
	if fitsPath == "" {
		return errs.New(errs.UserError, "cmd.fit", errMissingFITSFlag)
	}

	cfg := paramfile.Default()
	if len(args) == 1 {
		loaded, err := loadParamFile(args[0])
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if outFolder != "" {
		cfg.OutFolder = outFolder
	}
	if cfg.OutFolder == "" {
		cfg.OutFolder = "."
	}

	if err := os.MkdirAll(cfg.OutFolder, 0o755); err != nil {
		return errs.New(errs.DataError, "cmd.fit", err)
	}

	tag, err := runid.New(rand.Reader)
	if err != nil {
		return errs.New(errs.InternalError, "cmd.fit", err)
	}

	logFile, err := os.Create(filepath.Join(cfg.OutFolder, "galtilt-"+tag+".log"))
	if err != nil {
		return errs.New(errs.DataError, "cmd.fit", err)
	}
	defer logFile.Close()

	log := obslog.New(logFile, tag, "fit")
	log.Infof("starting run, fits=%s outfolder=%s", fitsPath, cfg.OutFolder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	started := time.Now()
	run := rundb.Run{ULID: tag, ParamFilePath: firstOf(args), StartedAt: started}

	result, err := fitPipeline(ctx, cfg, log, logFile, &run)

	run.FinishedAt = time.Now()
	if err != nil {
		run.ErrorMessage = err.Error()
		run.Cancelled = errs.Is(err, errs.Cancelled)
	}

	if db, dbErr := rundb.Open(filepath.Join(cfg.OutFolder, "runs.db")); dbErr == nil {
		_ = db.Record(run)
		_ = db.Close()
	}

	if err != nil {
		log.Errorf("run failed: %v", err)
		return err
	}

	log.Infof("run complete: %d rings, %d converged, %d not converged, %d no-data",
		run.RingCount, run.ConvergedRings, run.NotConvergedRings, run.NoDataRings)

	_ = result

	return nil
}

/*****************************************************************************************************************/

func firstOf(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

/*****************************************************************************************************************/

// fitPipeline is the testable core of the fit subcommand, separated from
// runFit so the cobra/file/flag plumbing never has to be exercised to
// check the pipeline's wiring.
func fitPipeline(ctx context.Context, cfg *paramfile.Config, log *obslog.Logger, logWriter *os.File, run *rundb.Run) (*ringset.RingSet, error) {
	h, observed, err := readFITSCube(fitsPath)
	if err != nil {
		return nil, err
	}

	initial, warnings, err := buildInitialRingSet(h, observed, cfg, log.With("guess"))
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warnf("%s", w)
	}

	stats := robuststats.Compute(observed.Data, observed.Mask)
	sigma := robuststats.MADFMToSigma(stats.MADFM)

	var externalMask []bool
	if cfg.Mask != 0 { // anything other than MaskNone may want a finder-derived mask
		detections := finder.Find(h, observed, defaultFindOptions(h, observed))
		externalMask = maskFromDetections(observed, detections)
	}

	bar := progress.New(logWriter, "fitting rings", len(initial.Rings))
	fitOpts, regOpts := buildGalfitOptions(cfg, sigma, externalMask, log.With("galfit"), bar)
	regOpts.Enabled = cfg.TwoStage

	obs := residual.Observed{Header: h, Cube: observed}

	fitted, errorsByRing, err := galfit.FitAllWithRegularisation(ctx, obs, initial, fitOpts, regOpts)
	bar.Done()
	if err != nil {
		return nil, err
	}

	summarise(run, fitted)

	if err := persistOutputs(ctx, cfg, h, observed, fitted, errorsByRing, fitOpts.ModelOpts); err != nil {
		return nil, err
	}

	return fitted, nil
}

/*****************************************************************************************************************/

func summarise(run *rundb.Run, rs *ringset.RingSet) {
	run.RingCount = len(rs.Rings)
	for _, r := range rs.Rings {
		switch {
		case r.NoData:
			run.NoDataRings++
		case r.NotConverged:
			run.NotConvergedRings++
		default:
			run.ConvergedRings++
		}
	}
}

/*****************************************************************************************************************/

func persistOutputs(
	ctx context.Context,
	cfg *paramfile.Config,
	h header.Header,
	observed *cube.Cube,
	fitted *ringset.RingSet,
	errorsByRing map[int]map[galfit.Param]float64,
	modelOpts galmod.Options,
) error {
	ringFile, err := os.Create(filepath.Join(cfg.OutFolder, "rings.out"))
	if err != nil {
		return errs.New(errs.DataError, "cmd.persistOutputs", err)
	}
	defer ringFile.Close()
	if err := ringset.Write(ringFile, fitted); err != nil {
		return errs.New(errs.DataError, "cmd.persistOutputs", err)
	}

	if cfg.FlagErrors {
		errFile, err := os.Create(filepath.Join(cfg.OutFolder, "rings.out.err"))
		if err != nil {
			return errs.New(errs.DataError, "cmd.persistOutputs", err)
		}
		defer errFile.Close()
		if err := ringset.WriteErrors(errFile, toRingsetErrors(fitted, errorsByRing)); err != nil {
			return errs.New(errs.DataError, "cmd.persistOutputs", err)
		}
	}

	model, err := galmod.Synthesise(ctx, h, fitted, modelOpts)
	if err != nil {
		return err
	}
	if err := writeFITSCube(filepath.Join(cfg.OutFolder, "model.fits"), h, model); err != nil {
		return err
	}

	residualCube := subtractCube(observed, model)
	if err := writeFITSCube(filepath.Join(cfg.OutFolder, "residual.fits"), h, residualCube); err != nil {
		return err
	}

	for _, series := range plots.FromRingSet(fitted) {
		path := filepath.Join(cfg.OutFolder, fmt.Sprintf("%s.png", series.Label))
		file, err := os.Create(path)
		if err != nil {
			return errs.New(errs.DataError, "cmd.persistOutputs", err)
		}
		err = plots.Render(file, series)
		file.Close()
		if err != nil {
			return errs.New(errs.DataError, "cmd.persistOutputs", err)
		}
	}

	return nil
}

/*****************************************************************************************************************/

func toRingsetErrors(rs *ringset.RingSet, errorsByRing map[int]map[galfit.Param]float64) *ringset.Errors {
	out := &ringset.Errors{Rows: make([]map[string]float64, len(rs.Rings))}
	for i := range rs.Rings {
		row := map[string]float64{}
		for p, v := range errorsByRing[i] {
			row[paramColumnName(p)] = v
		}
		out.Rows[i] = row
	}
	return out
}

/*****************************************************************************************************************/

func paramColumnName(p galfit.Param) string {
	switch p {
	case galfit.ParamXpos:
		return "xpos"
	case galfit.ParamYpos:
		return "ypos"
	case galfit.ParamVsys:
		return "vsys"
	case galfit.ParamVrot:
		return "vrot"
	case galfit.ParamVdisp:
		return "vdisp"
	case galfit.ParamVrad:
		return "vrad"
	case galfit.ParamInc:
		return "inc"
	case galfit.ParamPa:
		return "pa"
	case galfit.ParamZ0:
		return "z0"
	default:
		return "unknown"
	}
}

/*****************************************************************************************************************/

var errMissingFITSFlag = simpleError("cmd: -f/--fits is required")

/*****************************************************************************************************************/

// maskFromDetections marks every voxel belonging to any of the finder's
// detections as eligible, for use as residual.Options.External under
// MASK=search/smooth/both.
func maskFromDetections(observed *cube.Cube, detections []*finder.Detection) []bool {
	mask := make([]bool, len(observed.Data))
	for _, d := range detections {
		for z, obj := range d.Channels {
			for _, s := range obj.Scans {
				for x := s.XStart; x <= s.XEnd; x++ {
					mask[observed.Index(x, s.Y, z)] = true
				}
			}
		}
	}
	return mask
}

/*****************************************************************************************************************/

// subtractCube returns a new cube holding observed minus model, voxel by
// voxel, sharing observed's mask.
func subtractCube(observed, model *cube.Cube) *cube.Cube {
	out := cube.New(observed.Nx, observed.Ny, observed.Nz)
	out.Mask = observed.Mask
	for i := range out.Data {
		out.Data[i] = observed.Data[i] - model.Data[i]
	}
	return out
}

/*****************************************************************************************************************/

// loadParamFile reads and validates a parameter file, wrapping I/O and
// parse failures as a UserError per §7.
func loadParamFile(path string) (*paramfile.Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.UserError, "cmd.loadParamFile", err)
	}
	defer file.Close()

	cfg, err := paramfile.Read(file)
	if err != nil {
		return nil, errs.New(errs.UserError, "cmd.loadParamFile", err)
	}
	return cfg, nil
}

/*****************************************************************************************************************/
