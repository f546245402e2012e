/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/observerly/galtilt/internal/errs"
	"github.com/observerly/galtilt/internal/galmod"
	"github.com/observerly/galtilt/internal/paramfile"
	"github.com/observerly/galtilt/internal/ringset"
)

/*****************************************************************************************************************/

var modelOut string

/*****************************************************************************************************************/

var modelCommand = &cobra.Command{
	Use:   "model <ring-file>",
	Short: "Synthesise a model cube from a ring file against a reference FITS header (§4.3).",
	Args:  cobra.ExactArgs(1),
	RunE:  runModel,
}

/*****************************************************************************************************************/

func init() {
	modelCommand.Flags().StringVarP(&modelOut, "out", "o", "model.fits", "path to write the synthesised cube")
}

/*****************************************************************************************************************/

// runModel reads a ring file and the grid/header geometry of the reference
// FITS cube named by -f/--fits, synthesises the tilted-ring model cube
// (§4.3) over that same grid, and writes it out, independent of any fit.
func runModel(command *cobra.Command, args []string) error {
	if fitsPath == "" {
		return errs.New(errs.UserError, "cmd.model", errMissingFITSFlag)
	}

	ringFile, err := os.Open(args[0])
	if err != nil {
		return errs.New(errs.UserError, "cmd.model", err)
	}
	defer ringFile.Close()

	rs, err := ringset.Read(ringFile)
	if err != nil {
		return errs.New(errs.UserError, "cmd.model", err)
	}

	h, _, err := readFITSCube(fitsPath)
	if err != nil {
		return err
	}

	cfg := paramfile.Default()
	modelOpts := galmod.Options{
		Cdens:         cfg.Cdens,
		Nv:            cfg.Nv,
		LType:         cfg.LType,
		Normalisation: cfg.Norm,
		Threads:       cfg.Threads,
	}

	model, err := galmod.Synthesise(command.Context(), h, rs, modelOpts)
	if err != nil {
		return err
	}

	return writeFITSCube(modelOut, h, model)
}

/*****************************************************************************************************************/
