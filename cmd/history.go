/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/observerly/galtilt/internal/errs"
	"github.com/observerly/galtilt/internal/rundb"
)

/*****************************************************************************************************************/

var historyFolder string

/*****************************************************************************************************************/

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "List past fit runs recorded in a run folder's runs.db.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

/*****************************************************************************************************************/

func init() {
	historyCommand.Flags().StringVarP(&historyFolder, "out", "o", ".", "output folder whose runs.db to read")
}

/*****************************************************************************************************************/

// runHistory opens the run log left behind by prior `galtilt fit` invocations
// in the given output folder and prints one line per recorded run, most
// recent first.
func runHistory(command *cobra.Command, args []string) error {
	db, err := rundb.Open(filepath.Join(historyFolder, "runs.db"))
	if err != nil {
		return errs.New(errs.DataError, "cmd.history", err)
	}
	defer db.Close()

	runs, err := db.History()
	if err != nil {
		return errs.New(errs.DataError, "cmd.history", err)
	}

	if len(runs) == 0 {
		command.Println("no runs recorded")
		return nil
	}

	for _, run := range runs {
		status := "ok"
		switch {
		case run.Cancelled:
			status = "cancelled"
		case run.ErrorMessage != "":
			status = "failed"
		case run.NotConvergedRings > 0 || run.NoDataRings > 0:
			status = "partial"
		}
		command.Println(fmt.Sprintf(
			"%s  %s  rings=%d converged=%d not-converged=%d no-data=%d chi2=%.4g  %s",
			run.ULID, status, run.RingCount, run.ConvergedRings, run.NotConvergedRings, run.NoDataRings,
			run.FinalChiSquare, run.ParamFilePath,
		))
	}

	return nil
}

/*****************************************************************************************************************/
