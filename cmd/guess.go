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
	"github.com/observerly/galtilt/internal/finder"
	"github.com/observerly/galtilt/internal/guesser"
	"github.com/observerly/galtilt/internal/ringset"
)

/*****************************************************************************************************************/

var guessOut string

/*****************************************************************************************************************/

var guessCommand = &cobra.Command{
	Use:   "guess",
	Short: "Run the source finder and parameter guesser, writing an initial ring file (§4.7).",
	Args:  cobra.NoArgs,
	RunE:  runGuess,
}

/*****************************************************************************************************************/

func init() {
	guessCommand.Flags().StringVarP(&guessOut, "out", "o", "guess.out", "path to write the guessed ring file")
}

/*****************************************************************************************************************/

// runGuess exercises the first half of §4.7's pipeline in isolation: find
// the primary detection in the cube, guess its tilted-ring parameters, and
// write the resulting ring set, without going on to fit it.
func runGuess(command *cobra.Command, args []string) error {
	if fitsPath == "" {
		return errs.New(errs.UserError, "cmd.guess", errMissingFITSFlag)
	}

	h, c, err := readFITSCube(fitsPath)
	if err != nil {
		return err
	}

	detections := finder.Find(h, c, defaultFindOptions(h, c))
	if len(detections) == 0 {
		return errs.New(errs.DataError, "cmd.guess", errNoDetection)
	}
	primary := largestDetection(detections)

	result, err := guesser.Guess(h, c, primary, guesser.Options{
		RefineInclination: true,
		DefaultVdisp:      8,
		DefaultZ0:         0,
	})
	if err != nil {
		return errs.New(errs.DataError, "cmd.guess", err)
	}

	for _, w := range result.Warnings {
		command.PrintErrln(w)
	}

	file, err := os.Create(guessOut)
	if err != nil {
		return errs.New(errs.DataError, "cmd.guess", err)
	}
	defer file.Close()

	if err := ringset.Write(file, result.RingSet); err != nil {
		return errs.New(errs.DataError, "cmd.guess", err)
	}

	return nil
}

/*****************************************************************************************************************/
