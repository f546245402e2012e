/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"github.com/spf13/cobra"
)

/*****************************************************************************************************************/

var rootCommand = &cobra.Command{
	Use:   "galtilt",
	Short: "galtilt fits a tilted-ring kinematic model to a spectral-line data cube.",
	Long:  "galtilt fits a tilted-ring kinematic model to a spectral-line data cube, recovering rotation curve, inclination and position angle per radial ring.",
}

/*****************************************************************************************************************/

func init() {
	rootCommand.AddCommand(fitCommand)
	rootCommand.AddCommand(modelCommand)
	rootCommand.AddCommand(guessCommand)
	rootCommand.AddCommand(historyCommand)
}

/*****************************************************************************************************************/

// Execute runs the root command, returning the process exit code mapped
// from any typed error it surfaces (§7).
func Execute() int {
	if err := rootCommand.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return 0
}

/*****************************************************************************************************************/
