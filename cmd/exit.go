/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"context"
	"errors"

	"github.com/observerly/galtilt/internal/errs"
)

/*****************************************************************************************************************/

// exitCodeFor maps a cobra command's returned error onto the process exit
// code named by §6's CLI contract and §7's error taxonomy.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return errs.Cancelled.ExitCode()
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return e.Kind.ExitCode()
	}
	return errs.UserError.ExitCode()
}

/*****************************************************************************************************************/
