/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package runid stamps every fit run with a sortable, collision-resistant
// identifier. The ULID never feeds the synthesiser's RNG seed, which per
// §5/§9 must derive deterministically from (ring_index, run_seed) alone;
// it labels log lines and the rundb row only.
package runid

/*****************************************************************************************************************/

import (
	"io"
	"time"

	"github.com/oklog/ulid"
)

/*****************************************************************************************************************/

// New generates a ULID for the current wall-clock instant, reading entropy
// from src. Callers that need a reproducible run tag for tests should pass
// a deterministic source.
func New(src io.Reader) (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), src)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

/*****************************************************************************************************************/

// Valid reports whether s parses as a well-formed ULID string.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

/*****************************************************************************************************************/
