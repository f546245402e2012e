/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package runid

/*****************************************************************************************************************/

import (
	"math/rand"
	"testing"
)

/*****************************************************************************************************************/

func TestNewProducesAValidULID(t *testing.T) {
	id, err := New(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Valid(id) {
		t.Errorf("New produced %q, which does not parse as a ULID", id)
	}
}

/*****************************************************************************************************************/

func TestValidRejectsGarbage(t *testing.T) {
	if Valid("not-a-ulid") {
		t.Error("Valid accepted a malformed string")
	}
}

/*****************************************************************************************************************/
