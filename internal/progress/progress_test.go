/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package progress

/*****************************************************************************************************************/

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

/*****************************************************************************************************************/

func TestIncrementIsConcurrencySafe(t *testing.T) {
	var buf bytes.Buffer
	bar := New(&buf, "fitting rings", 100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bar.Increment()
		}()
	}
	wg.Wait()

	bar.mu.Lock()
	done := bar.done
	bar.mu.Unlock()

	if done != 100 {
		t.Errorf("done = %d; want 100", done)
	}
}

/*****************************************************************************************************************/

func TestRenderWritesLabelAndCount(t *testing.T) {
	var buf bytes.Buffer
	bar := New(&buf, "fitting rings", 4)

	bar.Increment()
	bar.Increment()

	out := buf.String()
	if !strings.Contains(out, "fitting rings") {
		t.Errorf("expected output to contain label, got %q", out)
	}
	if !strings.Contains(out, "2/4") {
		t.Errorf("expected output to contain progress count, got %q", out)
	}
}

/*****************************************************************************************************************/

func TestDoneWritesTrailingNewline(t *testing.T) {
	var buf bytes.Buffer
	bar := New(&buf, "fitting rings", 1)
	bar.Done()

	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("expected Done to write a trailing newline")
	}
}

/*****************************************************************************************************************/
