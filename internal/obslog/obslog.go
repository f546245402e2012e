/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package obslog provides the thin structured-logging wrapper shared by
// every component: every line is prefixed with the run ID and the emitting
// component's name, following the teacher's habit of narrating each pipeline
// stage with fmt.Printf rather than reaching for a logging framework.
package obslog

/*****************************************************************************************************************/

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

/*****************************************************************************************************************/

// Logger is a component-scoped, concurrency-safe logger.
type Logger struct {
	mu        sync.Mutex
	out       *log.Logger
	runID     string
	component string
}

/*****************************************************************************************************************/

// New creates a Logger writing to w, tagging every line with runID and component.
func New(w io.Writer, runID, component string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		out:       log.New(w, "", log.LstdFlags),
		runID:     runID,
		component: component,
	}
}

/*****************************************************************************************************************/

func (l *Logger) line(level, format string, args ...any) string {
	return fmt.Sprintf("[%s] %-5s %-10s %s", l.runID, level, l.component, fmt.Sprintf(format, args...))
}

/*****************************************************************************************************************/

// Infof logs an informational line.
func (l *Logger) Infof(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Print(l.line("INFO", format, args...))
}

/*****************************************************************************************************************/

// Warnf logs a warning line; used for ConvergenceWarning and RingDegenerate recoveries.
func (l *Logger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Print(l.line("WARN", format, args...))
}

/*****************************************************************************************************************/

// Errorf logs an error line; used immediately before the driver exits non-zero.
func (l *Logger) Errorf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Print(l.line("ERROR", format, args...))
}

/*****************************************************************************************************************/

// With returns a copy of l scoped to a different component name, sharing the
// same underlying writer and run ID.
func (l *Logger) With(component string) *Logger {
	return &Logger{out: l.out, runID: l.runID, component: component}
}

/*****************************************************************************************************************/
