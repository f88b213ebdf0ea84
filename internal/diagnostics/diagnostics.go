// Package diagnostics defines the coded error values reported by the
// preprocessor. Every failure that reaches the CLI boundary is a
// Diagnostic; the code identifies the kind, the position identifies the
// offending input line where one is known.
package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Diagnostic codes.
const (
	// Generator-time structural errors (unrecoverable, whole run aborts).
	ErrG001 = "G001" // nested generic block
	ErrG002 = "G002" // close marker with no open block
	ErrG003 = "G003" // unterminated generic block at end of input

	// Profile / type-table errors.
	ErrT001 = "T001"

	// Input and output errors.
	ErrI001 = "I001"
)

// Diagnostic is a positioned, coded error.
type Diagnostic struct {
	Code    string
	File    string
	Line    int // 1-based; 0 when no position applies
	Message string
}

// NewError creates a diagnostic with a position.
func NewError(code, file string, line int, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Code:    code,
		File:    file,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

func (d *Diagnostic) Error() string {
	if d.File != "" && d.Line > 0 {
		return fmt.Sprintf("%s:%d: [%s] %s", d.File, d.Line, d.Code, d.Message)
	}
	if d.File != "" {
		return fmt.Sprintf("%s: [%s] %s", d.File, d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// Print writes diagnostics to w, one per line. Color is applied only
// when w is a terminal.
func Print(w io.Writer, diags []*Diagnostic) {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	for _, d := range diags {
		if color {
			fmt.Fprintf(w, "- %s%s%s\n", ansiRed, d.Error(), ansiReset)
		} else {
			fmt.Fprintf(w, "- %s\n", d.Error())
		}
	}
}
