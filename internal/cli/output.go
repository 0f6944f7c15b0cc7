package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tabula-data/tabula/internal/csvio"
	"github.com/tabula-data/tabula/internal/frame"
	"github.com/tabula-data/tabula/internal/render"
	"github.com/tabula-data/tabula/internal/value"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Evaluation failure (bad expression, type mismatch, etc.)
	ExitCommandError = 2 // Command error (invalid paths, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// EmitTable writes a table in the requested output format.
//
// text renders the fixed-width display (capped at maxRows), csv writes
// delimited text, json writes an array of row objects.
func EmitTable(w io.Writer, t *frame.Table, format string, maxRows int) error {
	switch format {
	case "json":
		rows := make([]map[string]any, t.NumRows())
		names := t.ColumnNames()
		for i := 0; i < t.NumRows(); i++ {
			row := make(map[string]any, len(names))
			for j, name := range names {
				row[name] = value.ToGo(t.ColumnAt(j).Value(i))
			}
			rows[i] = row
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)

	case "csv":
		return csvio.Write(w, t, 0)

	default:
		_, err := io.WriteString(w, render.Render(t, render.Options{MaxRows: maxRows}))
		return err
	}
}
