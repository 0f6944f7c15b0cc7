package frame

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tabula-data/tabula/internal/value"
)

// ColumnNotFoundError indicates an expression referenced a column that
// does not exist in the table being evaluated.
type ColumnNotFoundError struct {
	// Column is the missing column name.
	Column string

	// Available lists the table's column names, for diagnostics.
	Available []string
}

// Error implements the error interface.
func (e *ColumnNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("column not found: %q", e.Column)
	}
	return fmt.Sprintf("column not found: %q (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

// IsColumnNotFound returns true if the error is a missing-column error.
// Uses errors.As to handle wrapped errors.
func IsColumnNotFound(err error) bool {
	var ce *ColumnNotFoundError
	return errors.As(err, &ce)
}

// TypeMismatchError indicates an operator was applied to operands of
// incompatible kinds. Detected at evaluation time, never at expression
// construction time.
type TypeMismatchError struct {
	// Op is the operator's surface syntax (e.g. "+", ">", "and").
	Op string

	// Left and Right are the operand kinds that failed to combine.
	Left  value.Kind
	Right value.Kind

	// Detail carries additional context (optional).
	Detail string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("type mismatch: %s not supported between %s and %s", e.Op, e.Left, e.Right)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// IsTypeMismatch returns true if the error is an operand-type error.
// Uses errors.As to handle wrapped errors.
func IsTypeMismatch(err error) bool {
	var te *TypeMismatchError
	return errors.As(err, &te)
}

// ShapeError indicates an operation would violate the equal-length
// columns invariant. Construction is all-or-nothing: no partial table
// is ever produced.
type ShapeError struct {
	// Op is the operation that detected the violation.
	Op string

	// Column is the offending column, if the violation is column-specific.
	Column string

	// Want and Got are the expected and actual lengths.
	Want int
	Got  int

	// Detail carries additional context (optional).
	Detail string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("shape error in %s: %s", e.Op, e.Detail)
	}
	if e.Column != "" {
		return fmt.Sprintf("shape error in %s: column %q has length %d, want %d", e.Op, e.Column, e.Got, e.Want)
	}
	return fmt.Sprintf("shape error in %s: length %d, want %d", e.Op, e.Got, e.Want)
}

// IsShapeError returns true if the error is a shape violation.
// Uses errors.As to handle wrapped errors.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}
