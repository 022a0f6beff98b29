package cif

import (
	"errors"
	"fmt"
)

// Fatal dispatcher-level errors. Lexer-level fatal errors (unexpected
// EOF, expected digit, integer overflow, missing terminator) are
// declared in the lexer package and surface unchanged, wrapped by
// [MalformedFileError] the same way these are.
var (
	ErrInvalidDCommand      = errors.New("invalid D subcommand")
	ErrInvalidMSpec         = errors.New("invalid M mirror spec")
	ErrInvalidTransformSpec = errors.New("invalid transform spec")
	ErrECommandInsideCell   = errors.New("E command inside a cell definition")
	ErrDFCommandOutsideCell = errors.New("DF command outside a cell definition")
	ErrMissingLayerName     = errors.New("missing layer name")
	ErrNestingTooDeep       = errors.New("cell nesting too deep")
)

// MalformedFileError reports a fatal parse error together with the
// context needed to locate it: the line number at the point of failure
// and the name of the cell being read.
type MalformedFileError struct {
	Line int
	Cell string
	Err  error
}

func (e *MalformedFileError) Error() string {
	return fmt.Sprintf("cif: %v (line %d, cell %q)", e.Err, e.Line, e.Cell)
}

func (e *MalformedFileError) Unwrap() error {
	return e.Err
}
