package types

import (
	"errors"
	"fmt"
)

// Error kinds for inputs that cannot be used at all. Row-level defects are
// never reported through these.
var (
	// ErrInputMissing means a required input file does not exist.
	ErrInputMissing = errors.New("input missing")

	// ErrUnexpectedShape means the input exists but cannot be read as the
	// expected table (corrupt workbook, no sheets, missing key column).
	ErrUnexpectedShape = errors.New("unexpected input shape")
)

// Input names used in InputError.
const (
	InputRawExport = "raw export"
	InputReference = "reference catalog"
)

// InputError describes why a required input could not be loaded.
type InputError struct {
	// Input is InputRawExport or InputReference.
	Input string

	// Path is the file that was being read.
	Path string

	// Kind is ErrInputMissing or ErrUnexpectedShape.
	Kind error

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %v: %v", e.Input, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Input, e.Path, e.Kind)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *InputError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// MissingInput builds an ErrInputMissing error.
func MissingInput(input, path string, err error) *InputError {
	return &InputError{Input: input, Path: path, Kind: ErrInputMissing, Err: err}
}

// UnexpectedShape builds an ErrUnexpectedShape error.
func UnexpectedShape(input, path string, err error) *InputError {
	return &InputError{Input: input, Path: path, Kind: ErrUnexpectedShape, Err: err}
}
