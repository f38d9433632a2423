package protocol

import "fmt"

// MissingTagError reports a base tag that the dump tool returned no
// value for but that enrichment needs.
type MissingTagError struct {
	Name string
}

func (e *MissingTagError) Error() string {
	return fmt.Sprintf("missing tag: no value for %q in dump output", e.Name)
}

// NewMissingTagError creates a new missing tag error
func NewMissingTagError(name string) *MissingTagError {
	return &MissingTagError{Name: name}
}

// FormatError reports a tag value that could not be parsed as the
// number enrichment expects.
type FormatError struct {
	Name  string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: %s value %q is not numeric", e.Name, e.Value)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError creates a new format error
func NewFormatError(name, value string, err error) *FormatError {
	return &FormatError{Name: name, Value: value, Err: err}
}

// DivisionByZeroError reports a degenerate acceleration-factor
// computation whose denominator collapsed to zero.
type DivisionByZeroError struct {
	Op string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero while computing %s", e.Op)
}

// NewDivisionByZeroError creates a new division by zero error
func NewDivisionByZeroError(op string) *DivisionByZeroError {
	return &DivisionByZeroError{Op: op}
}
