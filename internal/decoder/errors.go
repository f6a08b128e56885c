package decoder

import (
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned by the typed helpers when the payload
// decodes to something other than the requested type
var ErrUnexpectedShape = errors.New("unexpected payload shape")

// ParseError reports malformed JSON text
type ParseError struct {
	Err error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %v", e.Err)
}

// Unwrap returns the underlying json error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// DecodeError reports an object that matched a known shape but could not
// be built: conflicting keys, a missing required field or a field of the
// wrong type.
type DecodeError struct {
	Path    string // JSON path of the object, e.g. $.data[0].rule
	Field   string // Offending field relative to Path, if any
	Message string
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	path := e.Path
	if path == "" {
		path = "$"
	}
	if e.Field != "" {
		return fmt.Sprintf("decode %s: %s: %s", path, e.Field, e.Message)
	}
	return fmt.Sprintf("decode %s: %s", path, e.Message)
}

func missingField(field string) error {
	return &DecodeError{Field: field, Message: "missing required field"}
}

func fieldError(field, format string, args ...interface{}) error {
	return &DecodeError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// withPath attaches the object path to a DecodeError that has none yet
func withPath(err error, path string) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Path == "" {
		de.Path = path
	}
	return err
}
