package telegram

import (
	stderrors "errors"
	"fmt"
)

// Per-record failures. A structure that fails with any of these is dropped;
// the process keeps running.
var (
	// ErrNoMatch means the structure's shape matches no definition of the
	// active profile.
	ErrNoMatch = stderrors.New("no telegram definition matches structure")
	// ErrPositionMismatch means a child index has no field definition.
	ErrPositionMismatch = stderrors.New("no field defined at position")
	// ErrTagMismatch means a child's tag differs from the declared type.
	ErrTagMismatch = stderrors.New("field tag does not match declared type")
	// ErrFieldDecode means a field's raw value could not be decoded.
	ErrFieldDecode = stderrors.New("field decode failed")
)

// Field-level decode failures returned by DecodeField.
var (
	ErrMalformedValue       = stderrors.New("malformed field value")
	ErrUnsupportedFieldType = stderrors.New("unsupported field type")
)

// DecodeError describes why a record could not be decoded. Record, Position
// and Field identify where decoding stopped.
type DecodeError struct {
	Record   string
	Position int
	Field    string
	Expected string
	Actual   string
	Err      error
}

func (e *DecodeError) Error() string {
	switch {
	case stderrors.Is(e.Err, ErrTagMismatch):
		return fmt.Sprintf("telegram %q position %d (%s): expected tag %s, got %s",
			e.Record, e.Position, e.Field, e.Expected, e.Actual)
	case e.Field == "":
		return fmt.Sprintf("telegram %q position %d: %v", e.Record, e.Position, e.Err)
	default:
		return fmt.Sprintf("telegram %q position %d (%s): %v", e.Record, e.Position, e.Field, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }
