package spec

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for clearer handling and messaging.
type ErrorCode string

const (
	// InvalidType: a parameter or schema violates a location or shape rule.
	InvalidType ErrorCode = "InvalidType"
	// MalformedRoute: the route table does not follow the expected grammar.
	MalformedRoute ErrorCode = "MalformedRoute"
	// SchemaSynthesisFailure: collected types cannot be rendered as JSON Schema.
	SchemaSynthesisFailure ErrorCode = "SchemaSynthesisFailure"

	InputError      ErrorCode = "InputError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
)

// SynthesisPrefix starts every SchemaSynthesisFailure message.
const SynthesisPrefix = "Failed to analyze type. "

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path, route path or route/method
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// NewInvalidType returns an InvalidType error with msg as its message.
func NewInvalidType(msg string) *SpecError {
	return &SpecError{Code: InvalidType, Message: msg}
}

// NewMalformedRoute returns a MalformedRoute error with msg as its message.
func NewMalformedRoute(msg string) *SpecError {
	return &SpecError{Code: MalformedRoute, Message: msg}
}

// WithLocation sets the location unless one is already recorded, so the
// innermost caller wins.
func (e *SpecError) WithLocation(loc string) *SpecError {
	if e.Location == "" {
		e.Location = loc
	}
	return e
}

// CodeOf returns the code of the first SpecError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var se *SpecError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Describe renders err for terminal output, adding location and pointer lines
// when the error carries them.
func Describe(err error) string {
	var se *SpecError
	if !errors.As(err, &se) {
		return err.Error()
	}
	msg := se.Message
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return msg
}
