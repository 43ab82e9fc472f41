package proto

import "errors"

var (
	// ErrMalformed matches every MalformedError.
	ErrMalformed = errors.New("malformed line")
	// ErrUnknownCommand matches every UnknownCommandError.
	ErrUnknownCommand = errors.New("unknown command")
)

// Reasons reported by MalformedError.
const (
	ReasonInvalidJSON   = "invalid JSON"
	ReasonMissingCmd    = "missing cmd"
	ReasonLineTooLong   = "line too long"
	ReasonUnknownStatus = "unknown status"
)

// MalformedError indicates a line which is not a well-formed message.
type MalformedError struct {
	Reason string
}

// Error implements error.
func (e *MalformedError) Error() string {
	return "malformed line: " + e.Reason
}

// Is makes errors.Is(err, ErrMalformed) hold.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// UnknownCommandError indicates a well-formed command with an unrecognized
// "cmd" value.
type UnknownCommandError struct {
	Cmd string
}

// Error implements error.
func (e *UnknownCommandError) Error() string {
	return "unknown command: " + e.Cmd
}

// Is makes errors.Is(err, ErrUnknownCommand) hold.
func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}
