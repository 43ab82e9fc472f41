package board

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBoard indicates the board kind is not supported.
	ErrUnknownBoard = errors.New("unknown board")
)

// PinNotFoundError is returned when a configured line doesn't exist.
type PinNotFoundError struct {
	Role string
	Name string
}

// Error implements error.
func (e *PinNotFoundError) Error() string {
	return fmt.Sprintf("%s: no GPIO line named %q", e.Role, e.Name)
}
