//go:build !linux

package device

import "errors"

// ErrUnsupported is returned on platforms without the joystick API.
var ErrUnsupported = errors.New("joystick not supported on this platform")

// Open is not supported.
func Open(index int) (Device, error) {
	return nil, ErrUnsupported
}

// DetectAndOpen is not supported.
func DetectAndOpen(startIndex int) (Device, error) {
	return nil, ErrUnsupported
}
