package link

import (
	"errors"
)

var (
	// ErrNoReply indicates no reply received from the firmware.
	// This happens when a reply is received for a latter command, and all
	// previous commands fail with this error.
	ErrNoReply = errors.New("no reply")
	// ErrClosed is returned for commands pending when the link goes down.
	ErrClosed = errors.New("link closed")
	// ErrNotConnected is returned by the Driver while the port is not open.
	ErrNotConnected = errors.New("not connected")
)
