// Package device reads gamepads through the Linux joystick API.
package device

import "io"

// AxisMax is the largest absolute axis value.
const AxisMax = 32767

// Axis indices of a common gamepad layout.
const (
	AxisLeftX = 0
	AxisLeftY = 1
	AxisHatX  = 6
	AxisHatY  = 7
)

// Event is a change on an axis or a button.
type Event interface {
	// IsInit is true for the synthetic events reporting the initial state
	// right after the device is opened.
	IsInit() bool
	Index() int
}

// AxisEvent is the new position of an axis, -AxisMax to AxisMax.
// Y axes are negative when pushed forward.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device is an opened joystick.
type Device interface {
	io.Closer
	Index() int
	Name() string
	AxisCount() int
	ButtonCount() int
	// ReadEvent blocks until the next event, it fails once the device
	// is unplugged or closed.
	ReadEvent() (Event, error)
}
