// Package motor drives two DC motors through an L298N style H-bridge.
//
// Each motor has two direction lines and one PWM enable line. A signed duty
// selects the direction by its sign and the PWM intensity by its magnitude.
package motor

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	fx "github.com/robotalks/l0bot/pkg/framework"
)

// MaxDuty is the largest duty magnitude.
const MaxDuty Duty = 255

// DefaultFrequency is the PWM frequency used when none is configured.
const DefaultFrequency = physic.KiloHertz

// DigitalOut is a direction line, gpio.PinOut satisfies it.
type DigitalOut interface {
	Out(l gpio.Level) error
}

// PWMOut is an enable line, gpio.PinOut satisfies it.
type PWMOut interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// Duty is the signed duty of a motor in [-MaxDuty, MaxDuty].
// Positive is forward, negative is reverse and zero brakes.
type Duty int16

// Clamp limits the duty to [-MaxDuty, MaxDuty].
func (d Duty) Clamp() Duty {
	switch {
	case d > MaxDuty:
		return MaxDuty
	case d < -MaxDuty:
		return -MaxDuty
	}
	return d
}

// Magnitude converts the absolute duty into a PWM duty.
func (d Duty) Magnitude() gpio.Duty {
	mag := int64(d.Clamp())
	if mag < 0 {
		mag = -mag
	}
	return gpio.Duty(mag * int64(gpio.DutyMax) / int64(MaxDuty))
}

// State is the duty pair of both motors.
type State struct {
	Left  Duty
	Right Duty
}

// Clamp clamps both duties.
func (s State) Clamp() State {
	return State{Left: s.Left.Clamp(), Right: s.Right.Clamp()}
}

// IsStopped indicates both motors are braked.
func (s State) IsStopped() bool {
	return s.Left == 0 && s.Right == 0
}

// String implements fmt.Stringer.
func (s State) String() string {
	return fmt.Sprintf("L=%d R=%d", s.Left, s.Right)
}

// Pins are the lines of one motor.
type Pins struct {
	Forward DigitalOut
	Reverse DigitalOut
	Enable  PWMOut
}

func (p Pins) drive(d Duty, freq physic.Frequency) error {
	fwd, rev := gpio.Low, gpio.Low
	switch {
	case d > 0:
		fwd = gpio.High
	case d < 0:
		rev = gpio.High
	}
	var errs fx.AggregatedError
	errs.Add(p.Forward.Out(fwd), p.Reverse.Out(rev), p.Enable.PWM(d.Magnitude(), freq))
	return errs.Aggregate()
}

// Actuator reflects a State into the pins of both motors.
// It keeps no state of its own, applying the same State twice writes the
// same levels twice.
type Actuator struct {
	Left      Pins
	Right     Pins
	Frequency physic.Frequency
}

// Apply writes the clamped state to the hardware.
// Every line is written even if an earlier write failed.
func (a *Actuator) Apply(s State) error {
	freq := a.Frequency
	if freq == 0 {
		freq = DefaultFrequency
	}
	s = s.Clamp()
	var errs fx.AggregatedError
	if err := a.Left.drive(s.Left, freq); err != nil {
		errs.Add(fmt.Errorf("left motor: %w", err))
	}
	if err := a.Right.drive(s.Right, freq); err != nil {
		errs.Add(fmt.Errorf("right motor: %w", err))
	}
	return errs.Aggregate()
}
