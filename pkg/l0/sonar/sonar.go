// Package sonar measures distance with an HC-SR04 style ultrasonic module.
package sonar

import (
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"

	"github.com/robotalks/l0bot/pkg/l0/clock"
)

// Measurement limits.
const (
	// NoEcho is reported when the echo pulse never completes in time.
	NoEcho = 999.0
	// MinDistance and MaxDistance bound the physically valid range (cm).
	MinDistance = 2.0
	MaxDistance = 400.0
	// SoundSpeed is the speed of sound in cm/µs.
	SoundSpeed = 0.034
	// DefaultTimeout bounds a whole measurement.
	DefaultTimeout = 30 * time.Millisecond
)

const (
	settleTime  = 2 * time.Microsecond
	triggerTime = 10 * time.Microsecond
)

// TriggerPin starts a measurement, gpio.PinOut satisfies it.
type TriggerPin interface {
	Out(l gpio.Level) error
}

// EchoPin carries the echo pulse, gpio.PinIn satisfies it.
type EchoPin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
}

// Reader performs blocking distance measurements.
// Measure blocks for up to Timeout, so it must only be called at the
// sensor interval.
type Reader struct {
	Trigger TriggerPin
	Echo    EchoPin
	Clock   clock.Clock
	Timeout time.Duration
}

// Measure returns the distance in centimeters, or NoEcho.
func (r *Reader) Measure() float64 {
	pulse, ok := r.pulse()
	if !ok {
		return NoEcho
	}
	return Centimeters(pulse)
}

func (r *Reader) pulse() (time.Duration, bool) {
	clk, timeout := r.Clock, r.Timeout
	if clk == nil {
		clk = clock.System
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if err := r.Echo.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		glog.V(1).Infof("sonar: arm echo: %v", err)
		return 0, false
	}
	if err := r.trigger(clk); err != nil {
		glog.V(1).Infof("sonar: trigger: %v", err)
		return 0, false
	}

	deadline := clk.Now().Add(timeout)
	if !r.Echo.WaitForEdge(timeout) {
		return 0, false
	}
	start := clk.Now()
	if err := r.Echo.In(gpio.PullDown, gpio.FallingEdge); err != nil {
		glog.V(1).Infof("sonar: re-arm echo: %v", err)
		return 0, false
	}
	remain := deadline.Sub(start)
	if remain <= 0 || !r.Echo.WaitForEdge(remain) {
		return 0, false
	}
	return clk.Now().Sub(start), true
}

func (r *Reader) trigger(clk clock.Clock) error {
	if err := r.Trigger.Out(gpio.Low); err != nil {
		return err
	}
	clk.Sleep(settleTime)
	if err := r.Trigger.Out(gpio.High); err != nil {
		return err
	}
	clk.Sleep(triggerTime)
	return r.Trigger.Out(gpio.Low)
}

// Centimeters converts the round-trip echo pulse into a one-way distance,
// clamped to [MinDistance, MaxDistance].
func Centimeters(pulse time.Duration) float64 {
	us := float64(pulse) / float64(time.Microsecond)
	cm := us * SoundSpeed / 2
	switch {
	case cm < MinDistance:
		return MinDistance
	case cm > MaxDistance:
		return MaxDistance
	}
	return cm
}

// PulseFor is the inverse of Centimeters for an unclamped distance.
func PulseFor(cm float64) time.Duration {
	return time.Duration(cm * 2 / SoundSpeed * float64(time.Microsecond))
}
