// Package firmware is the command and telemetry loop of the L0 controller.
//
// A single Loop owns the motor state and the latest distance reading. Every
// iteration it first takes a scheduled distance measurement (emitting a
// telemetry frame), then decodes and dispatches at most one command line.
package firmware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/l0bot/pkg/l0/clock"
	"github.com/robotalks/l0bot/pkg/l0/motor"
	"github.com/robotalks/l0bot/pkg/l0/proto"
	"github.com/robotalks/l0bot/pkg/l0/sonar"
)

// Defaults.
const (
	DefaultInterval = 100 * time.Millisecond
	DefaultDevice   = "arduino_uno"
	DefaultMode     = "camera_only"
)

// Actuator applies a motor state to the hardware.
type Actuator interface {
	Apply(motor.State) error
}

// Sensor measures the distance in centimeters.
type Sensor interface {
	Measure() float64
}

// State is everything the loop mutates. It's owned by whoever calls
// Iterate and must not be shared.
type State struct {
	Motors   motor.State
	Distance float64
	Boot     time.Time
	LastRead time.Time
}

// Loop is the L0 control loop.
type Loop struct {
	Port     io.Writer
	Lines    *LineReader
	Motors   Actuator
	Sonar    Sensor
	Clock    clock.Clock
	Interval time.Duration
	Device   string
	Mode     string
}

// Start stops the motors and announces the firmware is ready.
// It must be called once before Iterate.
func (l *Loop) Start(s *State) error {
	now := l.clock().Now()
	*s = State{Distance: sonar.NoEcho, Boot: now, LastRead: now}
	l.apply(s.Motors)
	return l.emit(proto.Ready{Device: l.device(), Mode: l.mode()})
}

// Iterate runs one iteration of the loop. Only failures writing to or
// reading from the port are returned, protocol errors are reported to the
// host.
func (l *Loop) Iterate(s *State) error {
	if now := l.clock().Now(); now.Sub(s.LastRead) >= l.interval() {
		s.LastRead = now
		s.Distance = l.Sonar.Measure()
		if err := l.emit(l.telemetry(s)); err != nil {
			return err
		}
	}

	line, ok, err := l.Lines.Poll()
	if err != nil {
		if errors.Is(err, proto.ErrMalformed) {
			return l.emit(proto.NewErrorReply(err))
		}
		return fmt.Errorf("read: %w", err)
	}
	if !ok {
		return nil
	}
	cmd, err := proto.ParseLine(line)
	if err != nil {
		glog.V(2).Infof("rejected %q: %v", line, err)
		return l.emit(proto.NewErrorReply(err))
	}
	if cmd == nil {
		return nil
	}
	return l.dispatch(s, cmd)
}

func (l *Loop) dispatch(s *State, cmd proto.Command) error {
	glog.V(3).Infof("command %s %+v", cmd.Name(), cmd)
	switch c := cmd.(type) {
	case proto.Move:
		s.Motors = motor.State{Left: motor.Duty(c.Left), Right: motor.Duty(c.Right)}.Clamp()
		l.apply(s.Motors)
		return l.emit(proto.Ack{Cmd: proto.NameMove})
	case proto.Stop:
		s.Motors = motor.State{}
		l.apply(s.Motors)
		return l.emit(proto.Ack{Cmd: proto.NameStop})
	case proto.SetSpeed:
		// speed is only set through MOVE.
		return l.emit(proto.Ack{Cmd: proto.NameSetSpeed})
	case proto.GetSensors:
		return l.emit(l.telemetry(s))
	case proto.Ping:
		return l.emit(proto.Ack{Cmd: proto.AckPong})
	}
	return l.emit(proto.NewErrorReply(&proto.UnknownCommandError{Cmd: cmd.Name()}))
}

// Run starts the loop and iterates until ctx is done or the port fails.
// The motors are stopped on the way out.
func (l *Loop) Run(ctx context.Context) error {
	l.Lines.Start(ctx)
	var s State
	if err := l.Start(&s); err != nil {
		return err
	}
	defer l.apply(motor.State{})
	glog.Infof("%s ready (%s), sensor interval %v", l.device(), l.mode(), l.interval())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := l.Iterate(&s); err != nil {
			return err
		}
	}
}

func (l *Loop) telemetry(s *State) proto.Telemetry {
	return proto.Telemetry{
		Distance:   proto.Centimeters(s.Distance),
		LeftSpeed:  int16(s.Motors.Left),
		RightSpeed: int16(s.Motors.Right),
		Uptime:     l.clock().Now().Sub(s.Boot).Milliseconds(),
		Mode:       l.mode(),
	}
}

func (l *Loop) apply(state motor.State) {
	if err := l.Motors.Apply(state); err != nil {
		glog.Errorf("apply motors %s: %v", state, err)
	}
}

func (l *Loop) emit(resp proto.Response) error {
	if err := proto.Encode(l.Port, resp); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (l *Loop) clock() clock.Clock {
	if l.Clock != nil {
		return l.Clock
	}
	return clock.System
}

func (l *Loop) interval() time.Duration {
	if l.Interval > 0 {
		return l.Interval
	}
	return DefaultInterval
}

func (l *Loop) device() string {
	if l.Device != "" {
		return l.Device
	}
	return DefaultDevice
}

func (l *Loop) mode() string {
	if l.Mode != "" {
		return l.Mode
	}
	return DefaultMode
}
