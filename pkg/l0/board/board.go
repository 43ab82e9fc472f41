// Package board wires the firmware loop to real or simulated hardware.
package board

import (
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/l0bot/pkg/l0/clock"
	"github.com/robotalks/l0bot/pkg/l0/firmware"
	"github.com/robotalks/l0bot/pkg/l0/motor"
	"github.com/robotalks/l0bot/pkg/l0/sonar"
)

// Board is an opened set of motor lines, sonar and host serial line.
type Board struct {
	Config *Config
	Clock  clock.Clock
	Motors firmware.Actuator
	Sonar  *sonar.Reader
	Port   io.Writer
	Lines  *firmware.LineReader

	closer io.Closer
	sim    *SimPins
}

// Open opens the board selected by the config.
func (c *Config) Open() (*Board, error) {
	var (
		b   *Board
		err error
	)
	switch c.Board {
	case KindPeriph:
		b, err = openPeriph(c)
	case KindSim:
		b, err = openSim(c, stdio{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoard, c.Board)
	}
	if err != nil {
		return nil, err
	}
	glog.Infof("board %s (%s) opened, serial %s", c.ID, c.Board, b.portName())
	return b, nil
}

// NewLoop creates the firmware loop running on the board.
func (b *Board) NewLoop() *firmware.Loop {
	return &firmware.Loop{
		Port:     b.Port,
		Lines:    b.Lines,
		Motors:   b.Motors,
		Sonar:    b.Sonar,
		Clock:    b.Clock,
		Interval: b.Config.Interval,
		Device:   b.Config.Device,
		Mode:     b.Config.Mode,
	}
}

// Close stops the motors and releases the serial line.
func (b *Board) Close() error {
	err := b.Motors.Apply(motor.State{})
	if b.closer != nil {
		if cerr := b.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (b *Board) portName() string {
	if b.Config.Board == KindSim {
		return "stdio"
	}
	return b.Config.SerialPort
}
