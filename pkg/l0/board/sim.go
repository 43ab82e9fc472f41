package board

import (
	"io"
	"math"
	"os"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	fx "github.com/robotalks/l0bot/pkg/framework"
	"github.com/robotalks/l0bot/pkg/l0/clock"
	"github.com/robotalks/l0bot/pkg/l0/firmware"
	"github.com/robotalks/l0bot/pkg/l0/motor"
	"github.com/robotalks/l0bot/pkg/l0/sonar"
	"github.com/robotalks/l0bot/pkg/sim"
)

// SimEchoDelay is the time between the trigger and the rising edge of the
// simulated echo.
const SimEchoDelay = 450 * time.Microsecond

// SimEcho is a sonar echo line reflecting an obstacle at a configurable
// distance, or at the distance given by Range when set.
type SimEcho struct {
	Clock clock.Clock
	Range func() float64

	lock     sync.Mutex
	distance float64
	edge     gpio.Edge
}

// NewSimEcho creates a SimEcho with an obstacle at distance cm.
func NewSimEcho(clk clock.Clock, distance float64) *SimEcho {
	return &SimEcho{Clock: clk, distance: distance}
}

// SetDistance moves the obstacle, zero or negative removes it.
func (e *SimEcho) SetDistance(cm float64) {
	e.lock.Lock()
	e.distance = cm
	e.lock.Unlock()
}

// Distance returns the obstacle distance.
func (e *SimEcho) Distance() float64 {
	if e.Range != nil {
		return e.Range()
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.distance
}

// In implements sonar.EchoPin.
func (e *SimEcho) In(pull gpio.Pull, edge gpio.Edge) error {
	e.lock.Lock()
	e.edge = edge
	e.lock.Unlock()
	return nil
}

// WaitForEdge implements sonar.EchoPin.
func (e *SimEcho) WaitForEdge(timeout time.Duration) bool {
	distance := e.Distance()
	e.lock.Lock()
	edge := e.edge
	e.lock.Unlock()

	var wait time.Duration
	switch {
	case distance <= 0 || math.IsInf(distance, 1) || distance > 2*sonar.MaxDistance:
		wait = -1
	case edge == gpio.RisingEdge:
		wait = SimEchoDelay
	case edge == gpio.FallingEdge:
		wait = sonar.PulseFor(distance)
	default:
		wait = -1
	}
	if wait < 0 || wait > timeout {
		e.Clock.Sleep(timeout)
		return false
	}
	e.Clock.Sleep(wait)
	return true
}

// SimPins are the simulated lines of a sim board.
type SimPins struct {
	LeftForward  *gpiotest.Pin
	LeftReverse  *gpiotest.Pin
	LeftEnable   *gpiotest.Pin
	RightForward *gpiotest.Pin
	RightReverse *gpiotest.Pin
	RightEnable  *gpiotest.Pin
	Trigger      *gpiotest.Pin
	Echo         *SimEcho
	// Drive is the simulated robot, nil without an arena.
	Drive *sim.Drive
}

func newSimPins(names PinNames, clk clock.Clock, distance float64) *SimPins {
	return &SimPins{
		LeftForward:  &gpiotest.Pin{N: names.LeftForward},
		LeftReverse:  &gpiotest.Pin{N: names.LeftReverse},
		LeftEnable:   &gpiotest.Pin{N: names.LeftEnable},
		RightForward: &gpiotest.Pin{N: names.RightForward},
		RightReverse: &gpiotest.Pin{N: names.RightReverse},
		RightEnable:  &gpiotest.Pin{N: names.RightEnable},
		Trigger:      &gpiotest.Pin{N: names.Trigger},
		Echo:         NewSimEcho(clk, distance),
	}
}

// simMotors drives both the simulated lines and the simulated robot.
type simMotors struct {
	lines *motor.Actuator
	drive *sim.Drive
}

func (m *simMotors) Apply(s motor.State) error {
	var errs fx.AggregatedError
	errs.Add(m.lines.Apply(s))
	if m.drive != nil {
		errs.Add(m.drive.Apply(s))
	}
	return errs.Aggregate()
}

// Sim returns the simulated lines, nil unless the board is a sim board.
func (b *Board) Sim() *SimPins {
	return b.sim
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// openSim builds a board on simulated lines talking over rw. There's no
// read timeout, so lines are read in the background.
func openSim(c *Config, rw io.ReadWriter) (*Board, error) {
	return openSimWith(c, rw, clock.System)
}

func openSimWith(c *Config, rw io.ReadWriter, clk clock.Clock) (*Board, error) {
	pins := newSimPins(c.Pins, clk, c.SimDistance)
	motors := &simMotors{
		lines: &motor.Actuator{
			Left: motor.Pins{
				Forward: pins.LeftForward,
				Reverse: pins.LeftReverse,
				Enable:  pins.LeftEnable,
			},
			Right: motor.Pins{
				Forward: pins.RightForward,
				Reverse: pins.RightReverse,
				Enable:  pins.RightEnable,
			},
			Frequency: c.PWMFrequency,
		},
	}
	if c.SimArena > 0 {
		pins.Drive = sim.NewDrive(sim.NewArena(c.SimArena), clk, sim.Pose2D{})
		if c.SimMaxSpeed > 0 {
			pins.Drive.MaxSpeed = c.SimMaxSpeed
		}
		pins.Echo.Range = pins.Drive.Range
		motors.drive = pins.Drive
	}
	return &Board{
		Config: c,
		Clock:  clk,
		Motors: motors,
		Sonar: &sonar.Reader{
			Trigger: pins.Trigger,
			Echo:    pins.Echo,
			Clock:   clk,
			Timeout: c.EchoTimeout,
		},
		Port:  rw,
		Lines: firmware.NewLineReader(rw, false),
		sim:   pins,
	}, nil
}
