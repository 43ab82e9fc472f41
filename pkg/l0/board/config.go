package board

import (
	"flag"
	"os"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/l0bot/pkg/env"
	"github.com/robotalks/l0bot/pkg/l0/firmware"
	"github.com/robotalks/l0bot/pkg/l0/motor"
	"github.com/robotalks/l0bot/pkg/l0/sonar"
	"github.com/robotalks/l0bot/pkg/sim"
)

// Board kinds.
const (
	KindPeriph = "periph"
	KindSim    = "sim"
)

// PinNames maps the board lines to GPIO names understood by gpioreg.
type PinNames struct {
	LeftForward  string
	LeftReverse  string
	LeftEnable   string
	RightForward string
	RightReverse string
	RightEnable  string
	Trigger      string
	Echo         string
}

// Config defines how the firmware is wired to the board.
type Config struct {
	// Board is either KindPeriph or KindSim.
	Board string
	// ID identifies the board in logs, defaults to the machine ID.
	ID string

	SerialPort  string
	BaudRate    int
	ReadTimeout time.Duration

	Pins         PinNames
	PWMFrequency physic.Frequency
	EchoTimeout  time.Duration

	Interval time.Duration
	Device   string
	Mode     string

	// SimDistance is the obstacle distance (cm) reported by the simulated
	// sonar. Zero or negative means no echo.
	SimDistance float64
	// SimArena is the side (cm) of a square arena the simulated robot
	// drives in. When positive, the sonar sees the arena walls and
	// SimDistance is ignored.
	SimArena float64
	// SimMaxSpeed is the wheel speed (cm/s) at full duty in the arena.
	SimMaxSpeed float64
}

var defaultConfig = Config{
	Board:       KindPeriph,
	SerialPort:  "/dev/serial0",
	BaudRate:    115200,
	ReadTimeout: 10 * time.Millisecond,
	Pins: PinNames{
		LeftForward:  "GPIO17",
		LeftReverse:  "GPIO27",
		LeftEnable:   "GPIO12",
		RightForward: "GPIO23",
		RightReverse: "GPIO24",
		RightEnable:  "GPIO13",
		Trigger:      "GPIO5",
		Echo:         "GPIO6",
	},
	PWMFrequency: motor.DefaultFrequency,
	EchoTimeout:  sonar.DefaultTimeout,
	Interval:     firmware.DefaultInterval,
	Device:       firmware.DefaultDevice,
	Mode:         firmware.DefaultMode,
	SimDistance:  100,
	SimMaxSpeed:  sim.DefaultMaxSpeed,
}

func init() {
	if val := os.Getenv("L0_BOARD"); val != "" {
		defaultConfig.Board = val
	}
	if val := os.Getenv("L0_SERIAL"); val != "" {
		defaultConfig.SerialPort = val
	}
	defaultConfig.ID = env.ShortMachineID()
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Board, "board", defaultConfig.Board, "Board kind: periph or sim.")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Board ID used in logs.")
	flag.StringVar(&defaultConfig.SerialPort, "serial", defaultConfig.SerialPort, "Serial port to the host.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.ReadTimeout, "read-timeout", defaultConfig.ReadTimeout, "Serial read timeout, bounds each loop iteration.")
	flag.StringVar(&defaultConfig.Pins.LeftForward, "left-fwd", defaultConfig.Pins.LeftForward, "Left motor forward line.")
	flag.StringVar(&defaultConfig.Pins.LeftReverse, "left-rev", defaultConfig.Pins.LeftReverse, "Left motor reverse line.")
	flag.StringVar(&defaultConfig.Pins.LeftEnable, "left-pwm", defaultConfig.Pins.LeftEnable, "Left motor PWM line.")
	flag.StringVar(&defaultConfig.Pins.RightForward, "right-fwd", defaultConfig.Pins.RightForward, "Right motor forward line.")
	flag.StringVar(&defaultConfig.Pins.RightReverse, "right-rev", defaultConfig.Pins.RightReverse, "Right motor reverse line.")
	flag.StringVar(&defaultConfig.Pins.RightEnable, "right-pwm", defaultConfig.Pins.RightEnable, "Right motor PWM line.")
	flag.StringVar(&defaultConfig.Pins.Trigger, "trigger", defaultConfig.Pins.Trigger, "Sonar trigger line.")
	flag.StringVar(&defaultConfig.Pins.Echo, "echo", defaultConfig.Pins.Echo, "Sonar echo line.")
	flag.Var(&defaultConfig.PWMFrequency, "pwm-freq", "Motor PWM frequency, e.g. 1kHz.")
	flag.DurationVar(&defaultConfig.EchoTimeout, "echo-timeout", defaultConfig.EchoTimeout, "Sonar measurement timeout.")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Sensor interval.")
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Device name announced at startup.")
	flag.StringVar(&defaultConfig.Mode, "mode", defaultConfig.Mode, "Operating mode reported in telemetry.")
	flag.Float64Var(&defaultConfig.SimDistance, "sim-distance", defaultConfig.SimDistance, "Obstacle distance (cm) of the simulated sonar, <= 0 for no echo.")
	flag.Float64Var(&defaultConfig.SimArena, "sim-arena", defaultConfig.SimArena, "Side (cm) of the square arena of the simulated robot, 0 for a fixed obstacle.")
	flag.Float64Var(&defaultConfig.SimMaxSpeed, "sim-speed", defaultConfig.SimMaxSpeed, "Wheel speed (cm/s) of the simulated robot at full duty.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
