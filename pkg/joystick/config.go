package joystick

import (
	"flag"

	"github.com/robotalks/l0bot/pkg/l1/link"
)

// Config defines the configurations for the controller.
type Config struct {
	DeviceIndex int
	Verbose     bool
	MaxSpeed    int
	Deadzone    int
}

var defaultConfig = Config{
	DeviceIndex: -1,
	MaxSpeed:    link.DefaultDriveSpeed,
	Deadzone:    3000,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "device", defaultConfig.DeviceIndex, "Device index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Print Joystick events.")
	flag.IntVar(&defaultConfig.MaxSpeed, "max-speed", defaultConfig.MaxSpeed, "Motor duty at full stick (0-255).")
	flag.IntVar(&defaultConfig.Deadzone, "deadzone", defaultConfig.Deadzone, "Axis values below this are treated as centered.")
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

// NewController creates a controller driving robot.
func (c *Config) NewController(robot link.Commander) *Controller {
	ctl := NewController(robot)
	ctl.DeviceIndex = c.DeviceIndex
	ctl.Verbose = c.Verbose
	ctl.MaxSpeed = c.MaxSpeed
	ctl.Deadzone = c.Deadzone
	return ctl
}
