package link

import (
	"flag"
	"os"
	"time"
)

// Config defines how the host reaches the firmware.
type Config struct {
	Port              string
	BaudRate          int
	ReadTimeout       time.Duration
	ReplyTimeout      time.Duration
	BootDelay         time.Duration
	ReconnectInterval time.Duration
}

var defaultConfig = Config{
	Port:              "/dev/ttyACM0",
	BaudRate:          115200,
	ReadTimeout:       100 * time.Millisecond,
	ReplyTimeout:      DefaultTimeout,
	BootDelay:         2 * time.Second,
	ReconnectInterval: 2 * time.Second,
}

func init() {
	if val := os.Getenv("L1_SERIAL"); val != "" {
		defaultConfig.Port = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the firmware.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.ReplyTimeout, "reply-timeout", defaultConfig.ReplyTimeout, "Max wait for a command reply.")
	flag.DurationVar(&defaultConfig.BootDelay, "boot-delay", defaultConfig.BootDelay, "Wait after opening the port, the board resets on open.")
	flag.DurationVar(&defaultConfig.ReconnectInterval, "reconnect", defaultConfig.ReconnectInterval, "Reconnect interval, 0 to give up on the first failure.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewDriver creates a Driver using current config.
func (c *Config) NewDriver() *Driver {
	return &Driver{Config: c, Open: OpenSerial}
}
