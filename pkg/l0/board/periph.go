package board

import (
	"fmt"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/robotalks/l0bot/pkg/l0/clock"
	"github.com/robotalks/l0bot/pkg/l0/firmware"
	"github.com/robotalks/l0bot/pkg/l0/motor"
	"github.com/robotalks/l0bot/pkg/l0/sonar"
)

func openPeriph(c *Config) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}
	pins, err := lookupPins(c.Pins)
	if err != nil {
		return nil, err
	}
	if err := pins["trigger"].Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}

	port, err := OpenSerial(c.SerialPort, c.BaudRate)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(c.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("serial %s: %w", c.SerialPort, err)
	}

	return &Board{
		Config: c,
		Clock:  clock.System,
		Motors: &motor.Actuator{
			Left: motor.Pins{
				Forward: pins["left-fwd"],
				Reverse: pins["left-rev"],
				Enable:  pins["left-pwm"],
			},
			Right: motor.Pins{
				Forward: pins["right-fwd"],
				Reverse: pins["right-rev"],
				Enable:  pins["right-pwm"],
			},
			Frequency: c.PWMFrequency,
		},
		Sonar: &sonar.Reader{
			Trigger: pins["trigger"],
			Echo:    pins["echo"],
			Clock:   clock.System,
			Timeout: c.EchoTimeout,
		},
		Port:   port,
		Lines:  firmware.NewLineReader(port, true),
		closer: port,
	}, nil
}

func lookupPins(names PinNames) (map[string]gpio.PinIO, error) {
	roles := []struct {
		role, name string
	}{
		{"left-fwd", names.LeftForward},
		{"left-rev", names.LeftReverse},
		{"left-pwm", names.LeftEnable},
		{"right-fwd", names.RightForward},
		{"right-rev", names.RightReverse},
		{"right-pwm", names.RightEnable},
		{"trigger", names.Trigger},
		{"echo", names.Echo},
	}
	pins := make(map[string]gpio.PinIO, len(roles))
	for _, r := range roles {
		p := gpioreg.ByName(r.name)
		if p == nil {
			return nil, &PinNotFoundError{Role: r.role, Name: r.name}
		}
		pins[r.role] = p
	}
	return pins, nil
}

// OpenSerial opens a serial port in 8N1 mode and drops whatever was
// received before.
func OpenSerial(name string, baudRate int) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("serial %s: %w", name, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("serial %s: %w", name, err)
	}
	return port, nil
}
