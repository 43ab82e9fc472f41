package link

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the part of serial.Port used by the Driver.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// OpenSerial opens a serial port in 8N1 mode.
func OpenSerial(name string, baudRate int) (Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return port, nil
}

// Ports lists the serial ports of the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
