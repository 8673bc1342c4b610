// Package serialout opens the serial line the verification signal is
// written to.
package serialout

import (
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"
)

// DefaultBaudRate is the baud rate used when none is configured
const DefaultBaudRate = 9600

// PortOptions describes the serial connection parameters used when opening
// the signal port
type PortOptions struct {
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"`
}

// Normalize validates the options and applies defaults for any unset values
func (o PortOptions) Normalize() (PortOptions, error) {

	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}

	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}

	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))

	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}

	opts.Parity = parity

	return opts, nil
}

// SerialMode converts the port options into the serial.Mode used to open
// the port
func (o PortOptions) SerialMode() (*serial.Mode, error) {

	opts, err := o.Normalize()

	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
	}

	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}

	return mode, nil
}

// Opener opens a serial port at path with the given mode
type Opener func(path string, mode *serial.Mode) (io.WriteCloser, error)

// defaultOpener opens a real serial port
func defaultOpener(path string, mode *serial.Mode) (io.WriteCloser, error) {

	port, err := serial.Open(path, mode)

	if err != nil {
		return nil, err
	}

	return port, nil
}

// Open opens the serial port at path for writing signals
func Open(path string, opts PortOptions) (io.WriteCloser, error) {
	return OpenWith(defaultOpener, path, opts)
}

// OpenWith opens a port using the given opener
func OpenWith(open Opener, path string, opts PortOptions) (io.WriteCloser, error) {

	if path == "" {
		return nil, fmt.Errorf("no serial port configured")
	}

	mode, err := opts.SerialMode()

	if err != nil {
		return nil, fmt.Errorf("invalid serial options: %w", err)
	}

	port, err := open(path, mode)

	if err != nil {
		return nil, fmt.Errorf("error opening serial port %s: %w", path, err)
	}

	return port, nil
}

// Ports lists the serial ports available on the system
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
