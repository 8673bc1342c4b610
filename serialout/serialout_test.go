package serialout

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestNormalizeDefaults(t *testing.T) {
	got, err := PortOptions{}.Normalize()

	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "N"}, got)
}

func TestNormalize(t *testing.T) {

	tests := []struct {
		name    string
		opts    PortOptions
		parity  string
		wantErr bool
	}{
		{name: "even", opts: PortOptions{Parity: "even"}, parity: "E"},
		{name: "odd padded", opts: PortOptions{Parity: " o "}, parity: "O"},
		{name: "none", opts: PortOptions{Parity: "NONE"}, parity: "N"},
		{name: "bad parity", opts: PortOptions{Parity: "mark"}, wantErr: true},
		{name: "bad data bits", opts: PortOptions{DataBits: 9}, wantErr: true},
		{name: "bad stop bits", opts: PortOptions{StopBits: 3}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.opts.Normalize()

			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.parity, got.Parity)
		})
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 115200, StopBits: 2, Parity: "E"}.SerialMode()

	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.EvenParity,
		StopBits: serial.TwoStopBits,
	}, mode)
}

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

func TestOpenWith(t *testing.T) {
	port := &bufferPort{}
	var gotPath string
	var gotMode *serial.Mode

	open := func(path string, mode *serial.Mode) (io.WriteCloser, error) {
		gotPath = path
		gotMode = mode
		return port, nil
	}

	w, err := OpenWith(open, "/dev/ttyUSB0", PortOptions{})
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", gotPath)
	assert.Equal(t, 9600, gotMode.BaudRate)

	_, err = io.WriteString(w, "1\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "1\n", port.String())
	assert.True(t, port.closed)
}

func TestOpenWithErrors(t *testing.T) {
	failing := func(string, *serial.Mode) (io.WriteCloser, error) {
		return nil, errors.New("no such device")
	}

	_, err := OpenWith(failing, "/dev/ttyUSB9", PortOptions{})
	assert.ErrorContains(t, err, "no such device")

	_, err = OpenWith(failing, "", PortOptions{})
	assert.Error(t, err)

	_, err = OpenWith(failing, "/dev/ttyUSB0", PortOptions{Parity: "x"})
	assert.ErrorContains(t, err, "invalid serial options")
}
