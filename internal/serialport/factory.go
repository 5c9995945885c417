package serialport

import (
	"time"

	"go.bug.st/serial"
)

// Open opens the serial port at path with the given options and, when
// timeout is non-zero, arms a read timeout on it. The returned port
// satisfies TimeoutPorter and is suitable as the byte source for a
// d300.Decoder.
func Open(path string, opts PortOptions, timeout time.Duration) (serial.Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		if err := port.SetReadTimeout(timeout); err != nil {
			port.Close()
			return nil, err
		}
	}

	return port, nil
}
