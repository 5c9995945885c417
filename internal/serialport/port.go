// Package serialport opens and abstracts the serial link to a D300 sensor.
//
// The decoder in internal/d300 only needs an io.Reader; this package exists
// so callers can open a real port with sensible defaults, and so tests can
// substitute a scripted port without hardware.
package serialport

import (
	"io"
	"time"
)

// Porter is the minimal interface the rest of the module needs from a
// serial port. The D300 is read-only in normal operation, but Write is kept
// so the same abstraction covers sensors that accept commands.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutPorter extends Porter with a read timeout. go.bug.st/serial ports
// implement it; mocks may choose to. Timeout policy belongs to the
// transport, not to the decoder built on top of it.
type TimeoutPorter interface {
	Porter
	SetReadTimeout(timeout time.Duration) error
}
