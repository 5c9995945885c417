package serialport

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// ErrPortClosed is returned by a ScriptedPort once Close has been called.
var ErrPortClosed = errors.New("serial port closed")

// ScriptedPort implements Porter with preloaded data and configurable
// failures, for testing stream behaviour without hardware.
type ScriptedPort struct {
	mu sync.Mutex

	// readBuffer holds bytes to be returned by Read calls.
	readBuffer *bytes.Buffer

	// writeBuffer captures anything written to the port.
	writeBuffer *bytes.Buffer

	// ReadError, when set, is returned by the next Read call and cleared.
	ReadError error

	// BlockReads causes Read to block on an empty buffer until data is
	// added or the port is closed, mimicking a live serial line.
	BlockReads bool

	closed   bool
	readCond *sync.Cond

	// ReadCalls counts Read invocations, for back-pressure assertions.
	ReadCalls int

	readTimeout time.Duration
}

// NewScriptedPort returns an empty ScriptedPort. Preload it with AddBytes.
func NewScriptedPort() *ScriptedPort {
	p := &ScriptedPort{
		readBuffer:  bytes.NewBuffer(nil),
		writeBuffer: bytes.NewBuffer(nil),
	}
	p.readCond = sync.NewCond(&p.mu)
	return p
}

func (p *ScriptedPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadCalls++

	if p.closed {
		return 0, ErrPortClosed
	}

	if p.ReadError != nil {
		err := p.ReadError
		p.ReadError = nil
		return 0, err
	}

	if p.BlockReads {
		for !p.closed && p.readBuffer.Len() == 0 {
			p.readCond.Wait()
		}
		if p.closed {
			return 0, ErrPortClosed
		}
	}

	return p.readBuffer.Read(buf)
}

func (p *ScriptedPort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	return p.writeBuffer.Write(buf)
}

// Close marks the port closed and wakes any blocked readers.
func (p *ScriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.readCond.Broadcast()
	return nil
}

// SetReadTimeout implements TimeoutPorter. The scripted port records the
// value but does not enforce it.
func (p *ScriptedPort) SetReadTimeout(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readTimeout = timeout
	return nil
}

// AddBytes appends data for subsequent Read calls and wakes a blocked
// reader.
func (p *ScriptedPort) AddBytes(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readBuffer.Write(data)
	p.readCond.Signal()
}

// Written returns everything written to the port so far.
func (p *ScriptedPort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.writeBuffer.Bytes()
}
