package serialport

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestScriptedPortReadsPreloadedBytes(t *testing.T) {
	port := NewScriptedPort()
	port.AddBytes([]byte{0x54, 0x2C, 0x01})

	buf := make([]byte, 2)
	n, err := port.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 2 || buf[0] != 0x54 || buf[1] != 0x2C {
		t.Errorf("Read = %d bytes %v, want 2 bytes [54 2C]", n, buf[:n])
	}
	if port.ReadCalls != 1 {
		t.Errorf("ReadCalls = %d, want 1", port.ReadCalls)
	}
}

func TestScriptedPortReadError(t *testing.T) {
	port := NewScriptedPort()
	port.ReadError = io.ErrUnexpectedEOF

	if _, err := port.Read(make([]byte, 1)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want injected ErrUnexpectedEOF", err)
	}

	// The error is one-shot; a subsequent read sees the (empty) buffer.
	if _, err := port.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("second read err = %v, want io.EOF from empty buffer", err)
	}
}

func TestScriptedPortCloseUnblocksReader(t *testing.T) {
	port := NewScriptedPort()
	port.BlockReads = true

	done := make(chan error, 1)
	go func() {
		_, err := port.Read(make([]byte, 1))
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := port.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrPortClosed) {
			t.Errorf("blocked read err = %v, want ErrPortClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked read was not released by Close")
	}
}

func TestScriptedPortWriteCapture(t *testing.T) {
	port := NewScriptedPort()
	if _, err := port.Write([]byte("PM_STOP")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := string(port.Written()); got != "PM_STOP" {
		t.Errorf("Written = %q, want PM_STOP", got)
	}

	port.Close()
	if _, err := port.Write([]byte("x")); !errors.Is(err, ErrPortClosed) {
		t.Errorf("write after close err = %v, want ErrPortClosed", err)
	}
}
