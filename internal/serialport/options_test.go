package serialport

import (
	"testing"

	"go.bug.st/serial"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if opts.BaudRate != 230400 {
		t.Errorf("BaudRate = %d, want 230400", opts.BaudRate)
	}
	if opts.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", opts.DataBits)
	}
	if opts.StopBits != 1 {
		t.Errorf("StopBits = %d, want 1", opts.StopBits)
	}
	if opts.Parity != "N" {
		t.Errorf("Parity = %q, want N", opts.Parity)
	}
}

func TestNormalizeParityForms(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "N"},
		{"none", "N"},
		{"even", "E"},
		{"E", "E"},
		{" odd ", "O"},
	}
	for _, tc := range cases {
		opts, err := PortOptions{Parity: tc.in}.Normalize()
		if err != nil {
			t.Errorf("Normalize(parity=%q): %v", tc.in, err)
			continue
		}
		if opts.Parity != tc.want {
			t.Errorf("Normalize(parity=%q) = %q, want %q", tc.in, opts.Parity, tc.want)
		}
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	if _, err := (PortOptions{DataBits: 9}).Normalize(); err == nil {
		t.Error("expected error for 9 data bits")
	}
	if _, err := (PortOptions{StopBits: 3}).Normalize(); err == nil {
		t.Error("expected error for 3 stop bits")
	}
	if _, err := (PortOptions{Parity: "M"}).Normalize(); err == nil {
		t.Error("expected error for mark parity")
	}
}

func TestSerialModeConversion(t *testing.T) {
	mode, err := PortOptions{BaudRate: 115200, Parity: "even"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode: %v", err)
	}

	if mode.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", mode.BaudRate)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("Parity = %v, want EvenParity", mode.Parity)
	}
	if mode.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", mode.DataBits)
	}
}
