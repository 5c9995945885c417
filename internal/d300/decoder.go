package d300

import (
	"bufio"
	"encoding/binary"
	"io"
)

// scanLine is a raw sample as it appears on the wire, before the azimuth
// has been interpolated. It never leaves the decode loop.
type scanLine struct {
	distance  uint16
	intensity uint8
}

// Decoder reads D300 frames from a byte stream. It takes exclusive
// ownership of the reader: interleaving other reads on the same stream
// will lose frame alignment.
//
// Opening and configuring the transport (serial port, baud rate, read
// timeout) is the caller's responsibility; see internal/serialport.
type Decoder struct {
	r       *bufio.Reader
	scratch [2]byte
}

// NewDecoder returns a Decoder reading from r. The reader is wrapped in a
// bufio.Reader, so r itself does not need to be buffered.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

func (d *Decoder) readUint16() (uint16, error) {
	if _, err := io.ReadFull(d.r, d.scratch[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(d.scratch[:]), nil
}

// ReadFrame decodes exactly one frame, blocking on the underlying reader
// as needed. Bytes are discarded until the sync byte is found, so the
// decoder recovers from a stream that starts mid-frame.
//
// Any read failure, including end of input, aborts the decode and is
// returned unchanged; no partial frame is ever produced. The checksum byte
// is stored on the frame but not verified.
func (d *Decoder) ReadFrame() (*Frame, error) {
	// Sync: skip until the header byte. Anything before it is either
	// the tail of a frame we joined partway through or line noise.
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == SyncByte {
			break
		}
	}

	info, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	messageType := info >> 5
	count := int(info & 0x1F) // 5-bit field, structurally capped at 31

	speed, err := d.readUint16()
	if err != nil {
		return nil, err
	}

	startRaw, err := d.readUint16()
	if err != nil {
		return nil, err
	}
	startAngle := float64(startRaw) / angleScale

	lines := make([]scanLine, 0, count)
	for i := 0; i < count; i++ {
		distance, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		intensity, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		lines = append(lines, scanLine{distance: distance, intensity: intensity})
	}

	endRaw, err := d.readUint16()
	if err != nil {
		return nil, err
	}
	endAngle := float64(endRaw) / angleScale

	// Interpolate a per-sample azimuth across the frame. With a single
	// sample there is no span to divide, so the increment is defined as
	// zero and the point sits at the start angle.
	var increment float64
	if count > 1 {
		increment = (endAngle - startAngle) / float64(count-1)
	}

	points := make([]AngledScanLine, 0, count)
	for i, line := range lines {
		points = append(points, AngledScanLine{
			Distance:  int(line.distance),
			Intensity: int(line.intensity),
			Angle:     startAngle + increment*float64(i),
		})
	}

	timestamp, err := d.readUint16()
	if err != nil {
		return nil, err
	}
	checksum, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}

	return &Frame{
		Header:      SyncByte,
		MessageType: messageType,
		PointCount:  uint8(count),
		Speed:       speed,
		StartAngle:  startAngle,
		Points:      points,
		EndAngle:    endAngle,
		Timestamp:   timestamp,
		Checksum:    checksum,
	}, nil
}
