// Package d300 decodes the binary telemetry stream emitted by the LDRobot
// D300 rotating LiDAR and exposes it at three levels: raw frames, individual
// angle-tagged scan lines, and full-rotation point batches.
//
// The sensor streams fixed-header frames continuously over a serial link.
// A Decoder owns the underlying byte stream exclusively; the frame, point
// and rotation sequences derived from it are pull-based and single-consumer,
// so no further bytes are read until the previously produced item has been
// consumed.
package d300

// D300 wire format constants. All multi-byte integers are little-endian.
const (
	// SyncByte is the fixed leading byte of every frame. The decoder
	// discards bytes until it sees one, which realigns the stream after
	// a mid-frame start or corruption.
	SyncByte = 0x54

	// MaxFramePoints is the structural upper bound on points per frame.
	// The point count is carried in a 5-bit field, so a frame can never
	// claim more than 31 samples.
	MaxFramePoints = 31

	// BytesPerPoint is the size of one sample tuple on the wire:
	// 2 bytes distance + 1 byte intensity.
	BytesPerPoint = 3

	// angleScale converts raw angle fields (centidegrees) to degrees.
	angleScale = 100.0
)

// Frame is one decoded telemetry unit: the fixed header fields plus the
// variable-length point payload. Frames are produced atomically by a single
// decode call and are not retained by the decoder.
type Frame struct {
	Header      uint8   // always SyncByte
	MessageType uint8   // top 3 bits of the info byte
	PointCount  uint8   // bottom 5 bits of the info byte (0-31)
	Speed       uint16  // rotation speed as reported by the sensor
	StartAngle  float64 // degrees, azimuth of the first sample
	Points      []AngledScanLine
	EndAngle    float64 // degrees, azimuth of the last sample
	Timestamp   uint16  // sensor timestamp field
	Checksum    uint8   // trailing checksum byte, stored but not verified
}

// AngledScanLine is a single distance sample tagged with its azimuth. The
// angle is derived once at decode time by linear interpolation between the
// frame's start and end angles; the value is immutable after that.
type AngledScanLine struct {
	Distance  int     // millimetres
	Intensity int     // return intensity (0-255)
	Angle     float64 // degrees
}

// Sweep returns the angular distance covered from StartAngle to EndAngle,
// accounting for the 0/360 boundary: a frame spanning 350 to 10 degrees
// covers 20 degrees, not -340.
func (f *Frame) Sweep() float64 {
	if f.EndAngle >= f.StartAngle {
		return f.EndAngle - f.StartAngle
	}
	return (360.0 - f.StartAngle) + f.EndAngle
}
