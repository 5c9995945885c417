package d300

import "github.com/banshee-data/d300/internal/monitoring"

// The three sequence types below are stateful pull transforms chained over
// one decoder: each holds its source plus whatever accumulation state it
// needs, and exposes a single Next operation. Only one sequence should be
// derived from a given decoder at a time, since all of them advance the
// shared byte stream.

// FrameStream yields successive frames from a decoder. The first decode
// failure ends the stream permanently; the error itself is swallowed at
// this layer, so callers that need failure visibility should use
// Decoder.ReadFrame directly. A FrameStream is not restartable - decoding
// again requires a fresh transport.
type FrameStream struct {
	dec  *Decoder
	done bool
}

// Frames returns the frame-level sequence for this decoder.
func (d *Decoder) Frames() *FrameStream {
	return &FrameStream{dec: d}
}

// Next returns the next frame, or ok=false once the underlying stream has
// failed or ended.
func (s *FrameStream) Next() (*Frame, bool) {
	if s.done {
		return nil, false
	}
	frame, err := s.dec.ReadFrame()
	if err != nil {
		s.done = true
		monitoring.Logf("d300: frame stream ended: %v", err)
		return nil, false
	}
	return frame, true
}

// PointStream flattens the frame sequence into individual scan lines,
// preserving both frame arrival order and intra-frame sample order.
type PointStream struct {
	frames  *FrameStream
	pending []AngledScanLine
}

// Points returns the point-level sequence for this decoder.
func (d *Decoder) Points() *PointStream {
	return &PointStream{frames: d.Frames()}
}

// Next returns the next scan line, or ok=false when the frame stream ends.
func (s *PointStream) Next() (AngledScanLine, bool) {
	for len(s.pending) == 0 {
		frame, ok := s.frames.Next()
		if !ok {
			return AngledScanLine{}, false
		}
		s.pending = frame.Points
	}
	point := s.pending[0]
	s.pending = s.pending[1:]
	return point, true
}

// RotationStream accumulates scan lines until the summed angular sweep of
// the contributing frames crosses a whole number of rotations, then emits
// them as one batch. On emit the covered angle resets to exactly zero:
// sweep beyond the threshold is discarded rather than carried forward, so
// batch boundaries drift slightly relative to the physical rotation. Any
// partially accumulated batch is dropped when the stream ends.
type RotationStream struct {
	frames       *FrameStream
	targetAngle  float64
	pending      []AngledScanLine
	coveredAngle float64
}

// Rotations returns a sequence of point batches, each covering at least
// rotations full turns of the sensor. rotations values below 1 are
// treated as 1.
func (d *Decoder) Rotations(rotations int) *RotationStream {
	if rotations < 1 {
		rotations = 1
	}
	return &RotationStream{
		frames:      d.Frames(),
		targetAngle: float64(rotations) * 360.0,
	}
}

// Next returns the next complete rotation batch, or ok=false when the
// frame stream ends. The caller owns the returned slice.
func (s *RotationStream) Next() ([]AngledScanLine, bool) {
	for {
		frame, ok := s.frames.Next()
		if !ok {
			// Trailing partial rotation is never delivered.
			return nil, false
		}

		s.coveredAngle += frame.Sweep()
		s.pending = append(s.pending, frame.Points...)

		if s.coveredAngle >= s.targetAngle {
			batch := s.pending
			s.pending = nil
			s.coveredAngle = 0.0
			return batch, true
		}
	}
}
