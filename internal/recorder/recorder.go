// Package recorder provides recording and replay of raw D300 byte streams.
//
// A capture is a directory holding a JSON header plus numbered chunk files
// of raw sensor bytes. Because the wire format is self-framing via the sync
// byte, replay is simply re-reading the chunks in order and handing them to
// a decoder; no per-frame index is needed.
package recorder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ChunkExtension is the extension of raw capture chunk files.
const ChunkExtension = ".d300"

// HeaderFile is the name of the capture metadata file.
const HeaderFile = "capture.json"

// DefaultChunkBytes is the chunk rollover size. At 230400 baud the sensor
// produces roughly 20KB/s, so the default holds about a minute per chunk.
const DefaultChunkBytes = 1 << 20

// CaptureHeader describes a recorded capture.
type CaptureHeader struct {
	Version    string `json:"version"`
	Device     string `json:"device"`
	CreatedNs  int64  `json:"created_ns"`
	EndNs      int64  `json:"end_ns"`
	TotalBytes uint64 `json:"total_bytes"`
	Chunks     int    `json:"chunks"`
}

// Recorder writes a raw byte stream into a capture directory. It implements
// io.Writer so it can sit on the tee between the serial port and the
// decoder.
type Recorder struct {
	basePath   string
	chunkLimit int

	header      CaptureHeader
	chunkFile   *os.File
	chunkIndex  int
	chunkOffset int

	mu     sync.Mutex
	closed bool
}

// NewRecorder creates a capture directory at basePath and returns a
// Recorder writing into it. If basePath is empty, a timestamped directory
// is created under the system temp dir.
func NewRecorder(basePath, device string) (*Recorder, error) {
	if basePath == "" {
		basePath = filepath.Join(os.TempDir(), fmt.Sprintf("d300_%d", time.Now().Unix()))
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	return &Recorder{
		basePath:   basePath,
		chunkLimit: DefaultChunkBytes,
		chunkIndex: -1,
		header: CaptureHeader{
			Version:   "1.0",
			Device:    device,
			CreatedNs: time.Now().UnixNano(),
		},
	}, nil
}

// Path returns the capture directory.
func (r *Recorder) Path() string {
	return r.basePath
}

func chunkName(index int) string {
	return fmt.Sprintf("chunk_%05d%s", index, ChunkExtension)
}

func (r *Recorder) rotateChunk() error {
	if r.chunkFile != nil {
		if err := r.chunkFile.Close(); err != nil {
			return fmt.Errorf("failed to close chunk: %w", err)
		}
	}

	r.chunkIndex++
	f, err := os.Create(filepath.Join(r.basePath, chunkName(r.chunkIndex)))
	if err != nil {
		return fmt.Errorf("failed to create chunk %d: %w", r.chunkIndex, err)
	}
	r.chunkFile = f
	r.chunkOffset = 0
	return nil
}

// Write appends raw sensor bytes to the capture, rolling to a new chunk
// file at the configured size limit.
func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, fmt.Errorf("recorder is closed")
	}

	written := 0
	for len(p) > 0 {
		if r.chunkFile == nil || r.chunkOffset >= r.chunkLimit {
			if err := r.rotateChunk(); err != nil {
				return written, err
			}
		}

		room := r.chunkLimit - r.chunkOffset
		part := p
		if len(part) > room {
			part = part[:room]
		}

		n, err := r.chunkFile.Write(part)
		written += n
		r.chunkOffset += n
		r.header.TotalBytes += uint64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write chunk: %w", err)
		}

		p = p[n:]
	}

	return written, nil
}

// Close finishes the capture: the current chunk is flushed and the header
// is written. Further writes fail.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.chunkFile != nil {
		if err := r.chunkFile.Close(); err != nil {
			return fmt.Errorf("failed to close chunk: %w", err)
		}
	}

	r.header.EndNs = time.Now().UnixNano()
	r.header.Chunks = r.chunkIndex + 1

	data, err := json.MarshalIndent(r.header, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.basePath, HeaderFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// captureReader replays chunk files in order as one stream.
type captureReader struct {
	paths   []string
	current *os.File
	index   int
}

func (c *captureReader) Read(p []byte) (int, error) {
	for {
		if c.current == nil {
			if c.index >= len(c.paths) {
				return 0, io.EOF
			}
			f, err := os.Open(c.paths[c.index])
			if err != nil {
				return 0, err
			}
			c.current = f
			c.index++
		}

		n, err := c.current.Read(p)
		if err == io.EOF {
			c.current.Close()
			c.current = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *captureReader) Close() error {
	if c.current != nil {
		return c.current.Close()
	}
	return nil
}

// OpenCapture opens a recorded capture directory for replay. The returned
// reader yields the raw byte stream across all chunks in order, suitable
// for feeding straight into a d300.Decoder.
func OpenCapture(basePath string) (io.ReadCloser, *CaptureHeader, error) {
	data, err := os.ReadFile(filepath.Join(basePath, HeaderFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read capture header: %w", err)
	}

	var header CaptureHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to parse capture header: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(basePath, "chunk_*"+ChunkExtension))
	if err != nil {
		return nil, nil, err
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("capture %s has no chunk files", basePath)
	}
	sort.Strings(matches)

	return &captureReader{paths: matches}, &header, nil
}
