// Command d300stream decodes a D300 LiDAR byte stream from a serial port or
// a recorded capture, batches points by full rotation, and optionally
// persists batches to SQLite and/or records the raw stream for later
// replay.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/d300/internal/config"
	"github.com/banshee-data/d300/internal/d300"
	"github.com/banshee-data/d300/internal/recorder"
	"github.com/banshee-data/d300/internal/scandb"
	"github.com/banshee-data/d300/internal/serialport"
	"github.com/banshee-data/d300/internal/stats"
)

var (
	portPath    = flag.String("port", "", "serial port path (default from config, /dev/ttyUSB0)")
	baudRate    = flag.Int("baud", 0, "serial baud rate (default from config, 230400)")
	replayPath  = flag.String("replay", "", "replay a recorded capture directory instead of opening a serial port")
	rotations   = flag.Int("rotations", 0, "rotations per emitted batch (default from config, 1)")
	dbFile      = flag.String("db", "", "path to the SQLite scan database (empty: persistence disabled)")
	recordDir   = flag.String("record", "", "directory to record the raw byte stream into (empty: recording disabled)")
	configFile  = flag.String("config", "", "path to a capture config JSON file")
	logInterval = flag.Duration("log-interval", 0, "statistics logging interval (default from config, 5s)")
	readTimeout = flag.Duration("read-timeout", 0, "serial read timeout (0: block indefinitely)")
)

// batchStats tracks decode throughput between log ticks.
type batchStats struct {
	mu       sync.Mutex
	batches  int64
	points   int64
	lastSeen time.Time
}

func (bs *batchStats) AddBatch(points int) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.batches++
	bs.points += int64(points)
	bs.lastSeen = time.Now()
}

func (bs *batchStats) GetAndReset() (batches, points int64) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	batches = bs.batches
	points = bs.points
	bs.batches = 0
	bs.points = 0
	return
}

// openSource returns the byte stream to decode plus a human-readable
// description of it.
func openSource(cfg *config.CaptureConfig) (io.ReadCloser, string, error) {
	if *replayPath != "" {
		r, header, err := recorder.OpenCapture(*replayPath)
		if err != nil {
			return nil, "", err
		}
		log.Printf("Replaying capture from %s (%d bytes, recorded from %s)",
			*replayPath, header.TotalBytes, header.Device)
		return r, "replay:" + *replayPath, nil
	}

	path := cfg.GetPortPath()
	if *portPath != "" {
		path = *portPath
	}
	baud := cfg.GetBaudRate()
	if *baudRate != 0 {
		baud = *baudRate
	}

	port, err := serialport.Open(path, serialport.PortOptions{BaudRate: baud}, *readTimeout)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	log.Printf("Opened serial port %s at %d baud", path, baud)
	return port, path, nil
}

func main() {
	flag.Parse()

	cfg := &config.CaptureConfig{}
	if *configFile != "" {
		loaded, err := config.LoadCaptureConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	source, device, err := openSource(cfg)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer source.Close()

	// Optional raw recording sits on a tee between the source and the
	// decoder, so the capture holds exactly the bytes that were decoded.
	var reader io.Reader = source
	captureDir := cfg.GetCaptureDir()
	if *recordDir != "" {
		captureDir = *recordDir
	}
	if captureDir != "" {
		rec, err := recorder.NewRecorder(captureDir, device)
		if err != nil {
			log.Fatalf("Failed to start recorder: %v", err)
		}
		defer rec.Close()
		reader = io.TeeReader(source, rec)
		log.Printf("Recording raw stream to %s", rec.Path())
	}

	// Optional persistence.
	var sdb *scandb.ScanDB
	var sessionID string
	dbPath := cfg.GetDBPath()
	if *dbFile != "" {
		dbPath = *dbFile
	}
	if dbPath != "" {
		sdb, err = scandb.NewScanDB(dbPath)
		if err != nil {
			log.Fatalf("Failed to open scan database: %v", err)
		}
		defer sdb.Close()

		sessionID, err = sdb.BeginSession(device)
		if err != nil {
			log.Fatalf("Failed to begin session: %v", err)
		}
		log.Printf("Persisting rotations to %s (session %s)", dbPath, sessionID)
	}

	rotationsPerBatch := cfg.GetRotationsPerBatch()
	if *rotations != 0 {
		rotationsPerBatch = *rotations
	}

	interval := cfg.GetLogInterval()
	if *logInterval != 0 {
		interval = *logInterval
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The decode loop blocks in reads; closing the source on shutdown is
	// what unblocks it and ends the stream.
	go func() {
		<-ctx.Done()
		source.Close()
	}()

	bstats := &batchStats{}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				batches, points := bstats.GetAndReset()
				if batches > 0 {
					log.Printf("D300 stats: %d rotation batches, %d points in last %v",
						batches, points, interval)
				}
			}
		}
	}()

	stream := d300.NewDecoder(reader).Rotations(rotationsPerBatch)
	seq := 0
	for {
		batch, ok := stream.Next()
		if !ok {
			break
		}

		bstats.AddBatch(len(batch))
		summary := stats.Summarize(batch)
		log.Printf("Rotation %d: %d points, distance %.0f-%.0fmm (mean %.0f, stddev %.0f), mean intensity %.0f",
			seq, summary.Points, summary.MinDistance, summary.MaxDistance,
			summary.MeanDistance, summary.StdDevDist, summary.MeanIntensity)

		if sdb != nil {
			if _, err := sdb.InsertRotation(sessionID, seq, batch, summary); err != nil {
				log.Printf("Failed to store rotation %d: %v", seq, err)
			}
		}
		seq++
	}

	stop()
	wg.Wait()
	log.Printf("Stream ended after %d rotation batches", seq)
}
