// Package scandb persists rotation batches to SQLite.
package scandb

import (
	"database/sql"
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/d300/internal/d300"
	"github.com/banshee-data/d300/internal/monitoring"
	"github.com/banshee-data/d300/internal/stats"
)

// ScanDB wraps the scan database connection.
type ScanDB struct {
	*sql.DB
}

// schema.sql defines the sessions and rotations tables.
//
//go:embed schema.sql
var schemaSQL string

// NewScanDB opens (creating if necessary) the scan database at path.
func NewScanDB(path string) (*ScanDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}

	monitoring.Logf("initialized scan database schema at %s", path)

	return &ScanDB{db}, nil
}

// BeginSession records the start of a decoder run and returns its id.
func (sdb *ScanDB) BeginSession(device string) (string, error) {
	id := uuid.New().String()
	_, err := sdb.Exec(
		`INSERT INTO sessions (session_id, device, started_unix_nanos) VALUES (?, ?, ?)`,
		id, device, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to begin session: %w", err)
	}
	return id, nil
}

// InsertRotation persists one rotation batch with its summary and returns
// the new rotation_id.
func (sdb *ScanDB) InsertRotation(sessionID string, seq int, points []d300.AngledScanLine, summary stats.Summary) (int64, error) {
	stmt := `INSERT INTO rotations
		(session_id, seq, recorded_unix_nanos, point_count,
		 min_distance_mm, max_distance_mm, mean_distance_mm, stddev_distance_mm, mean_intensity,
		 points_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := sdb.Exec(stmt,
		sessionID, seq, time.Now().UnixNano(), len(points),
		summary.MinDistance, summary.MaxDistance, summary.MeanDistance, summary.StdDevDist, summary.MeanIntensity,
		EncodePoints(points))
	if err != nil {
		return 0, fmt.Errorf("failed to insert rotation %d: %w", seq, err)
	}
	return res.LastInsertId()
}

// RotationPoints loads and unpacks the points of a stored rotation.
func (sdb *ScanDB) RotationPoints(sessionID string, seq int) ([]d300.AngledScanLine, error) {
	var blob []byte
	err := sdb.QueryRow(
		`SELECT points_blob FROM rotations WHERE session_id = ? AND seq = ?`,
		sessionID, seq).Scan(&blob)
	if err != nil {
		return nil, err
	}
	return DecodePoints(blob)
}

// CountRotations returns the number of batches stored for a session.
func (sdb *ScanDB) CountRotations(sessionID string) (int, error) {
	var n int
	err := sdb.QueryRow(
		`SELECT COUNT(*) FROM rotations WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

// Packed point layout: 6 bytes per point, all little-endian.
//   bytes 0-1: distance (u16, millimetres)
//   byte  2  : intensity (u8)
//   byte  3  : reserved (0)
//   bytes 4-5: angle (u16, centidegrees)
const packedPointSize = 6

// EncodePoints packs a rotation batch into the blob layout above.
func EncodePoints(points []d300.AngledScanLine) []byte {
	blob := make([]byte, len(points)*packedPointSize)
	for i, p := range points {
		off := i * packedPointSize
		binary.LittleEndian.PutUint16(blob[off:], uint16(p.Distance))
		blob[off+2] = uint8(p.Intensity)
		angle := math.Mod(p.Angle, 360.0)
		if angle < 0 {
			angle += 360.0
		}
		binary.LittleEndian.PutUint16(blob[off+4:], uint16(math.Round(angle*100)))
	}
	return blob
}

// DecodePoints unpacks a points blob. Angles are stored at the sensor's
// native centidegree resolution; interpolated fractions below 0.01 degrees
// are rounded away by EncodePoints.
func DecodePoints(blob []byte) ([]d300.AngledScanLine, error) {
	if len(blob)%packedPointSize != 0 {
		return nil, fmt.Errorf("points blob length %d is not a multiple of %d", len(blob), packedPointSize)
	}

	points := make([]d300.AngledScanLine, len(blob)/packedPointSize)
	for i := range points {
		off := i * packedPointSize
		points[i] = d300.AngledScanLine{
			Distance:  int(binary.LittleEndian.Uint16(blob[off:])),
			Intensity: int(blob[off+2]),
			Angle:     float64(binary.LittleEndian.Uint16(blob[off+4:])) / 100.0,
		}
	}
	return points, nil
}
