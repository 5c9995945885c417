// Package stats summarises rotation batches for operator logging and
// persistence.
package stats

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/d300/internal/d300"
)

// Summary describes one rotation batch. Distances are in millimetres, as
// reported by the sensor.
type Summary struct {
	Points        int
	MinDistance   float64
	MaxDistance   float64
	MeanDistance  float64
	StdDevDist    float64
	MeanIntensity float64
}

// Summarize computes a Summary over a rotation batch. An empty batch yields
// the zero Summary.
func Summarize(points []d300.AngledScanLine) Summary {
	if len(points) == 0 {
		return Summary{}
	}

	distances := make([]float64, len(points))
	intensities := make([]float64, len(points))
	s := Summary{
		Points:      len(points),
		MinDistance: float64(points[0].Distance),
		MaxDistance: float64(points[0].Distance),
	}

	for i, p := range points {
		d := float64(p.Distance)
		distances[i] = d
		intensities[i] = float64(p.Intensity)
		if d < s.MinDistance {
			s.MinDistance = d
		}
		if d > s.MaxDistance {
			s.MaxDistance = d
		}
	}

	s.MeanDistance = stat.Mean(distances, nil)
	s.MeanIntensity = stat.Mean(intensities, nil)
	if len(distances) > 1 {
		s.StdDevDist = stat.StdDev(distances, nil)
	}

	return s
}
