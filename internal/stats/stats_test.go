package stats

import (
	"math"
	"testing"

	"github.com/banshee-data/d300/internal/d300"
)

func TestSummarizeKnownValues(t *testing.T) {
	points := []d300.AngledScanLine{
		{Distance: 1000, Intensity: 100, Angle: 0},
		{Distance: 2000, Intensity: 200, Angle: 1},
		{Distance: 3000, Intensity: 150, Angle: 2},
	}

	s := Summarize(points)

	if s.Points != 3 {
		t.Errorf("Points = %d, want 3", s.Points)
	}
	if s.MinDistance != 1000 || s.MaxDistance != 3000 {
		t.Errorf("range = [%v, %v], want [1000, 3000]", s.MinDistance, s.MaxDistance)
	}
	if s.MeanDistance != 2000 {
		t.Errorf("MeanDistance = %v, want 2000", s.MeanDistance)
	}
	if s.MeanIntensity != 150 {
		t.Errorf("MeanIntensity = %v, want 150", s.MeanIntensity)
	}
	// Sample standard deviation of {1000, 2000, 3000} is exactly 1000.
	if math.Abs(s.StdDevDist-1000) > 1e-9 {
		t.Errorf("StdDevDist = %v, want 1000", s.StdDevDist)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero Summary", s)
	}
}

func TestSummarizeSinglePoint(t *testing.T) {
	s := Summarize([]d300.AngledScanLine{{Distance: 2803, Intensity: 200}})
	if s.StdDevDist != 0 {
		t.Errorf("StdDevDist = %v, want 0 for single point", s.StdDevDist)
	}
	if s.MeanDistance != 2803 {
		t.Errorf("MeanDistance = %v, want 2803", s.MeanDistance)
	}
}
