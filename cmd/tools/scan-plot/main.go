// Command scan-plot renders a rotation batch from a recorded D300 capture
// (or a raw byte dump) as a top-down point cloud. It can emit an interactive
// HTML chart via go-echarts, a static PNG via gonum/plot, or both.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/d300/internal/d300"
	"github.com/banshee-data/d300/internal/recorder"
	"github.com/banshee-data/d300/internal/stats"
)

var (
	capturePath = flag.String("capture", "", "recorded capture directory to read")
	rawPath     = flag.String("file", "", "raw byte dump to read instead of a capture directory")
	rotations   = flag.Int("rotations", 1, "rotations per plotted batch")
	skipBatches = flag.Int("skip", 0, "number of leading batches to skip before plotting")
	htmlOut     = flag.String("html", "", "output path for an interactive HTML chart")
	pngOut      = flag.String("png", "", "output path for a static PNG scatter plot")
)

// xyPoint is a decoded point projected from polar to cartesian metres.
type xyPoint struct {
	X, Y      float64
	Intensity int
}

func openInput() (io.ReadCloser, error) {
	if *capturePath != "" {
		r, header, err := recorder.OpenCapture(*capturePath)
		if err != nil {
			return nil, err
		}
		log.Printf("Capture %s: %d bytes from %s", *capturePath, header.TotalBytes, header.Device)
		return r, nil
	}
	if *rawPath != "" {
		return os.Open(*rawPath)
	}
	return nil, fmt.Errorf("one of -capture or -file is required")
}

// project converts a rotation batch to XY metres. Sensor distances are in
// millimetres with angle 0 along the +X axis, increasing counterclockwise.
func project(batch []d300.AngledScanLine) []xyPoint {
	points := make([]xyPoint, 0, len(batch))
	for _, p := range batch {
		if p.Distance == 0 {
			// Zero distance means no return at this angle.
			continue
		}
		theta := p.Angle * math.Pi / 180.0
		r := float64(p.Distance) / 1000.0
		points = append(points, xyPoint{
			X:         r * math.Cos(theta),
			Y:         r * math.Sin(theta),
			Intensity: p.Intensity,
		})
	}
	return points
}

func renderHTML(points []xyPoint, subtitle, path string) error {
	data := make([]opts.ScatterData, 0, len(points))
	maxAbs := 0.0
	maxIntensity := 0.0
	for _, p := range points {
		if math.Abs(p.X) > maxAbs {
			maxAbs = math.Abs(p.X)
		}
		if math.Abs(p.Y) > maxAbs {
			maxAbs = math.Abs(p.Y)
		}
		if float64(p.Intensity) > maxIntensity {
			maxIntensity = float64(p.Intensity)
		}
		data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y, p.Intensity}})
	}

	// Add a small padding so points at the edges are visible
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}
	if maxIntensity == 0 {
		maxIntensity = 1
	}

	// Force a square plot by using equal width/height and symmetric axis ranges
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "D300 Scan (Polar->XY)", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "D300 Rotation Scan", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxIntensity),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}},
		}),
	)

	scatter.AddSeries("scan", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scatter.Render(f)
}

func renderPNG(points []xyPoint, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	xys := make(plotter.XYs, 0, len(points))
	for _, pt := range points {
		xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
	}

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	scatter.Radius = vg.Points(1)
	p.Add(scatter)

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}

func main() {
	flag.Parse()

	if *htmlOut == "" && *pngOut == "" {
		log.Fatal("at least one of -html or -png is required")
	}

	input, err := openInput()
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer input.Close()

	stream := d300.NewDecoder(input).Rotations(*rotations)
	for i := 0; i < *skipBatches; i++ {
		if _, ok := stream.Next(); !ok {
			log.Fatalf("Stream ended after %d batches, cannot skip %d", i, *skipBatches)
		}
	}

	batch, ok := stream.Next()
	if !ok {
		log.Fatal("Stream ended before a full rotation batch was decoded")
	}

	summary := stats.Summarize(batch)
	log.Printf("Batch: %d points, distance %.0f-%.0fmm (mean %.0f), mean intensity %.0f",
		summary.Points, summary.MinDistance, summary.MaxDistance,
		summary.MeanDistance, summary.MeanIntensity)

	points := project(batch)
	subtitle := fmt.Sprintf("points=%d rotations=%d", len(points), *rotations)

	if *htmlOut != "" {
		if err := renderHTML(points, subtitle, *htmlOut); err != nil {
			log.Fatalf("Failed to render HTML chart: %v", err)
		}
		log.Printf("Wrote %s", *htmlOut)
	}

	if *pngOut != "" {
		if err := renderPNG(points, "D300 Rotation Scan", *pngOut); err != nil {
			log.Fatalf("Failed to render PNG plot: %v", err)
		}
		log.Printf("Wrote %s", *pngOut)
	}
}
