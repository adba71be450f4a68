package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WritePNG renders the metric trace to a PNG file. The two thresholds are
// drawn as horizontal rules and each emission as a glyph on the trace, so
// the hysteresis behaviour of a run can be read off a single image.
func (s *Series) WritePNG(path string) error {
	if len(s.frames) == 0 {
		return fmt.Errorf("no samples to plot")
	}

	p := plot.New()
	p.Title.Text = "Frame metric"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Metric"

	pts := make(plotter.XYs, len(s.frames))
	for i := range s.frames {
		pts[i] = plotter.XY{X: float64(s.frames[i]), Y: s.metrics[i]}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("metric line: %w", err)
	}
	line.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("metric", line)

	first := float64(s.frames[0])
	last := float64(s.frames[len(s.frames)-1])

	priming, err := thresholdLine(first, last, s.primingThreshold,
		color.RGBA{R: 200, G: 60, B: 60, A: 255})
	if err != nil {
		return err
	}
	p.Add(priming)
	p.Legend.Add("priming threshold", priming)

	captureL, err := thresholdLine(first, last, s.captureThreshold,
		color.RGBA{R: 60, G: 160, B: 60, A: 255})
	if err != nil {
		return err
	}
	p.Add(captureL)
	p.Legend.Add("capture threshold", captureL)

	if len(s.captures) > 0 {
		marks := make(plotter.XYs, len(s.captures))
		for i, c := range s.captures {
			marks[i] = plotter.XY{X: float64(c.Frame), Y: c.Metric}
		}
		scatter, err := plotter.NewScatter(marks)
		if err != nil {
			return fmt.Errorf("capture marks: %w", err)
		}
		scatter.GlyphStyle.Color = color.RGBA{R: 230, G: 140, B: 0, A: 255}
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("captures", scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save metric plot: %w", err)
	}
	return nil
}

func thresholdLine(x0, x1, y float64, c color.Color) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}})
	if err != nil {
		return nil, fmt.Errorf("threshold line: %w", err)
	}
	line.Color = c
	line.Width = vg.Points(1)
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	return line, nil
}
