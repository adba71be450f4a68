package report

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTML renders the metric trace as an interactive ECharts page.
// Unlike the PNG this supports zooming into individual transitions, which
// is what threshold tuning actually needs on long runs.
func (s *Series) WriteHTML(path string) error {
	if len(s.frames) == 0 {
		return fmt.Errorf("no samples to chart")
	}

	x := make([]string, len(s.frames))
	metric := make([]opts.LineData, len(s.frames))
	priming := make([]opts.LineData, len(s.frames))
	captureT := make([]opts.LineData, len(s.frames))
	for i := range s.frames {
		x[i] = strconv.Itoa(s.frames[i])
		metric[i] = opts.LineData{Value: s.metrics[i]}
		priming[i] = opts.LineData{Value: s.primingThreshold}
		captureT[i] = opts.LineData{Value: s.captureThreshold}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Slide extraction metric",
			Theme:     "dark",
			Width:     "1400px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Frame metric",
			Subtitle: fmt.Sprintf("frames=%d captures=%d", len(s.frames), len(s.captures)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Metric"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	line.SetXAxis(x).
		AddSeries("metric", metric).
		AddSeries("priming threshold", priming).
		AddSeries("capture threshold", captureT)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
