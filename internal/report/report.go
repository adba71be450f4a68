// Package report renders the per-frame metric trace of an extraction run,
// so threshold tuning can be done by looking at the signal instead of
// re-running the extraction blind.
package report

import (
	"github.com/atticfilm/slidescan/internal/capture"
)

// Series accumulates per-frame samples during a run. Not safe for
// concurrent use; the pipeline feeds it from a single goroutine.
type Series struct {
	frames   []int
	metrics  []float64
	captures []CaptureMark

	primingThreshold float64
	captureThreshold float64
}

// CaptureMark records where in the stream a slide was emitted.
type CaptureMark struct {
	Frame  int
	Index  int
	Metric float64
}

// NewSeries creates a series annotated with the thresholds in effect.
func NewSeries(primingThreshold, captureThreshold float64) *Series {
	return &Series{
		primingThreshold: primingThreshold,
		captureThreshold: captureThreshold,
	}
}

// Add records one scored frame.
func (s *Series) Add(frame int, metric float64) {
	s.frames = append(s.frames, frame)
	s.metrics = append(s.metrics, metric)
}

// MarkCapture records an emission event against the series.
func (s *Series) MarkCapture(frame int, ev capture.Event) {
	s.captures = append(s.captures, CaptureMark{
		Frame:  frame,
		Index:  ev.Index,
		Metric: ev.Metric,
	})
}

// Len returns the number of scored samples recorded.
func (s *Series) Len() int { return len(s.frames) }

// Captures returns the recorded emission marks.
func (s *Series) Captures() []CaptureMark { return s.captures }
