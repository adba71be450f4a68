// Package pipeline drives an extraction run: it pulls frames from a source,
// rectifies the slide quadrilateral out of each one, steps the capture
// machine, and persists whatever the machine emits.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/atticfilm/slidescan/internal/capture"
	"github.com/atticfilm/slidescan/internal/geometry"
	"github.com/atticfilm/slidescan/internal/monitoring"
	"github.com/atticfilm/slidescan/internal/report"
	"github.com/atticfilm/slidescan/internal/sink"
	"github.com/atticfilm/slidescan/internal/source"
	"github.com/atticfilm/slidescan/internal/store"
)

// Capture summarises one emitted slide.
type Capture struct {
	Index       int
	SourceFrame int
	Metric      float64
	Path        string
}

// Result is the outcome of a completed run.
type Result struct {
	FramesProcessed int
	Captures        []Capture
}

// Pipeline is a single-goroutine pull loop. The source may be backed by its
// own goroutines (the watch source is), but frames flow through the machine
// strictly one at a time, so the capture ordering is deterministic.
type Pipeline struct {
	src     source.Source
	machine *capture.Machine
	out     *sink.Dir

	corners geometry.Corners
	aspect  geometry.AspectRatio

	series    *report.Series
	metricLog io.Writer
	db        *store.Store
	sessionID string

	progressEvery int
}

// New builds a pipeline over the mandatory stages. Optional recording stages
// are attached afterwards.
func New(src source.Source, machine *capture.Machine, out *sink.Dir, corners geometry.Corners, aspect geometry.AspectRatio) *Pipeline {
	return &Pipeline{
		src:           src,
		machine:       machine,
		out:           out,
		corners:       corners,
		aspect:        aspect,
		progressEvery: 100,
	}
}

// AttachSeries records scored metrics and capture marks for reporting.
func (p *Pipeline) AttachSeries(s *report.Series) { p.series = s }

// AttachMetricLog streams one line per scored frame to w.
func (p *Pipeline) AttachMetricLog(w io.Writer) { p.metricLog = w }

// AttachStore records each capture under the given session.
func (p *Pipeline) AttachStore(db *store.Store, sessionID string) {
	p.db = db
	p.sessionID = sessionID
}

// SetProgressEvery changes the progress log interval. Zero disables it.
func (p *Pipeline) SetProgressEvery(n int) { p.progressEvery = n }

// Run processes the stream until the source is exhausted or ctx is
// cancelled. Frames already captured stay on disk either way.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		img, name, err := p.src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read frame: %w", err)
		}

		frame, err := geometry.Rectify(img, p.corners, p.aspect)
		if err != nil {
			return res, fmt.Errorf("rectify %s: %w", name, err)
		}

		ev, sample, err := p.machine.Step(frame)
		if err != nil {
			return res, fmt.Errorf("score %s: %w", name, err)
		}
		res.FramesProcessed++

		if sample.Scored {
			if p.series != nil {
				p.series.Add(res.FramesProcessed, sample.Metric)
			}
			if p.metricLog != nil {
				fmt.Fprintf(p.metricLog, "frame=%d name=%s metric=%.3f primed=%t\n",
					res.FramesProcessed, name, sample.Metric, p.machine.Primed())
			}
		}

		if ev != nil {
			path, err := p.out.Save(ev.Index, ev.Frame)
			if err != nil {
				return res, err
			}
			c := Capture{
				Index:       ev.Index,
				SourceFrame: ev.SourceFrame,
				Metric:      ev.Metric,
				Path:        path,
			}
			res.Captures = append(res.Captures, c)
			monitoring.Logf("capture %04d from frame %d (metric %.2f) -> %s",
				c.Index, c.SourceFrame, c.Metric, path)

			if p.series != nil {
				p.series.MarkCapture(res.FramesProcessed, *ev)
			}
			if p.db != nil {
				rec := &store.Capture{
					SessionID:   p.sessionID,
					Ordinal:     c.Index,
					SourceFrame: c.SourceFrame,
					Metric:      c.Metric,
					Path:        c.Path,
				}
				if err := p.db.RecordCapture(rec); err != nil {
					return res, err
				}
			}
		}

		if p.progressEvery > 0 && res.FramesProcessed%p.progressEvery == 0 {
			monitoring.Logf("processed %d frames, %d captures",
				res.FramesProcessed, p.machine.CaptureCount())
		}
	}

	return res, nil
}
