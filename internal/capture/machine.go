// Package capture holds the two-threshold state machine that turns a stream
// of rectified frames into discrete capture events.
//
// The machine starts primed. While primed, the configured policy watches for
// the metric to settle below the capture threshold and eventually emits one
// frame; emission de-primes the machine. It re-primes only after the metric
// spikes above the priming threshold, so oscillation around the capture
// threshold cannot produce duplicate captures of the same settled slide.
package capture

import (
	"image"

	"github.com/atticfilm/slidescan/internal/metric"
)

// Event is one emitted capture.
type Event struct {
	// Index is the 1-based capture ordinal, in emission order.
	Index int

	// Frame is the rectified frame chosen by the policy. Under the
	// backtracking policy this predates the frame that triggered emission.
	Frame *image.RGBA

	// SourceFrame is the 1-based index of the stream frame whose metric
	// triggered the emission.
	SourceFrame int

	// Metric is the metric value at emission.
	Metric float64
}

// Sample reports the metric computed for a stepped frame. The first frame of
// a stream is never scored; it only seeds the previous-frame slot.
type Sample struct {
	Metric float64
	Scored bool
}

// Machine runs the primed/not-primed capture logic over a frame stream. It is
// owned by a single processing loop and is not safe for concurrent use.
type Machine struct {
	scorer           metric.Scorer
	policy           Policy
	primingThreshold float64

	prev     *image.RGBA
	primed   bool
	frames   int
	captures int
}

// New builds a machine in the primed state.
func New(scorer metric.Scorer, policy Policy, primingThreshold float64) *Machine {
	return &Machine{
		scorer:           scorer,
		policy:           policy,
		primingThreshold: primingThreshold,
		primed:           true,
	}
}

// Step feeds the next rectified frame through the machine. The returned event
// is non-nil when a capture fires on this frame.
//
// Exactly one branch runs per scored frame: while primed the policy gets the
// frame (append-or-emit); while not primed only the re-prime check runs, and
// re-priming clears any policy lookback state.
func (m *Machine) Step(frame *image.RGBA) (*Event, Sample, error) {
	m.frames++

	if m.prev == nil {
		m.prev = frame
		return nil, Sample{}, nil
	}

	value, err := m.scorer.Score(m.prev, frame)
	if err != nil {
		return nil, Sample{}, err
	}
	m.prev = frame

	var ev *Event
	if m.primed {
		if chosen, ok := m.policy.Observe(frame, value); ok {
			m.captures++
			ev = &Event{
				Index:       m.captures,
				Frame:       chosen,
				SourceFrame: m.frames,
				Metric:      value,
			}
			m.primed = false
			m.policy.Reset()
		}
	} else if value > m.primingThreshold {
		m.policy.Reset()
		m.primed = true
	}

	return ev, Sample{Metric: value, Scored: true}, nil
}

// Primed reports the current hysteresis state.
func (m *Machine) Primed() bool { return m.primed }

// CaptureCount returns the number of captures emitted so far.
func (m *Machine) CaptureCount() int { return m.captures }

// FramesSeen returns the number of frames stepped so far.
func (m *Machine) FramesSeen() int { return m.frames }
