package capture

import (
	"image"
	"math"
)

// Policy decides, once per scored frame while the machine is primed, whether
// a capture fires and which rectified frame it should contain.
type Policy interface {
	// Observe consumes the current rectified frame and its metric value.
	// When it returns ok, the returned frame is the one to emit; the
	// machine then de-primes and calls Reset.
	Observe(frame *image.RGBA, metric float64) (*image.RGBA, bool)

	// Reset clears accumulated state. Called on emission and whenever the
	// machine re-primes.
	Reset()
}

// StabilityCount emits the current frame after a run of consecutive frames
// whose metric stays below the capture threshold. Used with difference-style
// metrics, where a settled slide reads as a stretch of near-zero activity.
type StabilityCount struct {
	captureThreshold float64
	framesRequired   int
	stable           int
}

// NewStabilityCount builds the policy. framesRequired is the length of the
// stable run needed before emission; the capture fires on the frame that
// pushes the run past it.
func NewStabilityCount(captureThreshold float64, framesRequired int) *StabilityCount {
	return &StabilityCount{
		captureThreshold: captureThreshold,
		framesRequired:   framesRequired,
	}
}

func (p *StabilityCount) Observe(frame *image.RGBA, metric float64) (*image.RGBA, bool) {
	if metric >= p.captureThreshold {
		p.stable = 0
		return nil, false
	}
	p.stable++
	if p.stable <= p.framesRequired {
		return nil, false
	}
	p.stable = 0
	return frame, true
}

func (p *StabilityCount) Reset() { p.stable = 0 }

// Backtracking keeps a bounded FIFO of the most recent rectified frames and,
// when the metric drops below the capture threshold with a full queue, emits
// the oldest one. The slide was fully visible before the transition to
// darkness began, so the sharpest frame sits at the head of the queue, not at
// the threshold crossing.
type Backtracking struct {
	captureThreshold float64
	depth            int
	queue            []*image.RGBA
}

// NewBacktracking builds the policy with the given lookback depth in frames.
func NewBacktracking(captureThreshold float64, depth int) *Backtracking {
	return &Backtracking{
		captureThreshold: captureThreshold,
		depth:            depth,
	}
}

// FramesToBacktrack converts a lookback duration in milliseconds to a frame
// count at the given frame rate, rounding up.
func FramesToBacktrack(fps float64, backtrackMS int) int {
	return int(math.Ceil(fps / 1000 * float64(backtrackMS)))
}

func (p *Backtracking) Observe(frame *image.RGBA, metric float64) (*image.RGBA, bool) {
	if len(p.queue) >= p.depth && metric < p.captureThreshold {
		if len(p.queue) == 0 {
			// Zero lookback: capture the triggering frame itself.
			return frame, true
		}
		return p.queue[0], true
	}
	p.queue = append(p.queue, frame)
	if len(p.queue) > p.depth {
		p.queue = p.queue[1:]
	}
	return nil, false
}

func (p *Backtracking) Reset() { p.queue = nil }

// QueueLen reports the current lookback fill level.
func (p *Backtracking) QueueLen() int { return len(p.queue) }
