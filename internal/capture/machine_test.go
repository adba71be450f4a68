package capture

import (
	"image"
	"testing"
)

// scriptScorer returns a scripted metric sequence, one value per scored
// frame, so machine tests control the signal exactly.
type scriptScorer struct {
	values []float64
	next   int
}

func (s *scriptScorer) Score(prev, cur *image.RGBA) (float64, error) {
	v := s.values[s.next]
	s.next++
	return v, nil
}

func (s *scriptScorer) NeedsPrev() bool { return true }

func frame(id uint8) *image.RGBA {
	f := image.NewRGBA(image.Rect(0, 0, 1, 1))
	f.Pix[0] = id
	f.Pix[3] = 0xff
	return f
}

// run steps one unscored seed frame followed by len(metrics) scored frames
// through the machine, returning emitted events and the scored frames.
func run(t *testing.T, m *Machine, metrics []float64) ([]*Event, []*image.RGBA) {
	t.Helper()

	if ev, sample, err := m.Step(frame(0)); err != nil || ev != nil || sample.Scored {
		t.Fatalf("first frame: ev=%v scored=%v err=%v, want seed only", ev, sample.Scored, err)
	}

	var events []*Event
	var frames []*image.RGBA
	for i := range metrics {
		f := frame(uint8(i + 1))
		frames = append(frames, f)
		ev, sample, err := m.Step(f)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !sample.Scored || sample.Metric != metrics[i] {
			t.Fatalf("step %d: sample=%+v, want scored metric %g", i, sample, metrics[i])
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events, frames
}

func TestBacktrackingEmitsOldestQueuedFrame(t *testing.T) {
	metrics := []float64{150, 120, 90, 40, 30}
	m := New(&scriptScorer{values: metrics}, NewBacktracking(50, 3), 100)

	events, frames := run(t, m, metrics)

	if len(events) != 1 {
		t.Fatalf("got %d captures, want 1", len(events))
	}
	ev := events[0]
	if ev.Index != 1 {
		t.Errorf("capture index = %d, want 1", ev.Index)
	}
	// The queue held the frames scored 150, 120, 90; the drop to 40 must
	// emit the oldest of those, not the dark trigger frame.
	if ev.Frame != frames[0] {
		t.Errorf("emitted wrong frame: got frame scored %g", metrics[indexOf(frames, ev.Frame)])
	}
	if ev.Metric != 40 {
		t.Errorf("emission metric = %g, want 40", ev.Metric)
	}
	if m.Primed() {
		t.Error("machine should be de-primed after capture")
	}
}

func indexOf(frames []*image.RGBA, f *image.RGBA) int {
	for i, c := range frames {
		if c == f {
			return i
		}
	}
	return -1
}

func TestBacktrackingQueueSlidesWhilePrimed(t *testing.T) {
	// Six bright frames with depth 3: the queue keeps only the newest
	// three, then the drop emits the fourth-from-last frame.
	metrics := []float64{200, 200, 200, 200, 200, 200, 10}
	m := New(&scriptScorer{values: metrics}, NewBacktracking(50, 3), 100)

	events, frames := run(t, m, metrics)

	if len(events) != 1 {
		t.Fatalf("got %d captures, want 1", len(events))
	}
	if events[0].Frame != frames[3] {
		t.Errorf("emitted frame %d, want 3 (oldest of the last three)", indexOf(frames, events[0].Frame))
	}
}

func TestHysteresisBlocksDuplicateCaptures(t *testing.T) {
	// After the first capture the metric oscillates around the capture
	// threshold without ever exceeding the priming threshold: no further
	// captures may fire until a priming spike arrives.
	metrics := []float64{200, 200, 200, 10, // prime-fill, then capture
		49, 51, 49, 51, 49, // oscillation below priming
		150, 200, 200, 10, // spike re-primes, second capture
	}
	m := New(&scriptScorer{values: metrics}, NewBacktracking(50, 2), 100)

	events, _ := run(t, m, metrics)

	if len(events) != 2 {
		t.Fatalf("got %d captures, want 2", len(events))
	}
	if events[0].SourceFrame >= events[1].SourceFrame {
		t.Errorf("captures out of order: %d then %d", events[0].SourceFrame, events[1].SourceFrame)
	}
	// The oscillating frames must not have produced the second capture.
	if events[1].SourceFrame != len(metrics)+1 {
		t.Errorf("second capture at frame %d, want %d", events[1].SourceFrame, len(metrics)+1)
	}
}

func TestStabilityCountEmission(t *testing.T) {
	// With two stable frames required, the capture fires on the third
	// consecutive frame below the threshold.
	metrics := []float64{1, 1, 1}
	m := New(&scriptScorer{values: metrics}, NewStabilityCount(3, 2), 50)

	events, frames := run(t, m, metrics)

	if len(events) != 1 {
		t.Fatalf("got %d captures, want 1", len(events))
	}
	if events[0].SourceFrame != 4 {
		t.Errorf("capture at stream frame %d, want 4 (third scored frame)", events[0].SourceFrame)
	}
	if events[0].Frame != frames[2] {
		t.Errorf("stability capture must emit the current frame")
	}
}

func TestStabilityCountInterruptedRun(t *testing.T) {
	// A spike above the capture threshold restarts the stable run.
	metrics := []float64{1, 1, 40, 1, 1, 1}
	m := New(&scriptScorer{values: metrics}, NewStabilityCount(3, 2), 50)

	events, _ := run(t, m, metrics)

	if len(events) != 1 {
		t.Fatalf("got %d captures, want 1", len(events))
	}
	// Run restarts after the 40: stable frames are at scored indexes 4,5,6,
	// so emission lands on stream frame 7.
	if events[0].SourceFrame != 7 {
		t.Errorf("capture at stream frame %d, want 7", events[0].SourceFrame)
	}
}

func TestSequentialNumbering(t *testing.T) {
	metrics := []float64{
		200, 200, 10, // capture 1
		200, 200, 10, // re-prime, capture 2
		200, 200, 10, // re-prime, capture 3
	}
	m := New(&scriptScorer{values: metrics}, NewBacktracking(50, 1), 100)

	events, _ := run(t, m, metrics)

	if len(events) != 3 {
		t.Fatalf("got %d captures, want 3", len(events))
	}
	for i, ev := range events {
		if ev.Index != i+1 {
			t.Errorf("capture %d has index %d, want %d", i, ev.Index, i+1)
		}
	}
	if m.CaptureCount() != 3 {
		t.Errorf("CaptureCount = %d, want 3", m.CaptureCount())
	}
}

func TestEndOfStreamDiscardsPartialQueue(t *testing.T) {
	// Only two bright frames with depth 3: the queue never fills and the
	// stream just ends. Nothing may be emitted or flushed.
	metrics := []float64{200, 200}
	policy := NewBacktracking(50, 3)
	m := New(&scriptScorer{values: metrics}, policy, 100)

	events, _ := run(t, m, metrics)

	if len(events) != 0 {
		t.Fatalf("got %d captures, want 0", len(events))
	}
	if policy.QueueLen() != 2 {
		t.Errorf("queue length = %d, want 2 retained then discarded", policy.QueueLen())
	}
}

func TestFirstFrameNeverCaptured(t *testing.T) {
	// Even with a metric script that would capture immediately, the first
	// frame only seeds prev.
	m := New(&scriptScorer{values: []float64{10}}, NewBacktracking(50, 0), 100)

	ev, sample, err := m.Step(frame(1))
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if ev != nil || sample.Scored {
		t.Fatal("first frame must not be scored or captured")
	}
	if m.FramesSeen() != 1 {
		t.Errorf("FramesSeen = %d, want 1", m.FramesSeen())
	}
}

func TestFramesToBacktrack(t *testing.T) {
	tests := []struct {
		fps  float64
		ms   int
		want int
	}{
		{30, 50, 2},   // 1.5 rounds up
		{25, 40, 1},   // exactly 1
		{60, 50, 3},   // exactly 3
		{30, 0, 0},    // zero lookback
		{29.97, 100, 3},
	}
	for _, tt := range tests {
		if got := FramesToBacktrack(tt.fps, tt.ms); got != tt.want {
			t.Errorf("FramesToBacktrack(%g, %d) = %d, want %d", tt.fps, tt.ms, got, tt.want)
		}
	}
}
