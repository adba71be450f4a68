// Package metric turns rectified frames into the scalar activity signal the
// capture machine thresholds against.
package metric

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
)

// Mode selects the frame scoring strategy.
type Mode string

const (
	// ModeDiff scores the mean squared luminance difference against the
	// previous rectified frame. Low values mean the feed has settled.
	ModeDiff Mode = "diff"

	// ModeBrightness scores the mean luminance of the current frame alone.
	// Low values mean the projector has gone dark mid-transition.
	ModeBrightness Mode = "brightness"

	// ModePHash scores the perceptual-hash Hamming distance against the
	// previous frame. Behaves like ModeDiff for thresholding purposes but is
	// robust to exposure flicker.
	ModePHash Mode = "phash"
)

// Scorer computes a non-negative activity value for a frame. Implementations
// are pure; any history they need arrives via prev.
type Scorer interface {
	// Score computes the metric for cur. prev is the previous rectified
	// frame; scorers that don't need it ignore it.
	Score(prev, cur *image.RGBA) (float64, error)

	// NeedsPrev reports whether Score requires a previous frame. The
	// machine never scores the first frame of a stream either way.
	NeedsPrev() bool
}

// New returns the Scorer for a mode.
func New(mode Mode) (Scorer, error) {
	switch mode {
	case ModeDiff:
		return Diff{}, nil
	case ModeBrightness:
		return Brightness{}, nil
	case ModePHash:
		return PHash{}, nil
	default:
		return nil, fmt.Errorf("unknown metric mode %q", mode)
	}
}

// Diff is the mean squared luminance difference scorer.
type Diff struct{}

func (Diff) NeedsPrev() bool { return true }

func (Diff) Score(prev, cur *image.RGBA) (float64, error) {
	if prev == nil {
		return 0, fmt.Errorf("diff metric requires a previous frame")
	}
	pb, cb := prev.Bounds(), cur.Bounds()
	if pb.Dx() != cb.Dx() || pb.Dy() != cb.Dy() {
		return 0, fmt.Errorf("frame size changed: %dx%d vs %dx%d", pb.Dx(), pb.Dy(), cb.Dx(), cb.Dy())
	}

	var sum float64
	n := cb.Dx() * cb.Dy()
	for y := 0; y < cb.Dy(); y++ {
		for x := 0; x < cb.Dx(); x++ {
			d := luma(cur, x, y) - luma(prev, x, y)
			sum += d * d
		}
	}
	return sum / float64(n), nil
}

// Brightness is the mean luminance scorer.
type Brightness struct{}

func (Brightness) NeedsPrev() bool { return false }

func (Brightness) Score(_, cur *image.RGBA) (float64, error) {
	b := cur.Bounds()
	var sum float64
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			sum += luma(cur, x, y)
		}
	}
	return sum / float64(b.Dx()*b.Dy()), nil
}

// PHash is the perceptual-hash distance scorer.
type PHash struct{}

func (PHash) NeedsPrev() bool { return true }

func (PHash) Score(prev, cur *image.RGBA) (float64, error) {
	if prev == nil {
		return 0, fmt.Errorf("phash metric requires a previous frame")
	}
	ph, err := goimagehash.PerceptionHash(prev)
	if err != nil {
		return 0, fmt.Errorf("hash previous frame: %w", err)
	}
	ch, err := goimagehash.PerceptionHash(cur)
	if err != nil {
		return 0, fmt.Errorf("hash current frame: %w", err)
	}
	dist, err := ph.Distance(ch)
	if err != nil {
		return 0, fmt.Errorf("hash distance: %w", err)
	}
	return float64(dist), nil
}

// luma returns the Rec. 601 luminance of the pixel at (x, y).
func luma(img *image.RGBA, x, y int) float64 {
	i := img.PixOffset(x+img.Rect.Min.X, y+img.Rect.Min.Y)
	r := float64(img.Pix[i])
	g := float64(img.Pix[i+1])
	b := float64(img.Pix[i+2])
	return 0.299*r + 0.587*g + 0.114*b
}
