// Package geometry maps a user-selected quadrilateral region of a source
// frame onto an axis-aligned rectangle with a configured aspect ratio.
package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidGeometry reports a corner set that cannot produce a usable
// rectified frame: non-positive target dimensions or collinear corners.
var ErrInvalidGeometry = errors.New("invalid corner geometry")

// Point is a position in source-frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Corners is the ordered corner set of the slide region: top-left, top-right,
// bottom-right, bottom-left. The order is load-bearing; a re-ordered set
// produces a mirrored or degenerate transform.
type Corners struct {
	TL Point
	TR Point
	BR Point
	BL Point
}

// ParseCorners decodes a JSON array of four [x, y] pairs in TL, TR, BR, BL
// order, the same form String renders for reuse in configs.
func ParseCorners(s string) (Corners, error) {
	var raw [][]float64
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Corners{}, fmt.Errorf("parse corners: %w", err)
	}
	if len(raw) != 4 {
		return Corners{}, fmt.Errorf("parse corners: need 4 points, got %d", len(raw))
	}
	pts := make([]Point, 4)
	for i, p := range raw {
		if len(p) != 2 {
			return Corners{}, fmt.Errorf("parse corners: point %d has %d coordinates", i, len(p))
		}
		pts[i] = Point{X: p[0], Y: p[1]}
	}
	return Corners{TL: pts[0], TR: pts[1], BR: pts[2], BL: pts[3]}, nil
}

// String renders the corner set back into the JSON array form accepted by
// ParseCorners.
func (c Corners) String() string {
	return fmt.Sprintf("[[%g, %g], [%g, %g], [%g, %g], [%g, %g]]",
		c.TL.X, c.TL.Y, c.TR.X, c.TR.Y, c.BR.X, c.BR.Y, c.BL.X, c.BL.Y)
}

func (c Corners) points() [4]Point {
	return [4]Point{c.TL, c.TR, c.BR, c.BL}
}

// AspectRatio is a positive W:H rational for the rectified output.
type AspectRatio struct {
	Num int
	Den int
}

// ParseAspectRatio parses a "W:H" string into an AspectRatio. Both terms must
// be positive integers.
func ParseAspectRatio(s string) (AspectRatio, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return AspectRatio{}, fmt.Errorf("aspect ratio %q: want format \"w:h\"", s)
	}
	num, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("aspect ratio %q: %w", s, err)
	}
	den, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("aspect ratio %q: %w", s, err)
	}
	if num <= 0 || den <= 0 {
		return AspectRatio{}, fmt.Errorf("aspect ratio %q: terms must be positive", s)
	}
	return AspectRatio{Num: num, Den: den}, nil
}

// Value returns the ratio as a float (width over height).
func (a AspectRatio) Value() float64 {
	return float64(a.Num) / float64(a.Den)
}

func (a AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", a.Num, a.Den)
}

// TargetSize derives the rectified output dimensions from the corner set and
// ratio: width spans the outermost left/right corner x-coordinates, height
// follows from the ratio. Returns ErrInvalidGeometry when either collapses
// to zero or below.
func TargetSize(c Corners, ar AspectRatio) (w, h int, err error) {
	left := c.TL.X
	if c.BL.X < left {
		left = c.BL.X
	}
	right := c.TR.X
	if c.BR.X > right {
		right = c.BR.X
	}
	w = int(right - left)
	h = int(float64(w) / ar.Value())
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: target size %dx%d", ErrInvalidGeometry, w, h)
	}
	return w, h, nil
}
