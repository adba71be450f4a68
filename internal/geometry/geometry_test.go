package geometry

import (
	"errors"
	"testing"
)

func TestParseAspectRatio(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    AspectRatio
		wantErr bool
	}{
		{"landscape 3:2", "3:2", AspectRatio{3, 2}, false},
		{"classic 4:3", "4:3", AspectRatio{4, 3}, false},
		{"square", "1:1", AspectRatio{1, 1}, false},
		{"with spaces", " 16 : 9 ", AspectRatio{16, 9}, false},
		{"zero denominator", "3:0", AspectRatio{}, true},
		{"zero numerator", "0:2", AspectRatio{}, true},
		{"negative", "-3:2", AspectRatio{}, true},
		{"missing separator", "32", AspectRatio{}, true},
		{"too many terms", "3:2:1", AspectRatio{}, true},
		{"not a number", "a:b", AspectRatio{}, true},
		{"empty", "", AspectRatio{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAspectRatio(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAspectRatio(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAspectRatio(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAspectRatio(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCorners(t *testing.T) {
	c, err := ParseCorners("[[10, 20], [110, 22], [108, 95], [12, 93]]")
	if err != nil {
		t.Fatalf("ParseCorners: %v", err)
	}
	if c.TL != (Point{10, 20}) || c.TR != (Point{110, 22}) || c.BR != (Point{108, 95}) || c.BL != (Point{12, 93}) {
		t.Fatalf("unexpected corners: %+v", c)
	}
}

func TestParseCornersErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "corners"},
		{"three points", "[[0,0],[1,0],[1,1]]"},
		{"five points", "[[0,0],[1,0],[1,1],[0,1],[0,0]]"},
		{"three coordinates", "[[0,0,0],[1,0],[1,1],[0,1]]"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCorners(tt.input); err == nil {
				t.Fatalf("ParseCorners(%q) expected error", tt.input)
			}
		})
	}
}

func TestCornersStringRoundTrip(t *testing.T) {
	in := Corners{TL: Point{10, 20}, TR: Point{110, 22}, BR: Point{108, 95}, BL: Point{12, 93}}
	out, err := ParseCorners(in.String())
	if err != nil {
		t.Fatalf("ParseCorners(String()): %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestTargetSize(t *testing.T) {
	c := Corners{TL: Point{10, 10}, TR: Point{190, 12}, BR: Point{188, 130}, BL: Point{12, 128}}

	w, h, err := TargetSize(c, AspectRatio{3, 2})
	if err != nil {
		t.Fatalf("TargetSize: %v", err)
	}
	// width spans min(TL.x, BL.x)=10 to max(TR.x, BR.x)=190
	if w != 180 {
		t.Errorf("width = %d, want 180", w)
	}
	if h != 120 {
		t.Errorf("height = %d, want 120", h)
	}
}

func TestTargetSizeDegenerate(t *testing.T) {
	tests := []struct {
		name string
		c    Corners
	}{
		{
			"left past right",
			Corners{TL: Point{100, 0}, TR: Point{50, 0}, BR: Point{50, 50}, BL: Point{100, 50}},
		},
		{
			"zero width",
			Corners{TL: Point{40, 0}, TR: Point{40, 0}, BR: Point{40, 50}, BL: Point{40, 50}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := TargetSize(tt.c, AspectRatio{3, 2})
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Fatalf("expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}
