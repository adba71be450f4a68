package source

import (
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/atticfilm/slidescan/internal/fsutil"
	"github.com/atticfilm/slidescan/internal/monitoring"
	"github.com/atticfilm/slidescan/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

// encodeFrame produces a small PNG whose top-left pixel carries id, so tests
// can tell decoded frames apart.
func encodeFrame(t *testing.T, id uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(0, 0, color.RGBA{R: id, A: 0xff})
	return testutil.EncodePNG(t, img)
}

func frameID(t *testing.T, img image.Image) uint8 {
	t.Helper()
	r, _, _, _ := img.At(0, 0).RGBA()
	return uint8(r >> 8)
}

func TestDirYieldsSortedFrames(t *testing.T) {
	fs := fsutil.NewMemory()
	fs.WriteFile("frames/c.png", encodeFrame(t, 3))
	fs.WriteFile("frames/a.png", encodeFrame(t, 1))
	fs.WriteFile("frames/b.png", encodeFrame(t, 2))
	fs.WriteFile("frames/notes.txt", []byte("not an image"))

	d, err := NewDir(fs, "frames", DirOptions{})
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	if d.Len() != 3 {
		t.Fatalf("Len = %d, want 3", d.Len())
	}

	var ids []uint8
	for {
		img, _, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		ids = append(ids, frameID(t, img))
	}
	want := []uint8{1, 2, 3}
	if len(ids) != len(want) {
		t.Fatalf("got %d frames, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("frame %d has id %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestDirBounds(t *testing.T) {
	fs := fsutil.NewMemory()
	for i := uint8(0); i < 6; i++ {
		fs.WriteFile("frames/"+string(rune('a'+i))+".png", encodeFrame(t, i))
	}

	tests := []struct {
		name string
		opts DirOptions
		want []uint8
	}{
		{"start only", DirOptions{Start: 2}, []uint8{2, 3, 4, 5}},
		{"start and end", DirOptions{Start: 1, End: 4}, []uint8{1, 2, 3}},
		{"end past length", DirOptions{End: 99}, []uint8{0, 1, 2, 3, 4, 5}},
		{"start past length", DirOptions{Start: 99}, nil},
		{"stride pairs", DirOptions{Stride: 2}, []uint8{1, 3, 5}},
		{"bounded stride", DirOptions{Start: 2, Stride: 2}, []uint8{3, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDir(fs, "frames", tt.opts)
			if err != nil {
				t.Fatalf("NewDir: %v", err)
			}
			var ids []uint8
			for {
				img, _, err := d.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("Next: %v", err)
				}
				ids = append(ids, frameID(t, img))
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("got %d frames %v, want %v", len(ids), ids, tt.want)
			}
			for i := range tt.want {
				if ids[i] != tt.want[i] {
					t.Errorf("frame %d = %d, want %d", i, ids[i], tt.want[i])
				}
			}
		})
	}
}

func TestDirSkipsCorruptFrames(t *testing.T) {
	fs := fsutil.NewMemory()
	fs.WriteFile("frames/a.png", encodeFrame(t, 1))
	fs.WriteFile("frames/b.png", []byte("corrupt"))
	fs.WriteFile("frames/c.png", encodeFrame(t, 3))

	d, err := NewDir(fs, "frames", DirOptions{})
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}

	var ids []uint8
	for {
		img, _, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		ids = append(ids, frameID(t, img))
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("got %v, want [1 3]", ids)
	}
}

func TestDirEmptyDirectory(t *testing.T) {
	fs := fsutil.NewMemory()
	fs.WriteFile("frames/readme.md", []byte("no images here"))

	if _, err := NewDir(fs, "frames", DirOptions{}); err == nil {
		t.Fatal("expected error for directory without images")
	}
	if _, err := NewDir(fs, "missing", DirOptions{}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
