package sink

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/atticfilm/slidescan/internal/fsutil"
)

func testFrame(w, h int) *image.RGBA {
	f := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(f.Pix); i += 4 {
		f.Pix[i] = 0xff
	}
	return f
}

func TestSaveWritesNumberedJPEG(t *testing.T) {
	fs := fsutil.NewMemory()
	d := NewDir(fs, "out")
	if err := d.Prepare(false); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	path, err := d.Save(1, testFrame(32, 24))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != "out/slide_0001.jpg" {
		t.Errorf("path = %q, want out/slide_0001.jpg", path)
	}

	data, ok := fs.ReadFile(path)
	if !ok {
		t.Fatal("saved file missing")
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("saved file is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Errorf("decoded size = %v, want 32x24", img.Bounds())
	}
}

func TestSaveZeroPadding(t *testing.T) {
	fs := fsutil.NewMemory()
	d := NewDir(fs, "out")
	if err := d.Prepare(false); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	tests := []struct {
		index int
		want  string
	}{
		{1, "out/slide_0001.jpg"},
		{42, "out/slide_0042.jpg"},
		{999, "out/slide_0999.jpg"},
		{1234, "out/slide_1234.jpg"},
	}
	for _, tt := range tests {
		path, err := d.Save(tt.index, testFrame(4, 4))
		if err != nil {
			t.Fatalf("Save(%d): %v", tt.index, err)
		}
		if path != tt.want {
			t.Errorf("Save(%d) path = %q, want %q", tt.index, path, tt.want)
		}
	}
}

func TestPrepareClearsExistingOutput(t *testing.T) {
	fs := fsutil.NewMemory()
	fs.WriteFile("out/slide_0001.jpg", []byte("stale"))

	d := NewDir(fs, "out")
	if err := d.Prepare(true); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if fs.Exists("out/slide_0001.jpg") {
		t.Fatal("stale capture should have been cleared")
	}
	if !fs.Exists("out") {
		t.Fatal("output directory missing after Prepare")
	}
}

func TestPrepareKeepsExistingOutput(t *testing.T) {
	fs := fsutil.NewMemory()
	fs.WriteFile("out/slide_0001.jpg", []byte("keep me"))

	d := NewDir(fs, "out")
	if err := d.Prepare(false); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, ok := fs.ReadFile("out/slide_0001.jpg"); !ok {
		t.Fatal("existing capture removed without clear")
	}
}

func TestArchiveYearTimestamps(t *testing.T) {
	fs := fsutil.NewMemory()
	d := NewDir(fs, "out")
	d.ArchiveYear = 1987
	if err := d.Prepare(false); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	tests := []struct {
		index    int
		wantHour int
		wantMin  int
	}{
		{1, 12, 0},
		{2, 12, 1},
		{61, 13, 0},
	}
	for _, tt := range tests {
		path, err := d.Save(tt.index, testFrame(4, 4))
		if err != nil {
			t.Fatalf("Save(%d): %v", tt.index, err)
		}
		got, ok := fs.ModTime(path)
		if !ok {
			t.Fatalf("no mod time for %s", path)
		}
		want := time.Date(1987, time.January, 1, tt.wantHour, tt.wantMin, 0, 0, time.Local)
		if !got.Equal(want) {
			t.Errorf("Save(%d) mtime = %v, want %v", tt.index, got, want)
		}
	}
}
