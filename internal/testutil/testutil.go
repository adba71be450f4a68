// Package testutil provides shared image fixtures for pipeline tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
)

// Uniform returns a w by h frame filled with a single gray level.
func Uniform(w, h int, level uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: level, G: level, B: level, A: 255})
		}
	}
	return img
}

// EncodePNG returns img as PNG bytes, failing the test on error.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WritePNG encodes img to path, failing the test on error.
func WritePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	if err := os.WriteFile(path, EncodePNG(t, img), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
