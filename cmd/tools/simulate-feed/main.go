// Command simulate-feed generates a synthetic frame stream for exercising
// the extraction pipeline without a projector. Each simulated slide is a
// bright numbered card held for several frames, separated by the dark
// transition frames a carousel advance produces.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var frameName = regexp.MustCompile(`^frame_(\d{5})\.png$`)

func main() {
	outputDir := flag.String("output", "feed", "Directory for generated frames")
	slides := flag.Int("slides", 5, "Number of slides to simulate")
	hold := flag.Int("hold", 8, "Frames each slide stays on screen")
	gap := flag.Int("gap", 3, "Dark frames between slides")
	width := flag.Int("width", 640, "Frame width in pixels")
	height := flag.Int("height", 480, "Frame height in pixels")
	flag.Parse()

	if *slides < 1 || *hold < 1 || *gap < 0 {
		fmt.Fprintln(os.Stderr, "simulate-feed: -slides and -hold must be positive, -gap non-negative")
		os.Exit(2)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "simulate-feed: %v\n", err)
		os.Exit(1)
	}

	// Continue numbering after any frames already present, so repeated runs
	// extend the feed instead of overwriting it.
	next := highestFrame(*outputDir) + 1

	written := 0
	for s := 1; s <= *slides; s++ {
		card := slideCard(s, *width, *height)
		for i := 0; i < *hold; i++ {
			if err := writeFrame(*outputDir, next, card); err != nil {
				fmt.Fprintf(os.Stderr, "simulate-feed: %v\n", err)
				os.Exit(1)
			}
			next++
			written++
		}
		dark := uniformFrame(*width, *height, 8)
		for i := 0; i < *gap; i++ {
			if err := writeFrame(*outputDir, next, dark); err != nil {
				fmt.Fprintf(os.Stderr, "simulate-feed: %v\n", err)
				os.Exit(1)
			}
			next++
			written++
		}
	}

	fmt.Printf("wrote %d frames (%d slides) to %s\n", written, *slides, *outputDir)
}

// highestFrame returns the largest existing frame ordinal, or 0.
func highestFrame(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	highest := 0
	for _, e := range entries {
		m := frameName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

func writeFrame(dir string, ordinal int, img image.Image) error {
	path := filepath.Join(dir, fmt.Sprintf("frame_%05d.png", ordinal))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func uniformFrame(w, h int, level uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = level
		img.Pix[i+1] = level
		img.Pix[i+2] = level
		img.Pix[i+3] = 0xff
	}
	return img
}

// slideCard draws a bright card with a large slide number. The text is
// rendered small with the basic face and scaled up, which keeps the tool
// free of font-file dependencies.
func slideCard(number, w, h int) *image.RGBA {
	label := fmt.Sprintf("SLIDE %d", number)
	face := basicfont.Face7x13

	textW := font.MeasureString(face, label).Ceil()
	small := image.NewRGBA(image.Rect(0, 0, textW+8, face.Height+8))
	for i := 0; i < len(small.Pix); i += 4 {
		small.Pix[i] = 235
		small.Pix[i+1] = 225
		small.Pix[i+2] = 200
		small.Pix[i+3] = 0xff
	}

	d := font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.RGBA{R: 40, G: 40, B: 60, A: 255}),
		Face: face,
		Dot:  fixed.P(4, 4+face.Ascent),
	}
	d.DrawString(label)

	card := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(card.Pix); i += 4 {
		card.Pix[i] = 235
		card.Pix[i+1] = 225
		card.Pix[i+2] = 200
		card.Pix[i+3] = 0xff
	}

	// Scale the text block into the middle two thirds of the card.
	dstW := w * 2 / 3
	dstH := dstW * small.Rect.Dy() / small.Rect.Dx()
	x0 := (w - dstW) / 2
	y0 := (h - dstH) / 2
	xdraw.NearestNeighbor.Scale(card, image.Rect(x0, y0, x0+dstW, y0+dstH), small, small.Rect, xdraw.Src, nil)

	return card
}
