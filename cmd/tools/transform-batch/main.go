// Command transform-batch rectifies a directory of frames without running
// the capture machine. Useful for checking corner coordinates against a
// handful of sample frames before committing to a full extraction.
package main

import (
	"flag"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atticfilm/slidescan/internal/fsutil"
	"github.com/atticfilm/slidescan/internal/geometry"
	"github.com/atticfilm/slidescan/internal/source"
)

func main() {
	inputDir := flag.String("input", "", "Directory of input frames")
	outputDir := flag.String("output", "rectified", "Directory for rectified frames")
	cornersJSON := flag.String("corners", "", "Slide quadrilateral as JSON [[x,y],[x,y],[x,y],[x,y]] (TL TR BR BL)")
	aspect := flag.String("aspect", "3:2", "Target aspect ratio")
	every := flag.Int("every", 1, "Rectify every Nth frame")
	flag.Parse()

	if *inputDir == "" || *cornersJSON == "" {
		fmt.Fprintln(os.Stderr, "transform-batch: -input and -corners are required")
		flag.Usage()
		os.Exit(2)
	}
	if *every < 1 {
		fmt.Fprintln(os.Stderr, "transform-batch: -every must be at least 1")
		os.Exit(2)
	}

	corners, err := geometry.ParseCorners(*cornersJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transform-batch: %v\n", err)
		os.Exit(1)
	}
	ar, err := geometry.ParseAspectRatio(*aspect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transform-batch: %v\n", err)
		os.Exit(1)
	}

	fs := fsutil.OS{}
	src, err := source.NewDir(fs, *inputDir, source.DirOptions{Stride: *every})
	if err != nil {
		fmt.Fprintf(os.Stderr, "transform-batch: %v\n", err)
		os.Exit(1)
	}
	if err := fs.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "transform-batch: %v\n", err)
		os.Exit(1)
	}

	done := 0
	for {
		img, name, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "transform-batch: %v\n", err)
			os.Exit(1)
		}

		frame, err := geometry.Rectify(img, corners, ar)
		if err != nil {
			fmt.Fprintf(os.Stderr, "transform-batch: rectify %s: %v\n", name, err)
			os.Exit(1)
		}

		base := strings.TrimSuffix(name, filepath.Ext(name))
		outPath := filepath.Join(*outputDir, base+".jpg")
		f, err := fs.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "transform-batch: %v\n", err)
			os.Exit(1)
		}
		if err := jpeg.Encode(f, frame, &jpeg.Options{Quality: 95}); err != nil {
			f.Close()
			fmt.Fprintf(os.Stderr, "transform-batch: encode %s: %v\n", outPath, err)
			os.Exit(1)
		}
		f.Close()
		done++
	}

	fmt.Printf("rectified %d of %d frames into %s\n", done, src.Len(), *outputDir)
}
