// Package source supplies raster frames to the pipeline, either from a
// sorted directory of stills or from a live file-watch.
package source

import (
	"image"
	"path/filepath"
	"strings"
)

// Source yields frames one at a time, forward-only. Next returns io.EOF once
// the stream is exhausted.
type Source interface {
	// Next returns the next decoded frame and the name it was read from.
	Next() (image.Image, string, error)
}

// imageExts are the file extensions the sources will attempt to decode.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func isImageFile(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}
