// Package sink persists captured frames as sequentially numbered image
// files.
package sink

import (
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"time"

	"github.com/atticfilm/slidescan/internal/fsutil"
)

// jpegQuality keeps visible compression artifacts out of scanned slides.
const jpegQuality = 95

// Dir writes captures into a flat output directory as slide_NNNN.jpg.
type Dir struct {
	fs  fsutil.FileSystem
	dir string

	// ArchiveYear, when non-zero, backdates each saved file to noon of
	// January 1st of that year plus one minute per ordinal, so photo
	// libraries sort digitized slides by capture order under the year the
	// originals were shot.
	ArchiveYear int
}

// NewDir builds a sink for the given output directory. Call Prepare before
// the first Save.
func NewDir(fs fsutil.FileSystem, dir string) *Dir {
	return &Dir{fs: fs, dir: dir}
}

// Prepare creates the output directory. With clear set, a pre-existing
// directory is removed first; callers are expected to have confirmed the
// destructive path with the user.
func (d *Dir) Prepare(clear bool) error {
	if clear && d.fs.Exists(d.dir) {
		if err := d.fs.RemoveAll(d.dir); err != nil {
			return fmt.Errorf("clear output directory: %w", err)
		}
	}
	if err := d.fs.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// Save encodes the frame under the zero-padded ordinal and returns the path
// written. Write errors abort the run; files already written stay in place.
func (d *Dir) Save(index int, frame *image.RGBA) (string, error) {
	path := filepath.Join(d.dir, fmt.Sprintf("slide_%04d.jpg", index))

	f, err := d.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := jpeg.Encode(f, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	if d.ArchiveYear != 0 {
		ts := archiveTime(d.ArchiveYear, index)
		if err := d.fs.Chtimes(path, ts, ts); err != nil {
			return "", fmt.Errorf("timestamp %s: %w", path, err)
		}
	}
	return path, nil
}

// archiveTime spreads ordinals across minutes starting at noon so the files
// keep their capture order under date sorting.
func archiveTime(year, index int) time.Time {
	ord := index - 1
	return time.Date(year, time.January, 1, 12+ord/60, ord%60, 0, 0, time.Local)
}
