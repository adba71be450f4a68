package source

import (
	"fmt"
	"image"
	_ "image/jpeg" // frame decoders
	_ "image/png"
	"io"
	"path/filepath"

	"github.com/atticfilm/slidescan/internal/fsutil"
	"github.com/atticfilm/slidescan/internal/monitoring"
)

// Dir reads frames from a lexicographically sorted directory of still
// images. Start/End bound the raw frame indexes ([Start, End), End 0 means
// unbounded); Stride selects every Nth remaining frame, yielding the last of
// each group, for feeds that shoot several exposures per slide.
type Dir struct {
	fs    fsutil.FileSystem
	dir   string
	names []string
	pos   int
}

// DirOptions configure a Dir source.
type DirOptions struct {
	Start  int
	End    int
	Stride int
}

// NewDir lists and orders the directory up front; decoding happens lazily in
// Next. An empty or missing directory is an error, matching the fail-fast
// contract for input sources.
func NewDir(fs fsutil.FileSystem, dir string, opts DirOptions) (*Dir, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open frame directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("frame directory %s contains no images", dir)
	}

	// Bound first, then stride within the bounded window.
	start, end := opts.Start, opts.End
	if end == 0 || end > len(names) {
		end = len(names)
	}
	if start > len(names) {
		start = len(names)
	}
	names = names[start:end]

	if opts.Stride > 1 {
		var strided []string
		for i := opts.Stride - 1; i < len(names); i += opts.Stride {
			strided = append(strided, names[i])
		}
		names = strided
	}

	return &Dir{fs: fs, dir: dir, names: names}, nil
}

// Len returns the number of frames the source will yield.
func (d *Dir) Len() int { return len(d.names) }

// Next decodes and returns the next frame. Files that fail to decode are
// skipped with a warning rather than aborting the run.
func (d *Dir) Next() (image.Image, string, error) {
	for d.pos < len(d.names) {
		name := d.names[d.pos]
		d.pos++

		img, err := d.decode(name)
		if err != nil {
			monitoring.Logf("skipping unreadable frame %s: %v", name, err)
			continue
		}
		return img, name, nil
	}
	return nil, "", io.EOF
}

func (d *Dir) decode(name string) (image.Image, error) {
	f, err := d.fs.Open(filepath.Join(d.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}
