package source

import (
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/atticfilm/slidescan/internal/monitoring"
	"github.com/atticfilm/slidescan/internal/timeutil"
)

// DefaultSettleDelay is how long Watch waits after a create notification
// before reading the file, so a capture program writing the image has
// finished by the time we open it.
const DefaultSettleDelay = 500 * time.Millisecond

// Watch yields frames as they appear in a directory, in creation order. It
// is the live-ingestion counterpart to Dir: a tethered camera or scanner
// drops files into the watched directory and the pipeline consumes them.
type Watch struct {
	watcher *fsnotify.Watcher
	paths   chan string
	done    chan struct{}
	settle  time.Duration
	clock   timeutil.Clock
}

// NewWatch starts watching dir for created files. Close must be called to
// release the watcher; Next returns io.EOF after Close.
func NewWatch(dir string, settle time.Duration) (*Watch, error) {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watch{
		watcher: watcher,
		paths:   make(chan string, 16),
		done:    make(chan struct{}),
		settle:  settle,
		clock:   timeutil.RealClock{},
	}
	go w.forward()
	return w, nil
}

// forward moves create events from the watcher onto the frame queue. This is
// the only concurrency boundary in the system: one producer goroutine, one
// consuming pipeline loop.
func (w *Watch) forward() {
	defer close(w.paths)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if !isImageFile(ev.Name) {
				monitoring.Logf("ignoring %s: not an image", ev.Name)
				continue
			}
			select {
			case w.paths <- ev.Name:
			case <-w.done:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			monitoring.Logf("watch error: %v", err)
		}
	}
}

// Next blocks until a new image file appears, waits for it to settle, then
// decodes it. Unreadable files are skipped with a warning.
func (w *Watch) Next() (image.Image, string, error) {
	for path := range w.paths {
		// Give the writer time to finish the file.
		w.clock.Sleep(w.settle)

		img, err := decodeFile(path)
		if err != nil {
			monitoring.Logf("ignoring %s: %v", path, err)
			continue
		}
		return img, path, nil
	}
	return nil, "", io.EOF
}

// Close stops the watcher. A blocked Next returns io.EOF.
func (w *Watch) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
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
