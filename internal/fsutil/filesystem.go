// Package fsutil abstracts the filesystem operations the slide pipeline
// needs, so sources and sinks can run against an in-memory fake in tests.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileSystem is the set of operations used by frame sources and image sinks.
// OS is the production implementation; NewMemory returns a test fake.
type FileSystem interface {
	// Open opens the named file for reading.
	Open(name string) (fs.File, error)

	// Create creates or truncates the named file for writing.
	Create(name string) (io.WriteCloser, error)

	// ReadDir lists the directory entries of name, sorted by filename.
	ReadDir(name string) ([]fs.DirEntry, error)

	// MkdirAll creates the directory and any missing parents.
	MkdirAll(path string, perm os.FileMode) error

	// RemoveAll removes path and everything below it.
	RemoveAll(path string) error

	// Exists reports whether the named file or directory exists.
	Exists(name string) bool

	// Chtimes sets the access and modification times of the named file.
	Chtimes(name string, atime, mtime time.Time) error
}

// OS implements FileSystem against the real filesystem.
type OS struct{}

func (OS) Open(name string) (fs.File, error)              { return os.Open(name) }
func (OS) Create(name string) (io.WriteCloser, error)     { return os.Create(name) }
func (OS) ReadDir(name string) ([]fs.DirEntry, error)     { return os.ReadDir(name) }
func (OS) MkdirAll(path string, perm os.FileMode) error   { return os.MkdirAll(path, perm) }
func (OS) RemoveAll(path string) error                    { return os.RemoveAll(path) }
func (OS) Chtimes(n string, a, m time.Time) error         { return os.Chtimes(n, a, m) }
func (OS) Exists(name string) bool                        { _, err := os.Stat(name); return err == nil }

// Memory is an in-memory FileSystem for tests.
type Memory struct {
	mu    sync.RWMutex
	files map[string]*memEntry
	dirs  map[string]bool
}

type memEntry struct {
	data    []byte
	modTime time.Time
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string]*memEntry),
		dirs:  make(map[string]bool),
	}
}

func (m *Memory) Open(name string) (fs.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	e, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	data := make([]byte, len(e.data))
	copy(data, e.data)
	return &memReader{name: name, data: data, modTime: e.modTime}, nil
}

func (m *Memory) Create(name string) (io.WriteCloser, error) {
	name = filepath.Clean(name)
	return &memWriter{fs: m, name: name}, nil
}

func (m *Memory) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	if !m.dirs[name] {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}

	var entries []fs.DirEntry
	seen := make(map[string]bool)
	for path, e := range m.files {
		if filepath.Dir(path) == name {
			entries = append(entries, &memDirEntry{info: &memInfo{
				name:    filepath.Base(path),
				size:    int64(len(e.data)),
				modTime: e.modTime,
			}})
		}
	}
	for dir := range m.dirs {
		if filepath.Dir(dir) == name && !seen[filepath.Base(dir)] {
			entries = append(entries, &memDirEntry{info: &memInfo{
				name:  filepath.Base(dir),
				isDir: true,
			}})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *Memory) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	for p := path; p != "." && p != string(filepath.Separator); p = filepath.Dir(p) {
		m.dirs[p] = true
	}
	return nil
}

func (m *Memory) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	for name := range m.files {
		if name == path || strings.HasPrefix(name, path+string(filepath.Separator)) {
			delete(m.files, name)
		}
	}
	for name := range m.dirs {
		if name == path || strings.HasPrefix(name, path+string(filepath.Separator)) {
			delete(m.dirs, name)
		}
	}
	return nil
}

func (m *Memory) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	if _, ok := m.files[name]; ok {
		return true
	}
	return m.dirs[name]
}

func (m *Memory) Chtimes(name string, atime, mtime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	e, ok := m.files[name]
	if !ok {
		return &fs.PathError{Op: "chtimes", Path: name, Err: fs.ErrNotExist}
	}
	e.modTime = mtime
	return nil
}

// WriteFile is a test helper that stores data directly.
func (m *Memory) WriteFile(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	cp := make([]byte, len(data))
	copy(cp, data)
	m.files[name] = &memEntry{data: cp}
	for p := filepath.Dir(name); p != "." && p != string(filepath.Separator); p = filepath.Dir(p) {
		m.dirs[p] = true
	}
}

// ReadFile is a test helper that returns a file's contents.
func (m *Memory) ReadFile(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.files[filepath.Clean(name)]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(e.data))
	copy(cp, e.data)
	return cp, true
}

// ModTime is a test helper that returns a file's modification time.
func (m *Memory) ModTime(name string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.files[filepath.Clean(name)]
	if !ok {
		return time.Time{}, false
	}
	return e.modTime, true
}

type memReader struct {
	name    string
	data    []byte
	modTime time.Time
	offset  int
}

func (r *memReader) Read(p []byte) (int, error) {
	if r.offset >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.offset:])
	r.offset += n
	return n, nil
}

func (r *memReader) Close() error { return nil }

func (r *memReader) Stat() (fs.FileInfo, error) {
	return &memInfo{name: filepath.Base(r.name), size: int64(len(r.data)), modTime: r.modTime}, nil
}

type memWriter struct {
	fs   *Memory
	name string
	buf  []byte
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *memWriter) Close() error {
	w.fs.WriteFile(w.name, w.buf)
	return nil
}

type memDirEntry struct {
	info *memInfo
}

func (e *memDirEntry) Name() string               { return e.info.name }
func (e *memDirEntry) IsDir() bool                { return e.info.isDir }
func (e *memDirEntry) Type() fs.FileMode          { return e.info.Mode().Type() }
func (e *memDirEntry) Info() (fs.FileInfo, error) { return e.info, nil }

type memInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
}

func (i *memInfo) Name() string { return i.name }
func (i *memInfo) Size() int64  { return i.size }
func (i *memInfo) Mode() os.FileMode {
	if i.isDir {
		return os.ModeDir | 0755
	}
	return 0644
}
func (i *memInfo) ModTime() time.Time { return i.modTime }
func (i *memInfo) IsDir() bool        { return i.isDir }
func (i *memInfo) Sys() any           { return nil }
