package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jsuresh/ttracker/internal/core/store"
)

// File owns the store document on disk: load, atomic save, and an
// advisory lock covering the whole load-mutate-save cycle so that two
// invocations against the same store cannot interleave.
type File struct {
	path string
	now  func() time.Time

	lockFile *os.File
}

// NewFile returns a File for the given path. A nil clock falls back to
// time.Now for the loaded store.
func NewFile(path string, now func() time.Time) *File {
	return &File{path: path, now: now}
}

// Path returns the store file path.
func (f *File) Path() string {
	return f.path
}

// Load reads and decodes the store. A missing file yields an empty
// store, so first use needs no separate bootstrap step.
func (f *File) Load() (*store.Store, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return store.New(f.now), nil
		}
		return nil, fmt.Errorf("read store %s: %w", f.path, err)
	}
	s, err := Decode(data, f.now)
	if err != nil {
		return nil, fmt.Errorf("decode store %s: %w", f.path, err)
	}
	return s, nil
}

// Save encodes the store and writes it atomically: the document goes to
// a fresh temporary file in the same directory, is synced, then renamed
// over the target. The store file is never observed half-written even
// if the process dies mid-save.
func (f *File) Save(s *store.Store) error {
	data, err := Encode(s)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp store file: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace store %s: %w", f.path, err)
	}
	return nil
}

// lockPath is a sidecar next to the store so the lock survives the
// atomic rename of the store file itself.
func (f *File) lockPath() string {
	return f.path + ".lock"
}
