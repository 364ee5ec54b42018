package writer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrFinished indicates use of an AtomicFile after Commit or Abort.
var ErrFinished = errors.New("writer: atomic file already committed or aborted")

// AtomicFile writes a replacement for Path into a temp file in the same
// directory. Commit renames it over Path; Abort (or any failed Commit
// step) removes it and leaves Path untouched.
type AtomicFile struct {
	Path string

	f       *os.File
	tmp     string
	renamed bool
}

var _ Sink = (*AtomicFile)(nil)

// CreateAtomic opens a temp file next to path.
func CreateAtomic(path string) (*AtomicFile, error) {
	// Create temp file in same directory to ensure atomic rename
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &AtomicFile{Path: path, f: f, tmp: f.Name()}, nil
}

// TempPath returns the temp file's path, empty once finished.
func (a *AtomicFile) TempPath() string {
	if a.f == nil {
		return ""
	}
	return a.tmp
}

// WriteAt writes p at off in the temp file.
func (a *AtomicFile) WriteAt(p []byte, off int64) (int, error) {
	if a.f == nil {
		return 0, ErrFinished
	}
	return a.f.WriteAt(p, off)
}

// Truncate sets the temp file's length.
func (a *AtomicFile) Truncate(size int64) error {
	if a.f == nil {
		return ErrFinished
	}
	return a.f.Truncate(size)
}

// Sync flushes the temp file to stable storage.
func (a *AtomicFile) Sync() error {
	if a.f == nil {
		return ErrFinished
	}
	return a.f.Sync()
}

// Commit syncs and closes the temp file, renames it over Path and syncs the
// directory so the rename itself is durable. On failure before the rename
// the temp file is removed.
func (a *AtomicFile) Commit() error {
	if a.f == nil {
		return ErrFinished
	}
	f := a.f
	a.f = nil

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(a.tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(a.tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(a.tmp, a.Path); err != nil {
		_ = os.Remove(a.tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	a.renamed = true
	if err := syncDir(filepath.Dir(a.Path)); err != nil {
		return fmt.Errorf("sync directory: %w", err)
	}
	return nil
}

// Renamed reports whether Commit got as far as replacing Path. It can be
// true even when Commit failed to sync the directory afterwards.
func (a *AtomicFile) Renamed() bool { return a.renamed }

// Abort discards the temp file. It is a no-op after Commit or a prior Abort.
func (a *AtomicFile) Abort() error {
	if a.f == nil {
		return nil
	}
	f := a.f
	a.f = nil
	closeErr := f.Close()
	if err := os.Remove(a.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return closeErr
}
