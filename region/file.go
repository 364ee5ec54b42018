package region

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/regionkit/internal/format"
)

var (
	// ErrClosed indicates use of a closed file.
	ErrClosed = errors.New("region: file is closed")

	// ErrReadOnly indicates a write to a file opened read-only.
	ErrReadOnly = errors.New("region: file is read-only")

	// ErrShortFile indicates a file too small to hold a header.
	ErrShortFile = errors.New("region: file shorter than header")

	// ErrOutOfRange indicates an access past the current end of file.
	ErrOutOfRange = errors.New("region: access past end of file")
)

// File is an open region file. Reads and writes are positioned (pread and
// pwrite), never memory-mapped, so every I/O failure surfaces as an error.
//
// File is NOT thread-safe for mutation.
type File struct {
	f        *os.File
	path     string
	size     int64
	readOnly bool
}

// Open opens an existing region file. A trailing partial sector is left in
// place; Sectors ignores it and PadPartialSector completes it.
func Open(path string, readOnly bool) (*File, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	sz := st.Size()
	if sz < format.HeaderSize {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrShortFile, path, sz)
	}

	return &File{f: f, path: path, size: sz, readOnly: readOnly}, nil
}

// Create makes a new region file holding an empty header. It fails if path
// already exists.
func Create(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(format.HeaderSize); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("size new region: %w", err)
	}
	return &File{f: f, path: path, size: format.HeaderSize}, nil
}

// Path returns the path the file was opened with.
func (r *File) Path() string { return r.path }

// Size returns the current file length in bytes.
func (r *File) Size() int64 { return r.size }

// Sectors returns the number of whole sectors in the file.
func (r *File) Sectors() uint32 { return uint32(r.size / format.SectorSize) }

// Aligned reports whether the file is a whole number of sectors.
func (r *File) Aligned() bool { return r.size%format.SectorSize == 0 }

// PadPartialSector zero-fills a trailing partial sector up to the sector
// boundary and returns the number of bytes added.
func (r *File) PadPartialSector() (int64, error) {
	aligned := format.AlignSector(r.size)
	if aligned == r.size {
		return 0, nil
	}
	added := aligned - r.size
	if err := r.Truncate(aligned); err != nil {
		return 0, fmt.Errorf("pad trailing sector: %w", err)
	}
	return added, nil
}

// ReadOnly reports whether the file was opened read-only.
func (r *File) ReadOnly() bool { return r.readOnly }

// Fd returns the OS file descriptor, for platform sync calls.
func (r *File) Fd() uintptr {
	if r == nil || r.f == nil {
		return ^uintptr(0)
	}
	return r.f.Fd()
}

// ReadAt reads len(p) bytes at off. Reads past end of file fail with
// ErrOutOfRange rather than returning a short count.
func (r *File) ReadAt(p []byte, off int64) (int, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	if off < 0 || off+int64(len(p)) > r.size {
		return 0, fmt.Errorf("%w: read [%d,%d) of %d", ErrOutOfRange, off, off+int64(len(p)), r.size)
	}
	n, err := r.f.ReadAt(p, off)
	if err == io.EOF && n == len(p) {
		err = nil
	}
	return n, err
}

// WriteAt writes p at off. The range must already lie inside the file;
// GrowSectors extends it first.
func (r *File) WriteAt(p []byte, off int64) (int, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	if r.readOnly {
		return 0, ErrReadOnly
	}
	if off < 0 || off+int64(len(p)) > r.size {
		return 0, fmt.Errorf("%w: write [%d,%d) of %d", ErrOutOfRange, off, off+int64(len(p)), r.size)
	}
	return r.f.WriteAt(p, off)
}

// ReadHeader returns the raw header bytes.
func (r *File) ReadHeader() ([]byte, error) {
	b := make([]byte, format.HeaderSize)
	if _, err := r.ReadAt(b, 0); err != nil {
		return nil, err
	}
	return b, nil
}

// GrowSectors extends the file with zeroed sectors until it holds sectors
// sectors. It never shrinks the file. On failure the recorded size is
// unchanged.
func (r *File) GrowSectors(sectors uint32) error {
	newSize := format.SectorOffset(sectors)
	if newSize <= r.size {
		return nil
	}
	return r.Truncate(newSize)
}

// Truncate sets the file length, zero-filling when it grows.
func (r *File) Truncate(size int64) error {
	if r.f == nil {
		return ErrClosed
	}
	if r.readOnly {
		return ErrReadOnly
	}
	if size < format.HeaderSize {
		return fmt.Errorf("region: truncate size %d too small (minimum %d)", size, format.HeaderSize)
	}
	if err := r.f.Truncate(size); err != nil {
		return err
	}
	r.size = size
	return nil
}

// Sync commits the file's contents and metadata to stable storage.
func (r *File) Sync() error {
	if r.f == nil {
		return ErrClosed
	}
	return r.f.Sync()
}

// Close closes the file. It is safe to call more than once.
func (r *File) Close() error {
	if r == nil || r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
