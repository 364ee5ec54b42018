//go:build !unix

package mmfile

import (
	"io"
	"os"
)

// MapPrefix reads the first n bytes of the file at path when mmap is not
// available.
func MapPrefix(path string, n int) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, min(int64(n), info.Size()))
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return &Mapping{Data: buf, Size: info.Size(), unmap: func() error { return nil }}, nil
}
