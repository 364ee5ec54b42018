//go:build unix

package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MapPrefix maps the first n bytes of the file at path (fewer if the file is
// shorter). A zero-length prefix returns an empty mapping without calling mmap.
func MapPrefix(path string, n int) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // safe before return; mapping keeps pages alive

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	length := int64(n)
	if size < length {
		length = size
	}
	if length <= 0 {
		return &Mapping{Data: []byte{}, Size: size}, nil
	}
	if length > int64(^uint(0)>>1) {
		return nil, fmt.Errorf("mmfile: prefix too large to map (%d bytes)", length)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(length), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmfile: map %s: %w", path, err)
	}
	return &Mapping{
		Data: data,
		Size: size,
		unmap: func() error {
			err := unix.Munmap(data)
			if errors.Is(err, unix.EINVAL) {
				// Treat double-unmap as no-op for callers.
				return nil
			}
			return err
		},
	}, nil
}
