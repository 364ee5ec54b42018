//go:build windows

package dirty

import (
	"golang.org/x/sys/windows"
)

// fdatasync performs file descriptor sync using FlushFileBuffers.
//
// On Windows, FlushFileBuffers ensures all file data and metadata is written to disk.
// The fullfsync parameter is ignored on Windows.
func fdatasync(f File, _ bool) error {
	return windows.FlushFileBuffers(windows.Handle(f.Fd()))
}
