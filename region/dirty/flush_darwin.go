//go:build darwin

package dirty

import (
	"golang.org/x/sys/unix"
)

// fdatasync performs file descriptor sync.
//
// On macOS, if fullfsync is true, use F_FULLFSYNC for maximum durability.
// F_FULLFSYNC ensures data is written to the physical disk, not just the drive cache.
// Otherwise, use regular fsync.
func fdatasync(f File, fullfsync bool) error {
	if fullfsync {
		_, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0)
		return err
	}
	// macOS doesn't have fdatasync, use fsync
	return unix.Fsync(int(f.Fd()))
}
