//go:build !linux && !freebsd && !darwin && !windows

package dirty

func fdatasync(f File, _ bool) error {
	return f.Sync()
}
