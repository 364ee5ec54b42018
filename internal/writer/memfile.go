package writer

import "errors"

// MemFile is an in-memory Sink.
type MemFile struct {
	Buf []byte
}

var _ Sink = (*MemFile)(nil)

// WriteAt copies p into the buffer at off, growing it as needed.
func (m *MemFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("writer: negative offset")
	}
	end := int(off) + len(p)
	if end > len(m.Buf) {
		m.Buf = append(m.Buf, make([]byte, end-len(m.Buf))...)
	}
	return copy(m.Buf[off:], p), nil
}

// Truncate resizes the buffer, zero-filling when it grows.
func (m *MemFile) Truncate(size int64) error {
	if size < 0 {
		return errors.New("writer: negative size")
	}
	if int(size) <= len(m.Buf) {
		m.Buf = m.Buf[:size]
		return nil
	}
	m.Buf = append(m.Buf, make([]byte, int(size)-len(m.Buf))...)
	return nil
}
