// Package mmfile provides read-only views of the leading bytes of a file,
// memory-mapped where the platform allows it.
package mmfile

// Mapping is a read-only view of up to the first n bytes of a file.
// Data must not be used after Close.
type Mapping struct {
	Data []byte // min(n, file size) bytes
	Size int64  // full file length at map time

	unmap func() error
}

// Close releases the view. It is safe to call more than once.
func (m *Mapping) Close() error {
	if m == nil || m.unmap == nil {
		return nil
	}
	fn := m.unmap
	m.unmap = nil
	m.Data = nil
	return fn()
}
