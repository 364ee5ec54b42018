// Package writer provides the sinks a region rewrite is written into: an
// atomic on-disk file that replaces its target only on Commit, and an
// in-memory file for tests and dry runs.
package writer

import "io"

// Sink is what a region rewrite needs from its destination.
type Sink interface {
	io.WriterAt
	Truncate(size int64) error
}
