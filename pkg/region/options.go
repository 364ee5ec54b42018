package region

import (
	"github.com/rs/zerolog"

	"github.com/joshuapare/regionkit/pkg/codec"
	"github.com/joshuapare/regionkit/pkg/types"
	"github.com/joshuapare/regionkit/region/dirty"
)

// OpenOptions configures Open, Create and OpenOrCreate. A nil *OpenOptions
// is the same as DefaultOpenOptions().
type OpenOptions struct {
	// ReadOnly opens the file without write access. Mutations fail with
	// types.ErrReadOnly.
	ReadOnly bool

	// Strict rejects a file with any header issue (bad entry, out of bounds
	// run, overlap, partial trailing sector) with a *types.HeaderError
	// instead of loading it with the flagged slots empty. A strict open never
	// modifies the file.
	Strict bool

	// FlushMode controls how FlushHeader syncs the header.
	// Default: dirty.FlushAuto
	FlushMode dirty.FlushMode

	// Codec compresses and decompresses payloads.
	// Default: codec.Default()
	Codec codec.Codec

	// Logger receives warnings about header issues and debug traces of
	// growth and shrink. Default: zerolog.Nop()
	Logger *zerolog.Logger

	// Metrics, when set, is updated by every operation.
	Metrics *Metrics
}

// DefaultOpenOptions returns options for a writable, lenient open.
func DefaultOpenOptions() *OpenOptions {
	return &OpenOptions{FlushMode: dirty.FlushAuto}
}

func (o *OpenOptions) logger() zerolog.Logger {
	if o == nil || o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}

func (o *OpenOptions) codec() codec.Codec {
	if o == nil || o.Codec == nil {
		return codec.Default()
	}
	return o.Codec
}

// OptimizeOptions configures Optimize. A nil *OptimizeOptions compacts the
// whole file with no manual moves.
type OptimizeOptions struct {
	// Plan lists manual moves applied before compaction. Planned records are
	// pinned at their target sectors.
	Plan *types.RelocationPlan

	// Compact packs every unplanned record, in ascending start order, into
	// the lowest gaps left around the planned ones. When false, unplanned
	// records stay where they are.
	Compact bool
}

// DefaultOptimizeOptions returns options for plain compaction.
func DefaultOptimizeOptions() *OptimizeOptions {
	return &OptimizeOptions{Compact: true}
}
