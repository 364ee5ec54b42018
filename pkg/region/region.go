package region

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/rs/zerolog"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/pkg/codec"
	"github.com/joshuapare/regionkit/pkg/types"
	rf "github.com/joshuapare/regionkit/region"
	"github.com/joshuapare/regionkit/region/alloc"
	"github.com/joshuapare/regionkit/region/directory"
	"github.com/joshuapare/regionkit/region/dirty"
	"github.com/joshuapare/regionkit/region/tx"
)

// backingFile is the file a Region drives. *rf.File implements it; tests
// wrap it to inject failures.
type backingFile interface {
	io.ReaderAt
	io.WriterAt
	Fd() uintptr
	Sync() error
	GrowSectors(sectors uint32) error
	Truncate(size int64) error
	Size() int64
	Sectors() uint32
	Aligned() bool
	PadPartialSector() (int64, error)
	ReadHeader() ([]byte, error)
	Close() error
}

var _ backingFile = (*rf.File)(nil)

// Region is an open region file.
type Region struct {
	path string
	opts OpenOptions
	f    backingFile

	dir   *directory.Directory
	alloc *alloc.SectorAllocator
	dt    *dirty.Tracker
	tx    *tx.Manager

	codec   codec.Codec
	log     zerolog.Logger
	metrics *Metrics

	issues   []types.SlotIssue
	readOnly bool
	closed   bool

	// Test hook: called after the optimized file is synced and before it
	// replaces the original (nil in production)
	beforeRename func() error
}

// Open opens an existing region file.
//
// Header entries that are malformed, run past end of file or overlap an
// earlier run are dropped and reported by Issues; with opts.Strict they fail
// the open with a *types.HeaderError instead. A writable lenient open pads a
// trailing partial sector and marks dropped slots for rewriting on the next
// FlushHeader.
func Open(path string, opts *OpenOptions) (*Region, error) {
	ro := opts != nil && opts.ReadOnly
	f, err := rf.Open(path, ro)
	if err != nil {
		return nil, openError(path, err)
	}
	r, err := load(path, f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// Create makes a new region file with an empty header. It fails if path
// already exists.
func Create(path string, opts *OpenOptions) (*Region, error) {
	if opts != nil && opts.ReadOnly {
		return nil, &types.Error{Kind: types.ErrKindReadOnly, Msg: "create " + path + " read-only"}
	}
	f, err := rf.Create(path)
	if err != nil {
		return nil, types.IOError("create "+path, err)
	}
	r, err := load(path, f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// OpenOrCreate opens path, creating an empty region file if it does not exist.
func OpenOrCreate(path string, opts *OpenOptions) (*Region, error) {
	r, err := Create(path, opts)
	if err == nil || !errors.Is(err, fs.ErrExist) {
		return r, err
	}
	return Open(path, opts)
}

func openError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &types.Error{Kind: types.ErrKindNotFound, Msg: path, Err: err}
	case errors.Is(err, rf.ErrShortFile):
		return &types.Error{Kind: types.ErrKindCorruptHeader, Msg: path, Err: err}
	default:
		return types.IOError("open "+path, err)
	}
}

// load builds the in-memory state of a region over an open file.
func load(path string, f backingFile, opts *OpenOptions) (*Region, error) {
	r := &Region{
		path:     path,
		f:        f,
		codec:    opts.codec(),
		log:      opts.logger().With().Str("region", path).Logger(),
		readOnly: opts != nil && opts.ReadOnly,
	}
	if opts != nil {
		r.opts = *opts
		r.metrics = opts.Metrics
	}

	hdr, err := f.ReadHeader()
	if err != nil {
		return nil, types.IOError("read header", err)
	}
	// A writable lenient open pads the trailing partial sector below, so runs
	// ending inside it are judged against the padded length.
	sectors := f.Sectors()
	if !f.Aligned() && !r.readOnly && !r.opts.Strict {
		sectors = uint32(format.AlignSector(f.Size()) >> format.SectorShift)
	}
	dir, issues, err := directory.Load(hdr, sectors)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindCorruptHeader, Msg: path, Err: err}
	}
	if !f.Aligned() {
		issues = append([]types.SlotIssue{{
			Slot:   -1,
			Kind:   types.IssueFileSize,
			Detail: fmt.Sprintf("%d bytes is not a whole number of sectors", f.Size()),
		}}, issues...)
	}
	if len(issues) > 0 && r.opts.Strict {
		return nil, &types.HeaderError{Path: path, Issues: issues}
	}

	r.dt = dirty.NewTracker(f)
	r.tx = tx.NewManager(r.dt, r.opts.FlushMode)

	if !r.readOnly {
		added, err := f.PadPartialSector()
		if err != nil {
			return nil, types.IOError("pad trailing sector", err)
		}
		if added > 0 {
			r.log.Warn().Int64("bytes", added).Msg("padded trailing partial sector")
		}
	}

	r.dir = dir
	r.issues = issues
	r.metrics.headerIssues(len(issues))
	for _, is := range issues {
		r.log.Warn().
			Int("slot", is.Slot).
			Stringer("kind", is.Kind).
			Stringer("run", is.Run).
			Str("detail", is.Detail).
			Msg("header issue, slot treated as empty")
		if is.Slot >= 0 && !r.readOnly {
			r.dt.AddSlot(is.Slot)
		}
	}

	a, err := alloc.New(f.Sectors(), dir.Used(), f)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindCorruptHeader, Msg: path, Err: err}
	}
	a.SetLogger(r.log)
	r.alloc = a
	r.reportSpace()
	return r, nil
}

// Close releases the file handle. Unflushed header changes are discarded;
// the caller must FlushHeader first to keep them. Close is safe to call
// more than once.
func (r *Region) Close() error {
	if r == nil || r.closed {
		return nil
	}
	r.closed = true
	if r.tx != nil && r.tx.Pending() {
		r.log.Warn().Msg("closing region with unflushed header changes")
	}
	if err := r.f.Close(); err != nil {
		return types.IOError("close "+r.path, err)
	}
	return nil
}

// Path returns the path the region was opened with.
func (r *Region) Path() string { return r.path }

// ReadOnly reports whether the region rejects mutations.
func (r *Region) ReadOnly() bool { return r.readOnly }

// Issues returns the header problems found when the file was opened. The
// flagged slots read as empty.
func (r *Region) Issues() []types.SlotIssue {
	out := make([]types.SlotIssue, len(r.issues))
	copy(out, r.issues)
	return out
}

// Len returns the number of occupied slots.
func (r *Region) Len() int { return r.dir.Len() }

// Has reports whether c holds a chunk.
func (r *Region) Has(c types.Coord) bool {
	_, ok := r.dir.Get(c)
	return ok
}

// Record returns the allocation record of c.
func (r *Region) Record(c types.Coord) (types.AllocationRecord, bool) {
	return r.dir.Get(c)
}

// Timestamp returns c's stored timestamp. Empty slots may carry one too.
func (r *Region) Timestamp(c types.Coord) types.Timestamp {
	if !c.Valid() {
		return 0
	}
	return r.dir.Timestamp(c)
}

// Snapshot returns every allocation record in slot order. It has no side
// effects and the result does not alias the region.
func (r *Region) Snapshot() []types.AllocationRecord { return r.dir.Snapshot() }

// Records returns every allocation record in ascending start sector order.
func (r *Region) Records() []types.AllocationRecord { return r.dir.Records() }

// Present returns the set of occupied slots.
func (r *Region) Present() types.Bitmask { return r.dir.Present() }

// FileSectors returns the file length in sectors, header included.
func (r *Region) FileSectors() uint32 { return r.alloc.FileSectors() }

// FreeRanges returns the free sector ranges in ascending order.
func (r *Region) FreeRanges() []alloc.Range { return r.alloc.FreeRanges() }

// FreeSectors returns the number of free sectors.
func (r *Region) FreeSectors() uint32 { return r.alloc.FreeSectors() }

// AllocStats returns the allocator counters since open.
func (r *Region) AllocStats() alloc.Stats { return r.alloc.Stats() }

// Dirty reports whether FlushHeader has work to do.
func (r *Region) Dirty() bool { return r.tx.Pending() }

// Header returns the header as it would be written by FlushHeader.
func (r *Region) Header() format.Header { return r.dir.Header() }

func (r *Region) usable() error {
	if r.closed {
		return types.ErrClosed
	}
	return nil
}

func (r *Region) writable() error {
	if err := r.usable(); err != nil {
		return err
	}
	if r.readOnly {
		return types.ErrReadOnly
	}
	return nil
}

func checkCoord(c types.Coord) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %s", types.ErrCoordRange, c)
	}
	return nil
}

func (r *Region) reportSpace() {
	r.metrics.space(r.path, r.alloc.FileSectors(), r.alloc.FreeSectors())
}
