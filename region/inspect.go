package region

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/internal/mmfile"
	"github.com/joshuapare/regionkit/pkg/types"
)

// Info is a read-only snapshot of a region file's header, taken without
// opening the file for writing or validating its layout.
type Info struct {
	Path   string
	Size   int64
	Header format.Header

	// Problems lists malformed header entries. Their slots read as empty.
	Problems []format.EntryIssue

	present types.Bitmask
}

// Inspect maps the header of the file at path and decodes it.
func Inspect(path string) (*Info, error) {
	m, err := mmfile.MapPrefix(path, format.HeaderSize)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	if len(m.Data) < format.HeaderSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrShortFile, path, m.Size)
	}

	info := &Info{Path: path, Size: m.Size}
	h, err := format.ParseHeader(m.Data)
	var he *format.HeaderError
	switch {
	case errors.As(err, &he):
		info.Problems = he.Issues
	case err != nil:
		return nil, err
	}
	info.Header = h

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info.present = storedChunks(f, m.Size, &h)
	return info, nil
}

// storedChunks marks the occupied slots whose run starts with a nonzero
// envelope length. Runs whose prefix lies past end of file are not marked.
func storedChunks(r io.ReaderAt, size int64, h *format.Header) types.Bitmask {
	var m types.Bitmask
	prefix := make([]byte, format.EnvelopeLengthSize)
	for slot, e := range h.Entries {
		if e.IsEmpty() {
			continue
		}
		off := format.SectorOffset(e.Start)
		if off+format.EnvelopeLengthSize > size {
			continue
		}
		if _, err := r.ReadAt(prefix, off); err != nil {
			continue
		}
		if format.ReadU32(prefix, 0) != 0 {
			m.Set(types.CoordFromIndex(slot), true)
		}
	}
	return m
}

// HasChunk reports whether c's slot is occupied and its run holds a
// nonzero envelope length.
func (i *Info) HasChunk(c types.Coord) bool {
	return c.Valid() && i.present.Get(c)
}

// Run returns c's sector run; the zero run if the slot is empty.
func (i *Info) Run(c types.Coord) types.SectorRun {
	if !c.Valid() {
		return types.SectorRun{}
	}
	e := i.Header.Entries[c.Index()]
	return types.SectorRun{Start: e.Start, Count: e.Count}
}

// Timestamp returns c's stored timestamp.
func (i *Info) Timestamp(c types.Coord) types.Timestamp {
	if !c.Valid() {
		return 0
	}
	return types.Timestamp(i.Header.Entries[c.Index()].Timestamp)
}

// IsSectorAligned reports whether the file is a whole number of sectors.
func (i *Info) IsSectorAligned() bool {
	return i.Size%format.SectorSize == 0
}

// Sectors returns the number of whole sectors in the file.
func (i *Info) Sectors() uint32 {
	return uint32(i.Size / format.SectorSize)
}

// Present returns the bitmask of slots HasChunk reports.
func (i *Info) Present() types.Bitmask { return i.present }

// UsedSectors sums the run lengths of occupied slots.
func (i *Info) UsedSectors() uint32 {
	var n uint32
	for _, e := range i.Header.Entries {
		n += uint32(e.Count)
	}
	return n
}
