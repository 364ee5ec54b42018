package region

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/pkg/types"
	rf "github.com/joshuapare/regionkit/region"
	"github.com/joshuapare/regionkit/region/verify"
)

var errInjected = errors.New("injected fault")

// faultFile wraps a region file and fails chosen operations.
type faultFile struct {
	*rf.File
	failWrite func(off int64) bool
	failGrow  bool
}

func (f *faultFile) WriteAt(p []byte, off int64) (int, error) {
	if f.failWrite != nil && f.failWrite(off) {
		return 0, errInjected
	}
	return f.File.WriteAt(p, off)
}

func (f *faultFile) GrowSectors(n uint32) error {
	if f.failGrow {
		return errInjected
	}
	return f.File.GrowSectors(n)
}

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "r.0.0.mca")
}

func newRegion(t *testing.T) *Region {
	t.Helper()
	r, err := Create(tempPath(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// newFaultRegion creates a region whose file operations can be failed.
func newFaultRegion(t *testing.T) (*Region, *faultFile) {
	t.Helper()
	path := tempPath(t)
	f, err := rf.Create(path)
	require.NoError(t, err)
	ff := &faultFile{File: f}
	r, err := load(path, ff, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, ff
}

// payload returns n deterministic pseudo-random bytes.
func payload(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func coord(x, z int) types.Coord { return types.Coord{X: x, Z: z} }

// putRaw stores an uncompressed payload so its envelope size is exact.
func putRaw(t *testing.T, r *Region, c types.Coord, n int, seed int64) []byte {
	t.Helper()
	data := payload(n, seed)
	require.NoError(t, r.PutChunk(c, data, types.SchemeUncompressed, types.Timestamp(1000+seed)))
	return data
}

// writeRegionFile writes a raw region file: the given header entries followed
// by zeroed sectors up to fileSectors.
func writeRegionFile(t *testing.T, path string, entries map[int]format.Entry, fileSectors int, extra int) {
	t.Helper()
	var h format.Header
	for slot, e := range entries {
		h.Entries[slot] = e
	}
	b := make([]byte, fileSectors*format.SectorSize+extra)
	copy(b, format.SerializeHeader(&h))
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

// requireConsistent checks the free list against the directory and, after a
// flush, the file on disk against every layout invariant.
func requireConsistent(t *testing.T, r *Region) {
	t.Helper()
	require.NoError(t, verify.FreeList(r.Header(), r.FileSectors(), r.FreeRanges()))

	st, err := os.Stat(r.Path())
	require.NoError(t, err)
	require.Equal(t, int64(r.FileSectors())*format.SectorSize, st.Size(), "file length matches sector count")
}

func requireFileValid(t *testing.T, path string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	st, err := f.Stat()
	require.NoError(t, err)
	require.NoError(t, verify.AllInvariants(f, st.Size()))
}
