package region

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/pkg/types"
	"github.com/joshuapare/regionkit/region/alloc"
)

func TestCreate_EmptyFile(t *testing.T) {
	path := tempPath(t)
	r, err := Create(path, nil)
	require.NoError(t, err)
	defer r.Close()

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8192), st.Size())
	assert.Equal(t, uint32(2), r.FileSectors())
	assert.Empty(t, r.FreeRanges())
	assert.Zero(t, r.Len())

	for i := range types.SlotCount {
		c := types.CoordFromIndex(i)
		_, ok, err := r.GetChunk(c)
		require.NoError(t, err)
		assert.False(t, ok, "slot %d", i)
	}

	_, err = Create(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrExist)
	assert.ErrorIs(t, err, types.ErrIO)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(tempPath(t), nil)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestOpen_ShortFile(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))
	_, err := Open(path, nil)
	require.ErrorIs(t, err, types.ErrCorruptHeader)
}

func TestOpenOrCreate(t *testing.T) {
	path := tempPath(t)
	r, err := OpenOrCreate(path, nil)
	require.NoError(t, err)
	putRaw(t, r, coord(1, 1), 100, 1)
	require.NoError(t, r.FlushHeader(context.Background()))
	require.NoError(t, r.Close())

	r, err = OpenOrCreate(path, nil)
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, r.Has(coord(1, 1)))
}

func TestPut_AllocatesAtFirstDataSector(t *testing.T) {
	r := newRegion(t)
	c := coord(0, 0)

	// 4999 payload bytes + 1 tag byte = 5000; with the length prefix that
	// needs ceil(5004/4096) = 2 sectors.
	putRaw(t, r, c, 4999, 1)

	rec, ok := r.Record(c)
	require.True(t, ok)
	assert.Equal(t, types.SectorRun{Start: 2, Count: 2}, rec.Run)
	assert.Equal(t, uint32(4), r.FileSectors())
	assert.Empty(t, r.FreeRanges())
	requireConsistent(t, r)

	require.NoError(t, r.FlushHeader(context.Background()))
	raw, err := os.ReadFile(r.Path())
	require.NoError(t, err)
	start, count := format.UnpackEntry(format.ReadU32(raw, format.SectorEntryOffset(0)))
	assert.Equal(t, uint32(2), start)
	assert.Equal(t, uint8(2), count)
	requireFileValid(t, r.Path())
}

func TestPut_ShrinkInPlaceFreesTail(t *testing.T) {
	r := newRegion(t)
	c := coord(0, 0)
	putRaw(t, r, c, 4999, 1)

	// 994 + 1 = 995 bytes needs a single sector.
	data := putRaw(t, r, c, 994, 2)

	rec, ok := r.Record(c)
	require.True(t, ok)
	assert.Equal(t, types.SectorRun{Start: 2, Count: 1}, rec.Run)
	assert.Equal(t, []alloc.Range{{Start: 3, End: 4}}, r.FreeRanges())
	assert.Equal(t, uint32(4), r.FileSectors(), "shrinking never truncates")
	requireConsistent(t, r)

	got, ok, err := r.GetChunk(c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, data, got.Data)
	assert.Equal(t, types.Timestamp(1002), got.Timestamp)
}

func TestDelete_GapReusedFirstFit(t *testing.T) {
	r := newRegion(t)
	a, b, c := coord(0, 0), coord(1, 0), coord(2, 0)
	putRaw(t, r, a, 100, 1)
	putRaw(t, r, b, 100, 2)
	putRaw(t, r, c, 100, 3)

	recB, _ := r.Record(b)
	assert.Equal(t, types.SectorRun{Start: 3, Count: 1}, recB.Run)

	require.NoError(t, r.DeleteChunk(b))
	assert.False(t, r.Has(b))
	assert.Zero(t, r.Timestamp(b))
	assert.Equal(t, []alloc.Range{{Start: 3, End: 4}}, r.FreeRanges())

	d := coord(3, 0)
	putRaw(t, r, d, 200, 4)
	recD, ok := r.Record(d)
	require.True(t, ok)
	assert.Equal(t, types.SectorRun{Start: 3, Count: 1}, recD.Run, "first fit fills the gap")
	assert.Equal(t, uint32(5), r.FileSectors(), "no append")
	assert.Empty(t, r.FreeRanges())
	requireConsistent(t, r)

	require.NoError(t, r.DeleteChunk(b), "deleting an empty slot is a no-op")
}

func TestPut_GrowRelocates(t *testing.T) {
	r := newRegion(t)
	a, b := coord(0, 0), coord(1, 0)
	putRaw(t, r, a, 100, 1)
	putRaw(t, r, b, 100, 2)

	data := putRaw(t, r, a, 3*format.SectorSize, 3)
	rec, _ := r.Record(a)
	assert.Equal(t, types.SectorRun{Start: 4, Count: 4}, rec.Run)
	assert.Equal(t, []alloc.Range{{Start: 2, End: 3}}, r.FreeRanges())
	requireConsistent(t, r)

	got, ok, err := r.GetChunk(a)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, data, got.Data)
}

func TestPut_GrowAbsorbsFreeTail(t *testing.T) {
	r := newRegion(t)
	a, b := coord(0, 0), coord(1, 0)
	putRaw(t, r, a, 100, 1)
	putRaw(t, r, b, 100, 2)
	require.NoError(t, r.DeleteChunk(b))

	putRaw(t, r, coord(2, 0), 2*format.SectorSize, 3)
	rec, _ := r.Record(coord(2, 0))
	assert.Equal(t, types.SectorRun{Start: 3, Count: 3}, rec.Run)
	assert.Equal(t, uint32(6), r.FileSectors())
	requireConsistent(t, r)
}

func TestPut_PayloadTooLarge(t *testing.T) {
	r := newRegion(t)

	err := r.PutChunk(coord(0, 0), make([]byte, format.MaxPayloadSize+1), types.SchemeUncompressed, 1)
	require.ErrorIs(t, err, types.ErrPayloadTooLarge)
	assert.False(t, r.Has(coord(0, 0)))
	assert.Equal(t, uint32(2), r.FileSectors())
	assert.False(t, r.Dirty())

	require.NoError(t, r.PutChunk(coord(0, 0), make([]byte, format.MaxPayloadSize), types.SchemeUncompressed, 1))
	rec, _ := r.Record(coord(0, 0))
	assert.Equal(t, uint8(255), rec.Run.Count)
}

func TestRoundTrip_AllSchemes(t *testing.T) {
	path := tempPath(t)
	r, err := Create(path, nil)
	require.NoError(t, err)

	text := bytes.Repeat([]byte("minecraft:stone "), 2000)
	want := map[types.Coord]types.Chunk{
		coord(0, 0):   {Scheme: types.SchemeGZip, Timestamp: 11, Data: text},
		coord(31, 31): {Scheme: types.SchemeZlib, Timestamp: 22, Data: payload(9000, 7)},
		coord(5, 17):  {Scheme: types.SchemeUncompressed, Timestamp: 33, Data: payload(12345, 8)},
		coord(6, 17):  {Scheme: types.SchemeZlib, Timestamp: 44, Data: []byte{}},
	}
	for c, ch := range want {
		require.NoError(t, r.PutChunk(c, ch.Data, ch.Scheme, ch.Timestamp))
	}
	require.NoError(t, r.FlushHeader(context.Background()))
	require.NoError(t, r.Close())
	requireFileValid(t, path)

	r, err = Open(path, &OpenOptions{Strict: true})
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, len(want), r.Len())

	for c, ch := range want {
		got, ok, err := r.GetChunk(c)
		require.NoError(t, err)
		require.True(t, ok, "%s", c)
		assert.Equal(t, c, got.Coord)
		assert.Equal(t, ch.Scheme, got.Scheme)
		assert.Equal(t, ch.Timestamp, got.Timestamp)
		assert.True(t, bytes.Equal(ch.Data, got.Data), "%s payload", c)
	}

	present := r.Present()
	assert.Equal(t, len(want), present.Count())
	assert.True(t, present.Get(coord(31, 31)))
}

func TestEnvelope_CopyWithoutRecompressing(t *testing.T) {
	src := newRegion(t)
	dst := newRegion(t)
	c := coord(3, 4)
	require.NoError(t, src.PutChunk(c, payload(5000, 1), types.SchemeGZip, 77))

	raw, ok, err := src.GetEnvelope(c)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, dst.PutEnvelope(raw))

	a, _, err := src.GetChunk(c)
	require.NoError(t, err)
	b, _, err := dst.GetChunk(c)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGetChunk_UnknownScheme(t *testing.T) {
	r := newRegion(t)
	c := coord(0, 0)
	require.NoError(t, r.PutEnvelope(types.RawChunk{Coord: c, Scheme: 99, Timestamp: 1, Payload: []byte("opaque")}))

	_, _, err := r.GetChunk(c)
	require.ErrorIs(t, err, types.ErrUnknownScheme)

	raw, ok, err := r.GetEnvelope(c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.Scheme(99), raw.Scheme)
	assert.Equal(t, []byte("opaque"), raw.Payload)

	err = r.PutChunk(c, []byte("x"), 99, 1)
	require.ErrorIs(t, err, types.ErrUnknownScheme)
}

func TestGetChunk_CorruptPayload(t *testing.T) {
	path := tempPath(t)
	r, err := Create(path, nil)
	require.NoError(t, err)
	putRaw(t, r, coord(0, 0), 100, 1)
	putRaw(t, r, coord(1, 0), 100, 2)
	putRaw(t, r, coord(2, 0), 100, 3)
	require.NoError(t, r.FlushHeader(context.Background()))
	require.NoError(t, r.Close())

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	var b [4]byte
	// (0,0): zero length. (1,0): length past its single sector.
	_, err = f.WriteAt(b[:], 2*format.SectorSize)
	require.NoError(t, err)
	format.PutU32(b[:], 0, format.SectorSize)
	_, err = f.WriteAt(b[:], 3*format.SectorSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err = Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	_, _, err = r.GetChunk(coord(0, 0))
	require.ErrorIs(t, err, types.ErrCorruptPayload)
	_, _, err = r.GetChunk(coord(1, 0))
	require.ErrorIs(t, err, types.ErrCorruptPayload)

	got, ok, err := r.GetChunk(coord(2, 0))
	require.NoError(t, err, "other slots unaffected")
	require.True(t, ok)
	assert.Equal(t, payload(100, 3), got.Data)
}

func TestCoordRange(t *testing.T) {
	r := newRegion(t)
	bad := coord(32, 0)
	_, _, err := r.GetChunk(bad)
	require.ErrorIs(t, err, types.ErrCoordRange)
	require.ErrorIs(t, r.PutChunk(bad, nil, types.SchemeZlib, 0), types.ErrCoordRange)
	require.ErrorIs(t, r.DeleteChunk(coord(0, -1)), types.ErrCoordRange)
	assert.False(t, r.Has(bad))
	assert.Zero(t, r.Timestamp(bad))
}

func TestReadOnlyAndClosed(t *testing.T) {
	path := tempPath(t)
	r, err := Create(path, nil)
	require.NoError(t, err)
	putRaw(t, r, coord(0, 0), 10, 1)
	require.NoError(t, r.FlushHeader(context.Background()))
	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "close is idempotent")

	_, _, err = r.GetChunk(coord(0, 0))
	require.ErrorIs(t, err, types.ErrClosed)
	require.ErrorIs(t, r.FlushHeader(context.Background()), types.ErrClosed)

	ro, err := Open(path, &OpenOptions{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()
	assert.True(t, ro.ReadOnly())

	_, ok, err := ro.GetChunk(coord(0, 0))
	require.NoError(t, err)
	assert.True(t, ok)
	require.ErrorIs(t, ro.PutChunk(coord(1, 0), nil, types.SchemeZlib, 0), types.ErrReadOnly)
	require.ErrorIs(t, ro.DeleteChunk(coord(0, 0)), types.ErrReadOnly)
	_, err = ro.Optimize(context.Background(), nil)
	require.ErrorIs(t, err, types.ErrReadOnly)

	_, err = Create(tempPath(t), &OpenOptions{ReadOnly: true})
	require.ErrorIs(t, err, types.ErrReadOnly)
}

func TestFlushHeader_PersistsAcrossReopen(t *testing.T) {
	path := tempPath(t)
	r, err := Create(path, nil)
	require.NoError(t, err)
	putRaw(t, r, coord(0, 0), 100, 1)
	putRaw(t, r, coord(1, 0), 100, 2)
	require.NoError(t, r.DeleteChunk(coord(0, 0)))
	assert.True(t, r.Dirty())
	require.NoError(t, r.FlushHeader(context.Background()))
	assert.False(t, r.Dirty())
	require.NoError(t, r.FlushHeader(context.Background()), "flush with nothing to do")

	// Unflushed changes are dropped by Close. Two sectors do not fit the
	// gap at sector 2, so this one is appended.
	putRaw(t, r, coord(2, 0), 5000, 3)
	require.NoError(t, r.Close())

	r, err = Open(path, nil)
	require.NoError(t, err)
	defer r.Close()
	assert.False(t, r.Has(coord(0, 0)))
	assert.True(t, r.Has(coord(1, 0)))
	assert.False(t, r.Has(coord(2, 0)))
	assert.Equal(t, types.Timestamp(1002), r.Timestamp(coord(1, 0)))
	assert.Equal(t, []alloc.Range{{Start: 2, End: 3}, {Start: 4, End: 6}}, r.FreeRanges(),
		"sectors written after the last flush are free on reopen")
}

func TestFlushHeader_Cancelled(t *testing.T) {
	r := newRegion(t)
	putRaw(t, r, coord(0, 0), 10, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.FlushHeader(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, r.Dirty(), "header stays dirty for the next flush")
	require.NoError(t, r.FlushHeader(context.Background()))
	assert.False(t, r.Dirty())
}

func TestOpen_OverlapLenientAndStrict(t *testing.T) {
	path := tempPath(t)
	writeRegionFile(t, path, map[int]format.Entry{
		0: {Start: 2, Count: 2, Timestamp: 5},
		1: {Start: 3, Count: 1, Timestamp: 6},
		2: {Start: 9, Count: 1, Timestamp: 7}, // past end of file
		3: {Start: 0, Count: 0, Timestamp: 8}, // empty, timestamp kept
	}, 5, 0)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = Open(path, &OpenOptions{Strict: true})
	require.ErrorIs(t, err, types.ErrCorruptHeader)
	var he *types.HeaderError
	require.True(t, errors.As(err, &he))
	require.Len(t, he.Issues, 2)
	assert.Equal(t, types.IssueOverlap, he.Issues[0].Kind)
	assert.Equal(t, 1, he.Issues[0].Slot)
	assert.Equal(t, 0, he.Issues[0].Other)
	assert.Equal(t, types.IssueOutOfBounds, he.Issues[1].Kind)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "strict open never modifies the file")

	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	r, err := Open(path, &OpenOptions{Logger: &logger})
	require.NoError(t, err)
	assert.Len(t, r.Issues(), 2)
	assert.True(t, r.Has(coord(0, 0)))
	assert.False(t, r.Has(coord(1, 0)))
	assert.False(t, r.Has(coord(2, 0)))
	assert.Zero(t, r.Timestamp(coord(1, 0)))
	assert.Equal(t, types.Timestamp(8), r.Timestamp(coord(3, 0)))
	assert.Equal(t, []alloc.Range{{Start: 4, End: 5}}, r.FreeRanges())
	assert.True(t, r.Dirty(), "dropped slots are rewritten on flush")
	assert.Contains(t, logs.String(), "header issue")

	require.NoError(t, r.FlushHeader(context.Background()))
	require.NoError(t, r.Close())

	r, err = Open(path, &OpenOptions{Strict: true})
	require.NoError(t, err)
	defer r.Close()
	assert.Empty(t, r.Issues())
	assert.Equal(t, types.Timestamp(8), r.Timestamp(coord(3, 0)))
}

func TestOpen_PartialTrailingSector(t *testing.T) {
	path := tempPath(t)
	writeRegionFile(t, path, nil, 3, 100)

	_, err := Open(path, &OpenOptions{Strict: true})
	var he *types.HeaderError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, types.IssueFileSize, he.Issues[0].Kind)
	assert.Equal(t, -1, he.Issues[0].Slot)

	ro, err := Open(path, &OpenOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), ro.FileSectors())
	require.NoError(t, ro.Close())
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3*format.SectorSize+100), st.Size(), "read-only open leaves file alone")

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, uint32(4), r.FileSectors())
	assert.Equal(t, []alloc.Range{{Start: 2, End: 4}}, r.FreeRanges())
	requireConsistent(t, r)
}

func TestOpen_PartialTrailingSectorKeepsChunk(t *testing.T) {
	path := tempPath(t)
	data := []byte("chunk in the last partial sector")
	env, err := format.EncodeEnvelope(byte(types.SchemeUncompressed), data)
	require.NoError(t, err)

	var h format.Header
	h.Entries[0] = format.Entry{Start: 2, Count: 1, Timestamp: 1234}
	b := append(format.SerializeHeader(&h), env[:100]...)
	require.NoError(t, os.WriteFile(path, b, 0o644))

	ro, err := Open(path, &OpenOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.False(t, ro.Has(coord(0, 0)), "read-only open cannot pad, so the run is out of bounds")
	require.NoError(t, ro.Close())

	r, err := Open(path, nil)
	require.NoError(t, err)
	require.Len(t, r.Issues(), 1)
	assert.Equal(t, types.IssueFileSize, r.Issues()[0].Kind)
	require.True(t, r.Has(coord(0, 0)))
	assert.Equal(t, uint32(3), r.FileSectors())
	assert.Empty(t, r.FreeRanges())
	requireConsistent(t, r)

	require.NoError(t, r.FlushHeader(context.Background()))
	require.NoError(t, r.Close())

	r2, err := Open(path, &OpenOptions{Strict: true})
	require.NoError(t, err)
	defer r2.Close()
	ch, ok, err := r2.GetChunk(coord(0, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, data, ch.Data)
	assert.Equal(t, types.Timestamp(1234), ch.Timestamp)
	requireFileValid(t, path)
}

func TestIOFault_AppendRollsBack(t *testing.T) {
	r, ff := newFaultRegion(t)
	ff.failWrite = func(off int64) bool { return off >= format.HeaderSize }

	err := r.PutChunk(coord(0, 0), payload(100, 1), types.SchemeUncompressed, 1)
	require.ErrorIs(t, err, types.ErrIO)
	require.ErrorIs(t, err, errInjected)
	assert.False(t, r.Has(coord(0, 0)))
	assert.Equal(t, uint32(2), r.FileSectors())
	assert.Empty(t, r.FreeRanges())
	assert.False(t, r.Dirty())
	requireConsistent(t, r)

	ff.failWrite = nil
	putRaw(t, r, coord(0, 0), 100, 1)
	rec, _ := r.Record(coord(0, 0))
	assert.Equal(t, uint32(2), rec.Run.Start)
}

func TestIOFault_RelocateRollsBack(t *testing.T) {
	r, ff := newFaultRegion(t)
	putRaw(t, r, coord(0, 0), 100, 1)
	putRaw(t, r, coord(1, 0), 100, 2)
	before, _ := r.Record(coord(0, 0))

	ff.failWrite = func(off int64) bool { return off >= format.HeaderSize }
	err := r.PutChunk(coord(0, 0), payload(9000, 3), types.SchemeUncompressed, 9)
	require.ErrorIs(t, err, types.ErrIO)

	after, ok := r.Record(coord(0, 0))
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, uint32(4), r.FileSectors())
	assert.Empty(t, r.FreeRanges())
	requireConsistent(t, r)
}

func TestIOFault_GrowFailure(t *testing.T) {
	r, ff := newFaultRegion(t)
	ff.failGrow = true

	err := r.PutChunk(coord(0, 0), payload(100, 1), types.SchemeUncompressed, 1)
	require.ErrorIs(t, err, types.ErrIO)
	require.ErrorIs(t, err, alloc.ErrGrowFail)
	assert.Equal(t, uint32(2), r.FileSectors())
	requireConsistent(t, r)
}

func TestIOFault_InPlaceKeepsRecord(t *testing.T) {
	r, ff := newFaultRegion(t)
	putRaw(t, r, coord(0, 0), 5000, 1)
	before, _ := r.Record(coord(0, 0))

	ff.failWrite = func(off int64) bool { return off >= format.HeaderSize }
	require.ErrorIs(t, r.PutChunk(coord(0, 0), payload(10, 2), types.SchemeUncompressed, 2), types.ErrIO)

	after, _ := r.Record(coord(0, 0))
	assert.Equal(t, before, after)
	assert.Empty(t, r.FreeRanges())
}
