package defrag

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/internal/writer"
	"github.com/joshuapare/regionkit/pkg/types"
)

func rec(x, z int, start uint32, count uint8, ts types.Timestamp) types.AllocationRecord {
	return types.AllocationRecord{
		Coord:     types.Coord{X: x, Z: z},
		Run:       types.SectorRun{Start: start, Count: count},
		Timestamp: ts,
	}
}

// buildSource lays records out in a byte image, filling each run with a
// byte derived from its slot so copies can be checked.
func buildSource(t *testing.T, sectors uint32, records []types.AllocationRecord) ([]byte, format.Header) {
	t.Helper()
	img := make([]byte, format.SectorOffset(sectors))
	var h format.Header
	for _, r := range records {
		fill := byte(r.Coord.Index()%250 + 1)
		copy(img[r.Run.Offset():], bytes.Repeat([]byte{fill}, int(r.Run.Size())))
		h.Entries[r.Coord.Index()] = format.Entry{Start: r.Run.Start, Count: r.Run.Count, Timestamp: uint32(r.Timestamp)}
	}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	copy(img, b)
	return img, h
}

func TestCompact_PacksInStartOrder(t *testing.T) {
	records := []types.AllocationRecord{
		rec(0, 0, 9, 1, 1),
		rec(1, 0, 2, 1, 2),
		rec(2, 0, 4, 3, 3),
	}
	l := Compact(records)
	require.Len(t, l.Placements, 3)
	assert.Equal(t, types.SectorRun{Start: 2, Count: 1}, l.Placements[0].To)
	assert.Equal(t, types.Coord{X: 1}, l.Placements[0].Coord)
	assert.Equal(t, types.SectorRun{Start: 3, Count: 3}, l.Placements[1].To)
	assert.Equal(t, types.SectorRun{Start: 6, Count: 1}, l.Placements[2].To)
	assert.Equal(t, uint32(7), l.FileSectors)
	assert.Equal(t, 2, l.Moved())

	for _, p := range l.Placements {
		assert.LessOrEqual(t, p.To.Start, p.From.Start, "forward copy only")
	}
}

func TestCompact_Empty(t *testing.T) {
	l := Compact(nil)
	assert.Empty(t, l.Placements)
	assert.Equal(t, uint32(2), l.FileSectors)
}

func TestPlan_InPlaceMoves(t *testing.T) {
	records := []types.AllocationRecord{
		rec(0, 0, 2, 2, 0),
		rec(1, 0, 6, 1, 0),
	}
	plan := &types.RelocationPlan{Moves: []types.Move{{Coord: types.Coord{X: 1}, Start: 10}}}
	l, err := Plan(records, plan, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(11), l.FileSectors)
	assert.Equal(t, types.SectorRun{Start: 2, Count: 2}, l.Placements[0].To)
	assert.Equal(t, types.SectorRun{Start: 10, Count: 1}, l.Placements[1].To)
	assert.Equal(t, 1, l.Moved())
}

func TestPlan_PinnedWithCompaction(t *testing.T) {
	records := []types.AllocationRecord{
		rec(0, 0, 2, 2, 0),  // A
		rec(1, 0, 8, 1, 0),  // B, pinned at 3
		rec(2, 0, 10, 2, 0), // C
	}
	plan := &types.RelocationPlan{Moves: []types.Move{{Coord: types.Coord{X: 1}, Start: 3}}}
	l, err := Plan(records, plan, true)
	require.NoError(t, err)

	got := map[types.Coord]types.SectorRun{}
	for _, p := range l.Placements {
		got[p.Coord] = p.To
	}
	// B pinned at [3,4); A (2 sectors) does not fit in [2,3) so goes to 4;
	// C packs after A.
	assert.Equal(t, types.SectorRun{Start: 3, Count: 1}, got[types.Coord{X: 1}])
	assert.Equal(t, types.SectorRun{Start: 4, Count: 2}, got[types.Coord{X: 0}])
	assert.Equal(t, types.SectorRun{Start: 6, Count: 2}, got[types.Coord{X: 2}])
	assert.Equal(t, uint32(8), l.FileSectors)
}

func TestPlan_Invalid(t *testing.T) {
	records := []types.AllocationRecord{
		rec(0, 0, 2, 2, 0),
		rec(1, 0, 4, 1, 0),
		rec(2, 0, 5, 3, 0),
	}
	cases := []struct {
		name    string
		moves   []types.Move
		compact bool
		want    string
	}{
		{"empty slot", []types.Move{{Coord: types.Coord{X: 9}, Start: 20}}, false, "slot is empty"},
		{"off grid", []types.Move{{Coord: types.Coord{X: 40}, Start: 20}}, false, "out of range"},
		{"header", []types.Move{{Coord: types.Coord{X: 1}, Start: 1}}, false, "inside the header"},
		{"duplicate", []types.Move{{Coord: types.Coord{X: 1}, Start: 20}, {Coord: types.Coord{X: 1}, Start: 30}}, false, "more than once"},
		{"limit", []types.Move{{Coord: types.Coord{X: 2}, Start: 0xFFFFFE}}, false, "exceeds addressable"},
		{"overlaps unmoved", []types.Move{{Coord: types.Coord{X: 1}, Start: 3}}, false, "overlaps (0, 0)"},
		{"pinned overlap", []types.Move{{Coord: types.Coord{X: 0}, Start: 20}, {Coord: types.Coord{X: 2}, Start: 21}}, true, "overlaps (0, 0)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Plan(records, &types.RelocationPlan{Moves: tc.moves}, tc.compact)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidRelocationPlan))
			var pe *types.PlanError
			require.True(t, errors.As(err, &pe))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestPlan_OverlapWithUnmovedIgnoredWhenCompacting(t *testing.T) {
	records := []types.AllocationRecord{
		rec(0, 0, 2, 2, 0),
		rec(1, 0, 4, 1, 0),
	}
	plan := &types.RelocationPlan{Moves: []types.Move{{Coord: types.Coord{X: 1}, Start: 2}}}
	l, err := Plan(records, plan, true)
	require.NoError(t, err)
	assert.Equal(t, types.SectorRun{Start: 2, Count: 1}, l.Placements[0].To)
	assert.Equal(t, types.SectorRun{Start: 3, Count: 2}, l.Placements[1].To)
}

func TestRewrite_CopiesRunsAndHeader(t *testing.T) {
	records := []types.AllocationRecord{
		rec(3, 0, 7, 2, 111),
		rec(0, 1, 3, 1, 222),
	}
	src, base := buildSource(t, 10, records)
	base.Entries[5].Timestamp = 99 // empty slot with a timestamp

	l := Compact(records)
	var dst writer.MemFile
	res, err := Rewrite(context.Background(), bytes.NewReader(src), &dst, base, l, 10)
	require.NoError(t, err)
	assert.Equal(t, Result{Moved: 2, Records: 2, OldSectors: 10, NewSectors: 5}, res)
	assert.Equal(t, uint32(5), res.Reclaimed())
	require.Len(t, dst.Buf, 5*format.SectorSize)

	h, err := format.ParseHeader(dst.Buf)
	require.NoError(t, err)
	assert.Equal(t, format.Entry{Start: 2, Count: 1, Timestamp: 222}, h.Entries[32])
	assert.Equal(t, format.Entry{Start: 3, Count: 2, Timestamp: 111}, h.Entries[3])
	assert.Equal(t, uint32(99), h.Entries[5].Timestamp)

	assert.Equal(t, src[3*format.SectorSize:4*format.SectorSize], dst.Buf[2*format.SectorSize:3*format.SectorSize])
	assert.Equal(t, src[7*format.SectorSize:9*format.SectorSize], dst.Buf[3*format.SectorSize:5*format.SectorSize])
}

func TestRewrite_Idempotent(t *testing.T) {
	records := []types.AllocationRecord{
		rec(0, 0, 5, 1, 1),
		rec(1, 0, 2, 2, 2),
	}
	src, base := buildSource(t, 8, records)

	var first writer.MemFile
	_, err := Rewrite(context.Background(), bytes.NewReader(src), &first, base, Compact(records), 8)
	require.NoError(t, err)

	h, err := format.ParseHeader(first.Buf)
	require.NoError(t, err)
	var again []types.AllocationRecord
	for slot, e := range h.Entries {
		if !e.IsEmpty() {
			again = append(again, types.AllocationRecord{
				Coord:     types.CoordFromIndex(slot),
				Run:       types.SectorRun{Start: e.Start, Count: e.Count},
				Timestamp: types.Timestamp(e.Timestamp),
			})
		}
	}
	var second writer.MemFile
	res, err := Rewrite(context.Background(), bytes.NewReader(first.Buf), &second, h, Compact(again), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Moved)
	assert.Equal(t, first.Buf, second.Buf)
}

func TestRewrite_Cancelled(t *testing.T) {
	records := []types.AllocationRecord{rec(0, 0, 2, 1, 0)}
	src, base := buildSource(t, 3, records)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var dst writer.MemFile
	_, err := Rewrite(ctx, bytes.NewReader(src), &dst, base, Compact(records), 3)
	require.ErrorIs(t, err, context.Canceled)
}
