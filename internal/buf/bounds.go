package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false when
// the result would overflow int or either operand is negative.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// CheckRunBounds validates that count units of unitSize bytes starting at unit
// index start fit inside a buffer of bufLen bytes. It returns the byte range
// [off, end) on success, or an error naming the specific failure.
//
//	off, end, err := buf.CheckRunBounds(len(data), int(start), int(count), format.SectorSize)
//	if err != nil {
//	    return fmt.Errorf("slot %d: %w", slot, err)
//	}
func CheckRunBounds(bufLen, start, count, unitSize int) (int, int, error) {
	if start < 0 {
		return 0, 0, fmt.Errorf("negative start: %d", start)
	}
	if count < 0 {
		return 0, 0, fmt.Errorf("negative count: %d", count)
	}
	off, ok := MulOverflowSafe(start, unitSize)
	if !ok {
		return 0, 0, fmt.Errorf("overflow: start=%d * unit=%d", start, unitSize)
	}
	size, ok := MulOverflowSafe(count, unitSize)
	if !ok {
		return 0, 0, fmt.Errorf("overflow: count=%d * unit=%d", count, unitSize)
	}
	end, ok := AddOverflowSafe(off, size)
	if !ok {
		return 0, 0, fmt.Errorf("overflow: offset=%d + size=%d", off, size)
	}
	if end > bufLen {
		return 0, 0, fmt.Errorf("bounds: end=%d > len=%d", end, bufLen)
	}
	return off, end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
