package types

import "time"

// Timestamp is the 32-bit unix-seconds value stored per slot.
type Timestamp uint32

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return TimestampOf(time.Now())
}

// TimestampOf converts t, clamping to the representable range.
func TimestampOf(t time.Time) Timestamp {
	s := t.Unix()
	switch {
	case s < 0:
		return 0
	case s > 0xFFFFFFFF:
		return 0xFFFFFFFF
	}
	return Timestamp(s)
}

// Time returns the timestamp as a UTC time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts), 0).UTC()
}
