package dirty

// DebugRanges returns the current raw, uncoalesced dirty ranges.
func (t *Tracker) DebugRanges() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// DebugCoalescedRanges returns the page-aligned, merged ranges WriteHeader would write.
func (t *Tracker) DebugCoalescedRanges() []Range {
	return t.coalesce()
}
