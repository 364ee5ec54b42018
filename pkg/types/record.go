package types

// AllocationRecord describes one occupied slot: where its envelope lives and
// when it was last written.
type AllocationRecord struct {
	Coord     Coord     `json:"coord"`
	Run       SectorRun `json:"run"`
	Timestamp Timestamp `json:"timestamp"`
}

// Chunk is a decoded chunk as returned by a region read.
type Chunk struct {
	Coord     Coord
	Scheme    Scheme
	Timestamp Timestamp
	Data      []byte // decompressed payload
}

// RawChunk is a chunk with its payload still compressed. It is what gets
// copied between region files without a decompress/compress round trip.
type RawChunk struct {
	Coord     Coord
	Scheme    Scheme
	Timestamp Timestamp
	Payload   []byte // compressed payload, without the envelope prefix
}
