package region

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus instrumentation shared by every region opened
// with it. A nil *Metrics records nothing.
type Metrics struct {
	// Chunk operations
	Reads        prometheus.Counter // regionkit_chunk_reads_total
	Writes       prometheus.Counter // regionkit_chunk_writes_total
	Deletes      prometheus.Counter // regionkit_chunk_deletes_total
	BytesWritten prometheus.Counter // regionkit_chunk_bytes_written_total
	Corrupt      prometheus.Counter // regionkit_chunk_corrupt_total

	// Space management
	SectorsAllocated prometheus.Counter // regionkit_sectors_allocated_total
	GrowthSectors    prometheus.Counter // regionkit_file_growth_sectors_total
	HeaderIssues     prometheus.Counter // regionkit_header_issues_total

	// Optimize
	OptimizeRuns     prometheus.Counter // regionkit_optimize_runs_total
	ReclaimedSectors prometheus.Counter // regionkit_optimize_reclaimed_sectors_total

	// Per-file state
	FileSectors *prometheus.GaugeVec // regionkit_file_sectors{region}
	FreeSectors *prometheus.GaugeVec // regionkit_free_sectors{region}
}

// NewMetrics registers the region metrics with reg. A nil reg uses
// prometheus.DefaultRegisterer. Call it once per registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Reads: f.NewCounter(prometheus.CounterOpts{
			Name: "regionkit_chunk_reads_total",
			Help: "Chunks read from region files",
		}),
		Writes: f.NewCounter(prometheus.CounterOpts{
			Name: "regionkit_chunk_writes_total",
			Help: "Chunks written to region files",
		}),
		Deletes: f.NewCounter(prometheus.CounterOpts{
			Name: "regionkit_chunk_deletes_total",
			Help: "Chunks deleted from region files",
		}),
		BytesWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "regionkit_chunk_bytes_written_total",
			Help: "Envelope bytes written, including sector padding",
		}),
		Corrupt: f.NewCounter(prometheus.CounterOpts{
			Name: "regionkit_chunk_corrupt_total",
			Help: "Chunk reads that found a corrupt envelope",
		}),
		SectorsAllocated: f.NewCounter(prometheus.CounterOpts{
			Name: "regionkit_sectors_allocated_total",
			Help: "Sectors handed out by the allocator",
		}),
		GrowthSectors: f.NewCounter(prometheus.CounterOpts{
			Name: "regionkit_file_growth_sectors_total",
			Help: "Sectors appended to region files",
		}),
		HeaderIssues: f.NewCounter(prometheus.CounterOpts{
			Name: "regionkit_header_issues_total",
			Help: "Header slots flagged while opening region files",
		}),
		OptimizeRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "regionkit_optimize_runs_total",
			Help: "Completed optimize operations",
		}),
		ReclaimedSectors: f.NewCounter(prometheus.CounterOpts{
			Name: "regionkit_optimize_reclaimed_sectors_total",
			Help: "Sectors removed from region files by optimize",
		}),
		FileSectors: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "regionkit_file_sectors",
			Help: "Region file length in sectors",
		}, []string{"region"}),
		FreeSectors: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "regionkit_free_sectors",
			Help: "Free sectors between the header and end of file",
		}, []string{"region"}),
	}
}

func (m *Metrics) read() {
	if m != nil {
		m.Reads.Inc()
	}
}

func (m *Metrics) corrupt() {
	if m != nil {
		m.Corrupt.Inc()
	}
}

func (m *Metrics) write(bytes, allocated, grown uint32) {
	if m == nil {
		return
	}
	m.Writes.Inc()
	m.BytesWritten.Add(float64(bytes))
	m.SectorsAllocated.Add(float64(allocated))
	m.GrowthSectors.Add(float64(grown))
}

func (m *Metrics) deleted() {
	if m != nil {
		m.Deletes.Inc()
	}
}

func (m *Metrics) headerIssues(n int) {
	if m != nil && n > 0 {
		m.HeaderIssues.Add(float64(n))
	}
}

func (m *Metrics) optimized(reclaimed uint32) {
	if m == nil {
		return
	}
	m.OptimizeRuns.Inc()
	m.ReclaimedSectors.Add(float64(reclaimed))
}

func (m *Metrics) space(path string, fileSectors, freeSectors uint32) {
	if m == nil {
		return
	}
	m.FileSectors.WithLabelValues(path).Set(float64(fileSectors))
	m.FreeSectors.WithLabelValues(path).Set(float64(freeSectors))
}
