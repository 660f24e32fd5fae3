package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"
)

type Outcome string

const (
	OutcomeDecoded Outcome = "decoded"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result is what happened to one record of one archive.
type Result struct {
	Archive  string
	Slot     int
	RecordID int32
	Kind     string
	Outcome  Outcome
	Reason   string
	Files    []string
	Bytes    int64
}

// Summary aggregates the results of a run.
type Summary struct {
	Decoded      int
	Skipped      int
	Failed       int
	FilesWritten int
	BytesWritten int64
}

// Metrics collects extraction metrics. Outputs are written from several workers, so
// per-record results are kept in an ordered index and read back in archive/slot order.
type Metrics struct {
	mu sync.RWMutex

	registry      *prometheus.Registry
	records       *prometheus.GaugeVec
	filesWritten  prometheus.Counter
	bytesWritten  prometheus.Counter
	decodeSeconds *prometheus.HistogramVec

	results *btree.BTreeG[*Result]
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rsrc_records",
			Help: "Archive records by kind and final outcome.",
		}, []string{"kind", "outcome"}),
		filesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsrc_files_written_total",
			Help: "Output files written.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsrc_bytes_written_total",
			Help: "Bytes written to output files.",
		}),
		decodeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rsrc_decode_seconds",
			Help:    "Time spent decoding one record.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		results: btree.NewBTreeG(func(a, b *Result) bool {
			if a.Archive != b.Archive {
				return a.Archive < b.Archive
			}
			return a.Slot < b.Slot
		}),
	}

	m.registry.MustRegister(m.records, m.filesWritten, m.bytesWritten, m.decodeSeconds)
	return m
}

// result returns the entry for (archive, slot), creating it. Callers hold mu.
func (m *Metrics) result(archive string, slot int, recordID int32, kind string) *Result {
	if r, ok := m.results.Get(&Result{Archive: archive, Slot: slot}); ok {
		return r
	}
	r := &Result{Archive: archive, Slot: slot, RecordID: recordID, Kind: kind}
	m.results.Set(r)
	return r
}

// RecordDecoded records a record that decoded successfully
func (m *Metrics) RecordDecoded(archive string, slot int, recordID int32, kind string, took time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transition(m.result(archive, slot, recordID, kind), OutcomeDecoded)
	m.decodeSeconds.WithLabelValues(kind).Observe(took.Seconds())

	log.Debug().
		Str("archive", archive).
		Int("slot", slot).
		Dur("duration", took).
		Msg("record decoded")
}

// RecordSkipped records a record that was left out on purpose (unknown type, unsupported depth)
func (m *Metrics) RecordSkipped(archive string, slot int, recordID int32, kind string, reason string) {
	m.record(archive, slot, recordID, kind, OutcomeSkipped, reason)
}

// RecordFailed records a record that could not be decoded or written
func (m *Metrics) RecordFailed(archive string, slot int, recordID int32, kind string, reason string) {
	m.record(archive, slot, recordID, kind, OutcomeFailed, reason)
}

func (m *Metrics) record(archive string, slot int, recordID int32, kind string, outcome Outcome, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.result(archive, slot, recordID, kind)
	m.transition(r, outcome)
	r.Reason = reason
}

// transition moves r to outcome. A record counts toward exactly one outcome, its latest,
// so the gauges always agree with Summary. Callers hold mu.
func (m *Metrics) transition(r *Result, outcome Outcome) {
	if r.Outcome == outcome {
		return
	}
	if r.Outcome != "" {
		m.records.WithLabelValues(r.Kind, string(r.Outcome)).Dec()
	}
	r.Outcome = outcome
	m.records.WithLabelValues(r.Kind, string(outcome)).Inc()
}

// RecordWrite records an output file written for a record
func (m *Metrics) RecordWrite(archive string, slot int, name string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.results.Get(&Result{Archive: archive, Slot: slot}); ok {
		r.Files = append(r.Files, name)
		r.Bytes += n
	}

	m.filesWritten.Inc()
	m.bytesWritten.Add(float64(n))
}

// Results returns a copy of every result in archive, then slot, order.
func (m *Metrics) Results() []Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Result, 0, m.results.Len())
	m.results.Scan(func(r *Result) bool {
		c := *r
		c.Files = append([]string(nil), r.Files...)
		out = append(out, c)
		return true
	})
	return out
}

func (m *Metrics) Summary() Summary {
	var s Summary
	for _, r := range m.Results() {
		switch r.Outcome {
		case OutcomeDecoded:
			s.Decoded++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Failed++
		}
		s.FilesWritten += len(r.Files)
		s.BytesWritten += r.Bytes
	}
	return s
}

// WriteTextfile writes the metrics in the prometheus text format, for the node
// exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
