package metrics

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordDecoded("a", 1, 10, "image", time.Millisecond)
	m.RecordDecoded("a", 2, 11, "audio", time.Millisecond)
	m.RecordSkipped("a", 3, 0, "unknown", "unsupported record type")
	m.RecordFailed("a", 4, 12, "image", "truncated record")
	m.RecordWrite("a", 1, "1_10_24bit_3_x_2.bmp", 70)
	m.RecordWrite("a", 2, "2_11.raw", 8)
	m.RecordWrite("a", 2, "2_11.wav", 52)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("image", "decoded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("audio", "decoded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("unknown", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("image", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.filesWritten))
	assert.Equal(t, 130.0, testutil.ToFloat64(m.bytesWritten))
	assert.Equal(t, 2, testutil.CollectAndCount(m.decodeSeconds))

	assert.Equal(t, Summary{
		Decoded:      2,
		Skipped:      1,
		Failed:       1,
		FilesWritten: 3,
		BytesWritten: 130,
	}, m.Summary())
}

func TestResultsOrdered(t *testing.T) {
	m := NewMetrics()

	m.RecordDecoded("b", 2, 5, "image", 0)
	m.RecordDecoded("a", 3, 4, "image", 0)
	m.RecordDecoded("b", 1, 3, "audio", 0)
	m.RecordDecoded("a", 1, 2, "audio", 0)

	var order []string
	for _, r := range m.Results() {
		order = append(order, r.Archive+string(rune('0'+r.Slot)))
	}
	assert.Equal(t, []string{"a1", "a3", "b1", "b2"}, order)
}

func TestResultLaterOutcomeWins(t *testing.T) {
	m := NewMetrics()

	m.RecordDecoded("a", 1, 9, "image", 0)
	m.RecordFailed("a", 1, 9, "image", "disk full")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.records.WithLabelValues("image", "decoded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("image", "failed")))
	assert.Equal(t, Summary{Failed: 1}, m.Summary())

	// a repeated outcome does not count twice
	m.RecordFailed("a", 1, 9, "image", "disk full")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("image", "failed")))

	results := m.Results()
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeFailed, results[0].Outcome)
	assert.Equal(t, "disk full", results[0].Reason)
	assert.Equal(t, int32(9), results[0].RecordID)
}

func TestResultsAreCopies(t *testing.T) {
	m := NewMetrics()
	m.RecordDecoded("a", 1, 1, "audio", 0)
	m.RecordWrite("a", 1, "1_1.raw", 4)

	results := m.Results()
	results[0].Files[0] = "changed"
	assert.Equal(t, "1_1.raw", m.Results()[0].Files[0])
}

func TestMetricsConcurrentWrites(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for slot := 1; slot <= 50; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			m.RecordDecoded("a", slot, int32(slot), "image", time.Microsecond)
			m.RecordWrite("a", slot, "f", 1)
		}(slot)
	}
	wg.Wait()

	s := m.Summary()
	assert.Equal(t, 50, s.Decoded)
	assert.Equal(t, 50, s.FilesWritten)
	assert.Equal(t, int64(50), s.BytesWritten)
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordDecoded("a", 1, 1, "image", time.Millisecond)

	path := filepath.Join(t.TempDir(), "rsrc.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `rsrc_records{kind="image",outcome="decoded"} 1`)
	assert.Contains(t, string(data), "rsrc_decode_seconds_bucket")
}
