package obs

import (
	"sort"
	"strings"
	"sync"
)

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters/histograms.
// Implementations must be safe for concurrent use.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(string, float64, ...Label)   {}
func (NopMeter) Histogram(string, float64, ...Label) {}

// MemMeter keeps counter totals and histogram observations in memory.
// Series are keyed by name plus sorted labels, e.g. `requests{method=GET}`.
type MemMeter struct {
	mu       sync.Mutex
	counters map[string]float64
	samples  map[string][]float64
}

func NewMemMeter() *MemMeter {
	return &MemMeter{
		counters: make(map[string]float64),
		samples:  make(map[string][]float64),
	}
}

func (m *MemMeter) Counter(name string, value float64, labels ...Label) {
	k := SeriesKey(name, labels...)
	m.mu.Lock()
	m.counters[k] += value
	m.mu.Unlock()
}

func (m *MemMeter) Histogram(name string, value float64, labels ...Label) {
	k := SeriesKey(name, labels...)
	m.mu.Lock()
	m.samples[k] = append(m.samples[k], value)
	m.mu.Unlock()
}

// CounterValue returns the running total of a counter series.
func (m *MemMeter) CounterValue(name string, labels ...Label) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[SeriesKey(name, labels...)]
}

// Observations returns a copy of the values recorded for a histogram series.
func (m *MemMeter) Observations(name string, labels ...Label) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.samples[SeriesKey(name, labels...)]...)
}

// Counters returns a snapshot of every counter series keyed by SeriesKey.
func (m *MemMeter) Counters() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

func SeriesKey(name string, labels ...Label) string {
	if len(labels) == 0 {
		return name
	}
	ls := append([]Label(nil), labels...)
	sort.Slice(ls, func(i, j int) bool { return ls[i].Key < ls[j].Key })
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, l := range ls {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(l.Key)
		b.WriteByte('=')
		b.WriteString(l.Value)
	}
	b.WriteByte('}')
	return b.String()
}
