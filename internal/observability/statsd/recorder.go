package statsd

import (
	"maps"
	"sync"
	"time"
)

// Nop discards every metric.
type Nop struct{}

// Count implements Sink.
func (Nop) Count(string, int64, map[string]string) {}

// Gauge implements Sink.
func (Nop) Gauge(string, float64, map[string]string) {}

// Timing implements Sink.
func (Nop) Timing(string, time.Duration, map[string]string) {}

// Sample is a single metric captured by a Recorder.
type Sample struct {
	Kind  string
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder keeps metrics in memory. It is meant for tests and dry runs.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

var (
	_ Sink = Nop{}
	_ Sink = (*Recorder)(nil)
)

// Count implements Sink.
func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Sample{Kind: "c", Name: name, Value: float64(value), Tags: maps.Clone(tags)})
}

// Gauge implements Sink.
func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.add(Sample{Kind: "g", Name: name, Value: value, Tags: maps.Clone(tags)})
}

// Timing implements Sink.
func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Sample{Kind: "ms", Name: name, Value: float64(value) / float64(time.Millisecond), Tags: maps.Clone(tags)})
}

func (r *Recorder) add(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

// Total sums the counter values recorded under name whose tags include match.
func (r *Recorder) Total(name string, match map[string]string) int64 {
	var total int64
	for _, s := range r.Samples() {
		if s.Kind != "c" || s.Name != name || !hasTags(s.Tags, match) {
			continue
		}
		total += int64(s.Value)
	}
	return total
}

func hasTags(tags, match map[string]string) bool {
	for k, v := range match {
		if tags[k] != v {
			return false
		}
	}
	return true
}
