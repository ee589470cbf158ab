package data

import (
	"sync"
	"time"
)

// TimeProvider supplies the clock used for timestamps written by repositories.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using system time truncated to microseconds,
// the precision PostgreSQL stores.
type RealTimeProvider struct{}

// Now returns the current UTC time.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// FixedTimeProvider implements TimeProvider with a settable time for testing.
type FixedTimeProvider struct {
	mu        sync.Mutex
	fixedTime time.Time
}

// NewFixedTimeProvider creates a new FixedTimeProvider with the given time.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{fixedTime: t.UTC()}
}

// Now returns the fixed time.
func (f *FixedTimeProvider) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fixedTime
}

// SetTime updates the fixed time.
func (f *FixedTimeProvider) SetTime(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixedTime = t.UTC()
}

// AddTime advances the fixed time by d.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixedTime = f.fixedTime.Add(d)
}
