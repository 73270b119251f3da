// Package clock provides the monotonic nanosecond time source used for pacing.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock reports elapsed nanoseconds since an arbitrary epoch.
//
// Implementations must be monotonic: successive calls never return a
// smaller value than an earlier call.
type Clock interface {
	Nanotime() int64
}

// Monotonic is a Clock backed by the runtime's monotonic clock.
type Monotonic struct {
	epoch time.Time
}

// NewMonotonic returns a Clock whose epoch is the moment of the call.
func NewMonotonic() *Monotonic {
	return &Monotonic{epoch: time.Now()}
}

// Nanotime returns nanoseconds elapsed since the clock was created.
func (m *Monotonic) Nanotime() int64 {
	return int64(time.Since(m.epoch))
}

// Fake is a deterministic Clock for tests.
//
// Every call to Nanotime advances the clock by Step nanoseconds after
// reading it, so busy-wait loops make progress without real time passing.
type Fake struct {
	now  atomic.Int64
	step atomic.Int64
}

// NewFake creates a fake clock starting at zero that advances by step
// nanoseconds on each read.
func NewFake(step time.Duration) *Fake {
	f := &Fake{}
	f.step.Store(int64(step))
	return f
}

// Nanotime returns the current fake time and then advances it.
func (f *Fake) Nanotime() int64 {
	step := f.step.Load()
	return f.now.Add(step) - step
}

// Advance moves the clock forward by d without a read.
func (f *Fake) Advance(d time.Duration) {
	f.now.Add(int64(d))
}

// SetStep changes how far each read advances the clock.
func (f *Fake) SetStep(step time.Duration) {
	f.step.Store(int64(step))
}

// Now returns the current fake time without advancing it.
func (f *Fake) Now() int64 {
	return f.now.Load()
}
