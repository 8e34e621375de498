package clock

import (
	"sync"
	"time"
)

// Clock returns the current time as epoch milliseconds.
type Clock interface {
	NowMillis() int64
}

// System is the process-wide wall clock. Successive readings are strictly
// increasing, so two mutations in the same millisecond still get distinct
// timestamps.
var System Clock = &monotonic{now: time.Now}

type monotonic struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewMonotonic returns a strictly increasing clock driven by now.
func NewMonotonic(now func() time.Time) Clock {
	return &monotonic{now: now}
}

func (m *monotonic) NowMillis() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.now().UnixMilli()
	if t <= m.last {
		t = m.last + 1
	}
	m.last = t
	return t
}

// Fake is a manually driven clock for tests. Every reading advances the
// clock by Step (1ms when zero).
type Fake struct {
	mu   sync.Mutex
	now  int64
	Step int64
}

// NewFake returns a Fake starting at start.
func NewFake(start int64) *Fake {
	return &Fake{now: start}
}

func (f *Fake) NowMillis() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	step := f.Step
	if step == 0 {
		step = 1
	}
	f.now += step
	return f.now
}

// Set moves the clock to ms; the next reading is ms+Step.
func (f *Fake) Set(ms int64) {
	f.mu.Lock()
	f.now = ms
	f.mu.Unlock()
}

// Peek returns the last value handed out without advancing.
func (f *Fake) Peek() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Or returns c, falling back to System when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return System
	}
	return c
}

// Time converts epoch milliseconds to a local time.Time.
func Time(ms int64) time.Time {
	return time.UnixMilli(ms)
}
