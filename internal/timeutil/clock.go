// Package timeutil provides a testable abstraction over time operations.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides an abstraction over time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t. It uses the monotonic reading.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock is a manually controlled clock for testing.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set sets the mock clock to a specific time.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the mock clock forward by the given duration.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Since returns the duration since t.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Chrono measures wall time from the moment it was started.
// Readings are cumulative; there is no per-lap reset.
type Chrono struct {
	clock Clock
	start time.Time
}

// StartChrono starts a Chrono on clock. A nil clock uses RealClock.
func StartChrono(clock Clock) *Chrono {
	if clock == nil {
		clock = RealClock{}
	}
	return &Chrono{clock: clock, start: clock.Now()}
}

// Elapsed returns the time since the chrono was started.
func (c *Chrono) Elapsed() time.Duration {
	return c.clock.Since(c.start)
}

// Seconds returns Elapsed in seconds.
func (c *Chrono) Seconds() float64 {
	return c.Elapsed().Seconds()
}
