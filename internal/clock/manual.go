package clock

import (
	"sort"
	"sync"
	"time"

	"countdown_timer/internal/engine"
)

// Manual is a deterministic Clock and Scheduler. Time only moves on Advance
// and callbacks only run on Fire, which makes simulated backgrounding trivial.
type Manual struct {
	mu   sync.Mutex
	now  time.Time
	next engine.Handle
	live map[engine.Handle]func()
	all  []func()
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, live: make(map[engine.Handle]func())}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves time forward without delivering callbacks.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Fire delivers one callback to every live registration, in registration order.
func (m *Manual) Fire() {
	m.mu.Lock()
	handles := make([]engine.Handle, 0, len(m.live))
	for h := range m.live {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	fns := make([]func(), 0, len(handles))
	for _, h := range handles {
		fns = append(fns, m.live[h])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Step advances time and fires once.
func (m *Manual) Step(d time.Duration) {
	m.Advance(d)
	m.Fire()
}

// Live returns the number of registrations that have not been cancelled.
func (m *Manual) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Registered returns every callback ever scheduled, cancelled ones included,
// so tests can replay callbacks that were in flight during a cancel.
func (m *Manual) Registered() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]func(){}, m.all...)
}

func (m *Manual) SchedulePeriodic(_ time.Duration, fn func()) engine.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.live[m.next] = fn
	m.all = append(m.all, fn)
	return m.next
}

func (m *Manual) Cancel(h engine.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, h)
}
