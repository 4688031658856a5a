package clock

import (
	"sync"
	"time"

	"countdown_timer/internal/engine"
)

// TickerScheduler runs each periodic registration on its own goroutine
// driven by a time.Ticker. Callbacks run unsynchronized; wrap it with
// Serialize before handing it to an engine.
type TickerScheduler struct {
	mu   sync.Mutex
	next engine.Handle
	jobs map[engine.Handle]chan struct{}
}

// NewTickerScheduler returns an empty scheduler.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{jobs: make(map[engine.Handle]chan struct{})}
}

// SchedulePeriodic starts calling fn every period until the handle is cancelled.
func (s *TickerScheduler) SchedulePeriodic(period time.Duration, fn func()) engine.Handle {
	stop := make(chan struct{})

	s.mu.Lock()
	s.next++
	h := s.next
	s.jobs[h] = stop
	s.mu.Unlock()

	go run(period, fn, stop)
	return h
}

// Cancel stops a registration. Unknown or already cancelled handles are ignored.
func (s *TickerScheduler) Cancel(h engine.Handle) {
	s.mu.Lock()
	stop, ok := s.jobs[h]
	delete(s.jobs, h)
	s.mu.Unlock()

	if ok {
		close(stop)
	}
}

// Close cancels every live registration.
func (s *TickerScheduler) Close() {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = make(map[engine.Handle]chan struct{})
	s.mu.Unlock()

	for _, stop := range jobs {
		close(stop)
	}
}

// live returns the number of active registrations.
func (s *TickerScheduler) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func run(period time.Duration, fn func(), stop <-chan struct{}) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			fn()
		}
	}
}
