package clock

import (
	"sync"
	"time"

	"countdown_timer/internal/engine"
)

// serialScheduler delivers callbacks while holding the host lock.
// SchedulePeriodic and Cancel must be called with that lock held.
type serialScheduler struct {
	lock  sync.Locker
	inner engine.Scheduler
	live  map[engine.Handle]bool
}

// Serialize wraps inner so that every callback runs under lock, on the same
// logical thread as the host's own engine calls. A callback that was already
// waiting on the lock when its handle got cancelled is dropped.
func Serialize(inner engine.Scheduler, lock sync.Locker) engine.Scheduler {
	return &serialScheduler{
		lock:  lock,
		inner: inner,
		live:  make(map[engine.Handle]bool),
	}
}

func (s *serialScheduler) SchedulePeriodic(period time.Duration, fn func()) engine.Handle {
	var h engine.Handle
	h = s.inner.SchedulePeriodic(period, func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		if !s.live[h] {
			return
		}
		fn()
	})
	s.live[h] = true
	return h
}

func (s *serialScheduler) Cancel(h engine.Handle) {
	delete(s.live, h)
	s.inner.Cancel(h)
}
