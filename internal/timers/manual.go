package timers

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler for tests. Time only moves on Advance,
// and due callbacks run synchronously on the caller's goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers map[int]*manualTimer
}

type manualTimer struct {
	m        *Manual
	id       int
	next     time.Duration
	interval time.Duration // zero for one-shot
	fn       func()
}

func NewManual() *Manual {
	return &Manual{timers: make(map[int]*manualTimer)}
}

func (m *Manual) Every(d time.Duration, fn func()) Timer {
	return m.add(d, d, fn)
}

func (m *Manual) After(d time.Duration, fn func()) Timer {
	return m.add(d, 0, fn)
}

func (m *Manual) add(first, interval time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{m: m, id: m.seq, next: m.now + first, interval: interval, fn: fn}
	m.timers[t.id] = t
	return t
}

func (t *manualTimer) Stop() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	delete(t.m.timers, t.id)
}

// Active reports how many timers are armed.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Advance moves the clock forward, firing due callbacks in time order.
// Callbacks may stop or arm timers.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.nextDue(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = t.next
		if t.interval > 0 {
			t.next += t.interval
		} else {
			delete(m.timers, t.id)
		}
		fn := t.fn
		m.mu.Unlock()

		fn()
	}
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	due := make([]*manualTimer, 0, len(m.timers))
	for _, t := range m.timers {
		if t.next <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].next != due[j].next {
			return due[i].next < due[j].next
		}
		return due[i].id < due[j].id
	})
	return due[0]
}
