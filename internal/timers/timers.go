// Package timers schedules the periodic and one-shot callbacks of a session.
package timers

import (
	"sync"
	"time"
)

// Round timing.
const (
	CountdownInterval = time.Second
	ObserverInterval  = 3 * time.Minute
	DeferredDelay     = 5 * time.Second
)

// Timer is a handle to a scheduled callback. Stop is idempotent and cancels
// future firings, but a callback already due when Stop is called may still
// start once afterwards. Callers guard their callbacks with their own state.
type Timer interface {
	Stop()
}

// Scheduler arms callbacks. Callbacks run on their own goroutine.
type Scheduler interface {
	Every(d time.Duration, fn func()) Timer
	After(d time.Duration, fn func()) Timer
}

// Real schedules with the runtime clock.
type Real struct{}

func (Real) Every(d time.Duration, fn func()) Timer {
	t := &ticker{stop: make(chan struct{})}
	go t.run(d, fn)
	return t
}

func (Real) After(d time.Duration, fn func()) Timer {
	return afterTimer{time.AfterFunc(d, fn)}
}

type ticker struct {
	stop chan struct{}
	once sync.Once
}

func (t *ticker) run(d time.Duration, fn func()) {
	tk := time.NewTicker(d)
	defer tk.Stop()
	for {
		select {
		case <-tk.C:
			select {
			case <-t.stop:
				return
			default:
			}
			fn()
		case <-t.stop:
			return
		}
	}
}

func (t *ticker) Stop() {
	t.once.Do(func() { close(t.stop) })
}

type afterTimer struct {
	t *time.Timer
}

func (a afterTimer) Stop() {
	a.t.Stop()
}
