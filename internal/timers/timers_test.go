package timers

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualEvery(t *testing.T) {
	m := NewManual()
	var n int
	m.Every(time.Second, func() { n++ })

	m.Advance(3500 * time.Millisecond)
	assert.Equal(t, 3, n)

	m.Advance(500 * time.Millisecond)
	assert.Equal(t, 4, n)
}

func TestManualAfterFiresOnce(t *testing.T) {
	m := NewManual()
	var n int
	m.After(5*time.Second, func() { n++ })

	m.Advance(4 * time.Second)
	assert.Equal(t, 0, n)
	m.Advance(10 * time.Second)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, m.Active())
}

func TestManualStopFromCallback(t *testing.T) {
	m := NewManual()
	var n int
	var tm Timer
	tm = m.Every(time.Second, func() {
		n++
		if n == 2 {
			tm.Stop()
		}
	})

	m.Advance(10 * time.Second)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, m.Active())
}

func TestManualOrdersByDueTime(t *testing.T) {
	m := NewManual()
	var order []string
	m.After(2*time.Second, func() { order = append(order, "b") })
	m.After(time.Second, func() { order = append(order, "a") })
	m.Every(3*time.Second, func() { order = append(order, "c") })

	m.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRealEveryAndStop(t *testing.T) {
	var n atomic.Int32
	tm := Real{}.Every(5*time.Millisecond, func() { n.Add(1) })

	assert.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, time.Millisecond)

	tm.Stop()
	tm.Stop()
	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, n.Load(), stopped+1)
}

func TestRealAfter(t *testing.T) {
	done := make(chan struct{})
	Real{}.After(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("After callback did not fire")
	}
}
