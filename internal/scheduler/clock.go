// Package scheduler runs delayed callbacks against a game/animation clock.
package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// Scheduler invokes a callback once after delay has elapsed on its clock.
// There is no cancellation handle; callbacks guard themselves with state flags.
type Scheduler interface {
	ScheduleOnce(delay time.Duration, fn func())
}

// Every runs fn now and then every interval for as long as valid reports true.
// The check happens before each run, so once valid turns false fn never runs
// again and nothing further is scheduled.
func Every(s Scheduler, interval time.Duration, valid func() bool, fn func()) {
	var tick func()
	tick = func() {
		if !valid() {
			return
		}
		fn()
		s.ScheduleOnce(interval, tick)
	}
	tick()
}

type task struct {
	due time.Duration
	seq uint64
	fn  func()
}

type taskHeap []task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due == h[j].due {
		return h[i].seq < h[j].seq
	}
	return h[i].due < h[j].due
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = task{}
	*h = old[:n-1]
	return t
}

// Clock is a manually advanced game clock.
// Callbacks run on the goroutine calling Advance, in due order, FIFO for ties.
type Clock struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks taskHeap
}

// NewClock creates a clock at time zero.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the elapsed game time.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Pending returns the number of callbacks waiting to fire.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

// ScheduleOnce queues fn to run once delay has elapsed. Negative delays run on the next Advance.
func (c *Clock) ScheduleOnce(delay time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if delay < 0 {
		delay = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	heap.Push(&c.tasks, task{due: c.now + delay, seq: c.seq, fn: fn})
}

// Advance moves the clock forward by dt and runs every callback that became due,
// including ones scheduled by callbacks inside the window. Returns how many ran.
func (c *Clock) Advance(dt time.Duration) int {
	if dt < 0 {
		dt = 0
	}

	c.mu.Lock()
	target := c.now + dt
	c.mu.Unlock()

	fired := 0
	for {
		c.mu.Lock()
		if len(c.tasks) == 0 || c.tasks[0].due > target {
			c.now = target
			c.mu.Unlock()
			return fired
		}
		t := heap.Pop(&c.tasks).(task)
		c.now = t.due
		c.mu.Unlock()

		t.fn()
		fired++
	}
}
