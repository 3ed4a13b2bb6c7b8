package loop

import (
	"container/heap"
	"time"

	"github.com/wesleyorama2/rampgen/internal/load"
)

// Virtual is an event loop on a simulated clock. Nothing happens until the
// caller advances it; timers fire in due order, ties in the order they were
// armed. It is not safe for concurrent use.
type Virtual struct {
	now    time.Time
	seq    uint64
	timers timerHeap
}

// NewVirtual creates a simulated loop whose clock reads start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the simulated time.
func (v *Virtual) Now() time.Time {
	return v.now
}

// After arms a timer d after the current simulated time. Negative durations
// fire at the current time.
func (v *Virtual) After(d time.Duration, fn func(now time.Time)) (load.Timer, error) {
	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTimer{due: v.now.Add(d), seq: v.seq, fn: fn}
	heap.Push(&v.timers, t)
	return t, nil
}

// Pending returns the number of armed timers that have not been stopped.
func (v *Virtual) Pending() int {
	n := 0
	for _, t := range v.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Next returns the due time of the earliest live timer.
func (v *Virtual) Next() (time.Time, bool) {
	v.prune()
	if len(v.timers) == 0 {
		return time.Time{}, false
	}
	return v.timers[0].due, true
}

// Step fires the earliest live timer, moving the clock to its due time.
// It reports false when no timer is armed.
func (v *Virtual) Step() bool {
	v.prune()
	if len(v.timers) == 0 {
		return false
	}
	t := heap.Pop(&v.timers).(*virtualTimer)
	if t.due.After(v.now) {
		v.now = t.due
	}
	t.stopped = true
	t.fn(v.now)
	return true
}

// RunUntil fires every timer due at or before deadline, including timers
// armed by the callbacks, and leaves the clock at deadline.
func (v *Virtual) RunUntil(deadline time.Time) {
	for {
		due, ok := v.Next()
		if !ok || due.After(deadline) {
			break
		}
		v.Step()
	}
	if deadline.After(v.now) {
		v.now = deadline
	}
}

// Advance runs the loop for d of simulated time.
func (v *Virtual) Advance(d time.Duration) {
	v.RunUntil(v.now.Add(d))
}

func (v *Virtual) prune() {
	for len(v.timers) > 0 && v.timers[0].stopped {
		heap.Pop(&v.timers)
	}
}

type virtualTimer struct {
	due     time.Time
	seq     uint64
	fn      func(time.Time)
	stopped bool
}

// Stop cancels the timer. Stopping a fired timer is a no-op.
func (t *virtualTimer) Stop() error {
	t.stopped = true
	return nil
}

type timerHeap []*virtualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*virtualTimer)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

var _ load.EventLoop = (*Virtual)(nil)
