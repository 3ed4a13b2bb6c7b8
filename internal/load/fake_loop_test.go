package load

import (
	"errors"
	"sort"
	"time"
)

var errLoopFull = errors.New("loop refused timer")

// fakeLoop is a simulated clock that fires timers in due order.
type fakeLoop struct {
	now    time.Time
	seq    int
	timers []*fakeTimer
	fail   bool // After returns an error while set
}

type fakeTimer struct {
	loop    *fakeLoop
	due     time.Time
	seq     int
	fn      func(time.Time)
	stopped bool
}

func (t *fakeTimer) Stop() error {
	t.stopped = true
	return nil
}

func newFakeLoop() *fakeLoop {
	return &fakeLoop{now: time.Unix(1_700_000_000, 0)}
}

func (l *fakeLoop) Now() time.Time { return l.now }

func (l *fakeLoop) After(d time.Duration, fn func(time.Time)) (Timer, error) {
	if l.fail {
		return nil, errLoopFull
	}
	l.seq++
	t := &fakeTimer{loop: l, due: l.now.Add(d), seq: l.seq, fn: fn}
	l.timers = append(l.timers, t)
	return t, nil
}

// pending returns the number of armed, unstopped timers.
func (l *fakeLoop) pending() int {
	n := 0
	for _, t := range l.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// step fires the earliest timer due at or before limit.
func (l *fakeLoop) step(limit time.Time) bool {
	sort.SliceStable(l.timers, func(i, j int) bool {
		if l.timers[i].due.Equal(l.timers[j].due) {
			return l.timers[i].seq < l.timers[j].seq
		}
		return l.timers[i].due.Before(l.timers[j].due)
	})
	for len(l.timers) > 0 {
		t := l.timers[0]
		if t.stopped {
			l.timers = l.timers[1:]
			continue
		}
		if t.due.After(limit) {
			return false
		}
		l.timers = l.timers[1:]
		if t.due.After(l.now) {
			l.now = t.due
		}
		t.fn(l.now)
		return true
	}
	return false
}

// advance fires every timer due within d and moves the clock forward by d.
func (l *fakeLoop) advance(d time.Duration) {
	limit := l.now.Add(d)
	for l.step(limit) {
	}
	l.now = limit
}

// drain fires timers until none are left or max steps have run.
func (l *fakeLoop) drain(max int) {
	far := l.now.Add(100 * 365 * 24 * time.Hour)
	for i := 0; i < max && l.step(far); i++ {
	}
}
