package transport

import (
	"time"

	"github.com/wesleyorama2/rampgen/internal/load"
)

// Simulated models a service as a single FIFO server with a fixed
// processing capacity plus a fixed network latency. It runs entirely on
// the clock of the loop it is given, normally a loop.Virtual.
type Simulated struct {
	loop     load.EventLoop
	replier  Replier
	latency  time.Duration
	service  time.Duration // time to serve one request, 0 for unlimited
	queueCap int           // requests dropped beyond this queue length, 0 for unlimited

	busyUntil time.Time
	inService []time.Time // completion times of queued requests
	counts    counters
}

// NewSimulated creates a service with the given one-way latency and a
// capacity in requests per second; zero capacity never queues.
func NewSimulated(loop load.EventLoop, replier Replier, latency time.Duration, capacity uint32) *Simulated {
	s := &Simulated{
		loop:    loop,
		replier: replier,
		latency: latency,
	}
	if capacity > 0 {
		s.service = time.Second / time.Duration(capacity)
	}
	return s
}

// WithQueueLimit makes the service drop requests that arrive while n are
// already waiting. Dropped requests never reply.
func (s *Simulated) WithQueueLimit(n int) *Simulated {
	s.queueCap = n
	return s
}

// Send models one request arriving now.
func (s *Simulated) Send(now time.Time) {
	s.counts.requests.Add(1)

	arrive := now.Add(s.latency)
	s.trim(arrive)
	if s.queueCap > 0 && len(s.inService) >= s.queueCap {
		s.counts.dropped.Add(1)
		return
	}

	done := arrive
	if s.service > 0 {
		if s.busyUntil.After(done) {
			done = s.busyUntil
		}
		done = done.Add(s.service)
		s.busyUntil = done
		s.inService = append(s.inService, done)
	}
	replyAt := done.Add(s.latency)

	_, err := s.loop.After(replyAt.Sub(s.loop.Now()), func(time.Time) {
		s.counts.replies.Add(1)
		s.replier.Reply(now)
	})
	if err != nil {
		s.counts.errors.Add(1)
		s.counts.dropped.Add(1)
	}
}

// trim forgets requests that finished service before t.
func (s *Simulated) trim(t time.Time) {
	i := 0
	for i < len(s.inService) && !s.inService[i].After(t) {
		i++
	}
	s.inService = s.inService[i:]
}

// Counters returns the outcome tallies so far.
func (s *Simulated) Counters() Counters {
	return s.counts.snapshot()
}
