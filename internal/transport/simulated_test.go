package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wesleyorama2/rampgen/internal/loop"
)

var epoch = time.Unix(1_700_000_000, 0)

func TestSimulated_FixedLatency(t *testing.T) {
	v := loop.NewVirtual(epoch)

	var rtts []time.Duration
	s := NewSimulated(v, ReplierFunc(func(sent time.Time) {
		rtts = append(rtts, v.Now().Sub(sent))
	}), 5*time.Millisecond, 0)

	s.Send(v.Now())
	v.Advance(3 * time.Millisecond)
	s.Send(v.Now())
	v.Advance(time.Second)

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, rtts)
	assert.Equal(t, Counters{Requests: 2, Replies: 2}, s.Counters())
}

func TestSimulated_CapacityQueues(t *testing.T) {
	v := loop.NewVirtual(epoch)

	var rtts []time.Duration
	s := NewSimulated(v, ReplierFunc(func(sent time.Time) {
		rtts = append(rtts, v.Now().Sub(sent))
	}), 0, 100) // 10ms per request

	for i := 0; i < 3; i++ {
		s.Send(v.Now())
	}
	v.Advance(time.Second)

	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
	}, rtts)
}

func TestSimulated_QueueLimitDrops(t *testing.T) {
	v := loop.NewVirtual(epoch)

	replies := 0
	s := NewSimulated(v, ReplierFunc(func(time.Time) { replies++ }), 0, 10).WithQueueLimit(2)

	for i := 0; i < 5; i++ {
		s.Send(v.Now())
	}
	v.Advance(10 * time.Second)

	assert.Equal(t, 2, replies)
	assert.Equal(t, uint64(3), s.Counters().Dropped)
}
