// Package transport sends the requests a load.Generator asks for and
// reports each reply with the time its request was sent.
//
// Every Sender here reports exactly one reply per request, failed and
// timed out requests included, so that a draining generator terminates.
// The only exception is a request counted as Dropped.
package transport

import (
	"sync/atomic"
	"time"
)

// Replier receives replies. Senders call it from their own goroutines, so
// implementations must be safe for concurrent use.
type Replier interface {
	Reply(requestTime time.Time)
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(requestTime time.Time)

// Reply calls f(requestTime).
func (f ReplierFunc) Reply(requestTime time.Time) { f(requestTime) }

// Counters are the outcome tallies of a sender.
type Counters struct {
	Requests uint64 // requests handed to the network
	Replies  uint64 // replies reported, failures included
	Errors   uint64 // transport errors and failed checks
	Lost     uint64 // requests given up on after the reply timeout, reported as replies
	Dropped  uint64 // requests that will never be reported
}

type counters struct {
	requests atomic.Uint64
	replies  atomic.Uint64
	errors   atomic.Uint64
	lost     atomic.Uint64
	dropped  atomic.Uint64
}

func (c *counters) snapshot() Counters {
	return Counters{
		Requests: c.requests.Load(),
		Replies:  c.replies.Load(),
		Errors:   c.errors.Load(),
		Lost:     c.lost.Load(),
		Dropped:  c.dropped.Load(),
	}
}
