package load

import (
	"errors"
	"time"
)

// ErrSchedule is returned by Start when the event loop refused to arm the
// first wake-up. The generator is draining afterwards.
var ErrSchedule = errors.New("failed to schedule load timer")

// EventLoop is the timer service a Generator schedules its wake-ups on.
//
// Callbacks passed to After must run on the same goroutine that calls the
// Generator's methods.
type EventLoop interface {
	// Now returns the current time of the loop.
	Now() time.Time

	// After arms a one-shot timer that calls fn with the firing time once d
	// has elapsed. A zero d fires as soon as possible.
	After(d time.Duration, fn func(now time.Time)) (Timer, error)
}

// Timer is a pending wake-up.
type Timer interface {
	// Stop cancels the timer. The callback does not run afterwards.
	Stop() error
}

// Sender transmits one request. now is the time the tick fired and is the
// value the transport must hand back to HaveReply.
type Sender interface {
	Send(now time.Time)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(now time.Time)

// Send calls f(now).
func (f SenderFunc) Send(now time.Time) {
	f(now)
}
