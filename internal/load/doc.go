// Package load implements the adaptive rate control engine of rampgen.
//
// A Generator emits requests through a Sender at a target packets-per-second
// rate that increases by a fixed step every ramp interval. It watches the
// backlog of outstanding requests and gates itself when the service under
// test cannot keep up, resuming one tick per reply. When the ramp passes the
// configured ceiling the generator drains: no new bursts are scheduled and
// HaveReply reports Done once every sent request has been answered.
//
// # Driving the Generator
//
// The generator has no goroutines or locks of its own. It is driven by two
// call sites that the owner must serialize, typically by confining both to a
// single event loop goroutine:
//
//   - timer wake-ups armed through the EventLoop passed to New
//   - HaveReply, called once per reply with the time the request was sent
//
// # Basic Usage
//
//	gen, err := load.New(loop, &load.Config{
//	    StartPPS: 100,
//	    Step:     100,
//	    MaxPPS:   1000,
//	    Duration: 10 * time.Second,
//	}, load.SenderFunc(func(now time.Time) {
//	    transport.Send(now)
//	}))
//	if err != nil {
//	    return err
//	}
//	if err := gen.Start(); err != nil {
//	    return err
//	}
//
//	// on the loop goroutine, for every reply:
//	if gen.HaveReply(requestTime) == load.Done {
//	    // all requests accounted for
//	}
//
// # Numerical Stability
//
// The RTT and backlog estimators use integer fixed-point arithmetic with
// inverse weights. Samples are summed before the division so the low-order
// bits of small values are not lost.
package load
