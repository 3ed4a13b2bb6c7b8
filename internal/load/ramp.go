package load

import (
	"math"
	"time"
)

// ramp tracks the current step of the rate ramp.
type ramp struct {
	cfg *Config

	pps   uint32
	delta time.Duration // between bursts of cfg.Parallel packets

	stepStart    time.Time
	stepEnd      time.Time
	stepReceived uint64
}

// reset starts the first step at start with the configured initial rate.
func (r *ramp) reset(start time.Time) {
	r.stepStart = start
	r.stepEnd = start.Add(r.cfg.Duration)
	r.stepReceived = 0
	r.setPPS(r.cfg.StartPPS)
}

func (r *ramp) setPPS(pps uint32) {
	r.pps = pps
	r.delta = interval(pps, r.cfg.Parallel)
}

// due reports whether next lies at or past the end of the current step.
func (r *ramp) due(next time.Time) bool {
	return !next.Before(r.stepEnd)
}

// advance begins a new step at next, raising the rate by cfg.Step. It
// reports whether the ramp has hit its ceiling: the new rate is above
// cfg.MaxPPS, no longer fits in a uint32, or is too fast to space bursts
// at least a nanosecond apart.
func (r *ramp) advance(next time.Time, received uint64) (capped bool) {
	r.stepStart = next
	r.stepEnd = next.Add(r.cfg.Duration)
	r.stepReceived = received

	pps := uint64(r.pps) + uint64(r.cfg.Step)
	if pps > math.MaxUint32 {
		r.setPPS(math.MaxUint32)
		return true
	}
	r.setPPS(uint32(pps))
	if r.delta == 0 {
		return true
	}
	return r.cfg.MaxPPS > 0 && r.pps > r.cfg.MaxPPS
}

// accepted returns the reply rate measured since the start of the step,
// or ok=false while now is not yet past the step start.
func (r *ramp) accepted(now time.Time, received uint64) (pps uint32, ok bool) {
	elapsed := now.Sub(r.stepStart)
	if elapsed <= 0 {
		return 0, false
	}
	return uint32((received - r.stepReceived) * uint64(time.Second) / uint64(elapsed)), true
}

// interval is the spacing of bursts of parallel packets that yields pps
// packets per second.
func interval(pps, parallel uint32) time.Duration {
	return time.Duration(uint64(time.Second) * uint64(parallel) / uint64(pps))
}
