package load

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Generator is the load state machine. It is not safe for concurrent use;
// see the package documentation.
type Generator struct {
	loop   EventLoop
	cfg    Config
	sender Sender
	logger *zap.Logger
	hook   func(from, to State)

	state State
	stats Stats
	ramp  ramp

	count  uint32    // packets to send on the next tick
	next   time.Time // when the next burst is due
	timer  Timer     // pending wake-up, if any
	header bool      // stats header written
	done   bool      // Done has been reported
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithStateHook registers fn to be called on every state change.
func WithStateHook(fn func(from, to State)) Option {
	return func(g *Generator) {
		g.hook = fn
	}
}

// New creates a generator. cfg is copied after defaults are applied.
func New(loop EventLoop, cfg *Config, sender Sender, opts ...Option) (*Generator, error) {
	if loop == nil {
		return nil, errors.New("event loop is required")
	}
	if sender == nil {
		return nil, errors.New("sender is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}

	c := *cfg
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	g := &Generator{
		loop:   loop,
		cfg:    c,
		sender: sender,
		logger: zap.NewNop(),
		state:  StateInit,
	}
	g.ramp.cfg = &g.cfg

	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(zap.String("component", "load-generator"))

	return g, nil
}

// Config returns the configuration in effect, defaults included.
func (g *Generator) Config() Config {
	return g.cfg
}

// State returns the current state.
func (g *Generator) State() State {
	return g.state
}

// Stats returns a snapshot of the running statistics.
func (g *Generator) Stats() Stats {
	return g.stats
}

// Start begins the run and sends the first burst.
//
// If the first wake-up cannot be armed the generator drains the burst that
// was not sent and Start returns an error wrapping ErrSchedule.
func (g *Generator) Start() error {
	start := g.loop.Now()

	g.stats.Start = start
	g.ramp.reset(start)
	g.stats.PPS = g.ramp.pps
	g.next = start.Add(g.ramp.delta)
	g.count = g.cfg.Parallel

	g.logger.Info("load generator started",
		zap.Uint32("start_pps", g.cfg.StartPPS),
		zap.Uint32("max_pps", g.cfg.MaxPPS),
		zap.Uint32("step", g.cfg.Step),
		zap.Duration("duration", g.cfg.Duration),
		zap.Uint32("parallel", g.cfg.Parallel),
		zap.Uint32("milliseconds", g.cfg.Milliseconds))

	if err := g.tick(start); err != nil {
		return fmt.Errorf("%w: %v", ErrSchedule, err)
	}
	return nil
}

// Stop cancels the pending wake-up, if any.
func (g *Generator) Stop() error {
	if g.timer == nil {
		return nil
	}
	t := g.timer
	g.timer = nil
	return t.Stop()
}

// HaveReply reports a reply to a request sent at requestTime. It returns
// Done exactly once, when the generator is draining and every sent request
// has been answered; the generator is inert afterwards.
func (g *Generator) HaveReply(requestTime time.Time) Reply {
	if g.done {
		return Continue
	}

	now := g.loop.Now()
	t := now.Sub(requestTime)
	if t < 0 {
		t = 0
	}

	g.stats.record(t)
	if pps, ok := g.ramp.accepted(now, g.stats.Received); ok {
		g.stats.PPSAccepted = pps
	}

	switch g.state {
	case StateGated:
		g.stats.Blocked = true
		// The failure has already moved the state to draining.
		_ = g.tick(now)
		return Continue

	case StateDraining:
		if g.stats.Received < g.stats.Sent {
			return Continue
		}
		g.stats.End = now
		g.done = true
		g.logger.Info("load generator drained",
			zap.Uint64("sent", g.stats.Sent),
			zap.Uint64("received", g.stats.Received),
			zap.Duration("elapsed", now.Sub(g.stats.Start)))
		return Done

	default:
		return Continue
	}
}

// fire is the timer callback.
func (g *Generator) fire(now time.Time) {
	g.timer = nil
	// The failure has already moved the state to draining.
	_ = g.tick(now)
}

// tick accounts for the packets of this tick, decides whether to keep
// sending, arms the next wake-up and finally sends.
func (g *Generator) tick(now time.Time) error {
	accounted := g.count
	g.stats.Sent += uint64(accounted)

	backlog := g.stats.Backlog()
	g.stats.updateBacklog(backlog, g.ramp.pps)
	g.stats.LastSend = now

	var delay time.Duration
	if uint64(g.stats.BacklogEMA)*1000 < uint64(g.ramp.pps)*uint64(g.cfg.Milliseconds) {
		g.setState(evAdmit)
		g.stats.Blocked = false
		g.count = g.cfg.Parallel

		g.next = g.next.Add(g.ramp.delta)
		if g.next.After(now) {
			delay = g.next.Sub(now)
		}
	} else {
		// These packets are still sent; further ones wait for a reply.
		g.setState(evGate)
		g.count = 1
		g.next = now.Add(g.ramp.delta)
	}

	if g.ramp.due(g.next) {
		capped := g.ramp.advance(g.next, g.stats.Received)
		g.stats.PPS = g.ramp.pps
		g.logger.Debug("ramp step",
			zap.Uint32("pps", g.ramp.pps),
			zap.Duration("delta", g.ramp.delta),
			zap.Uint32("pps_accepted", g.stats.PPSAccepted))
		if capped {
			g.setState(evCap)
		}
	}

	if g.state == StateSending {
		timer, err := g.loop.After(delay, g.fire)
		if err != nil {
			// Nothing is sent, so do not wait for replies to it.
			g.stats.Sent -= uint64(accounted)
			g.setState(evScheduleFailed)
			g.logger.Warn("cannot schedule next burst, draining", zap.Error(err))
			return err
		}
		g.timer = timer
	}

	// The estimate above counted the previous burst size; the counters
	// must hold what is actually sent or draining never completes.
	if g.count != accounted {
		g.stats.Sent = g.stats.Sent - uint64(accounted) + uint64(g.count)
		if backlog := g.stats.Backlog(); backlog > g.stats.MaxBacklog {
			g.stats.MaxBacklog = backlog
		}
	}

	// A reply delivered from inside Send may tick again and change g.count.
	count := g.count
	for i := uint32(0); i < count; i++ {
		g.sender.Send(now)
	}
	return nil
}

func (g *Generator) setState(ev event) {
	from := g.state
	g.state = from.transition(ev)
	if g.state == from {
		return
	}

	g.logger.Debug("state change",
		zap.Stringer("from", from),
		zap.Stringer("to", g.state),
		zap.Stringer("event", ev),
		zap.Int64("backlog_ema", g.stats.BacklogEMA))
	if g.hook != nil {
		g.hook(from, g.state)
	}
}
