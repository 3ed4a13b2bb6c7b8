package driver

import (
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/rampgen/internal/load"
	"github.com/wesleyorama2/rampgen/internal/metrics"
	"github.com/wesleyorama2/rampgen/internal/output"
	"github.com/wesleyorama2/rampgen/internal/transport"
)

// session is the per-run state shared by real and simulated runs. All of
// its methods run on the event loop goroutine.
type session struct {
	loop      load.EventLoop
	gen       *load.Generator
	interval  time.Duration
	recorder  *metrics.Recorder
	collector *metrics.Collector
	stats     *output.StatsWriter
	console   *output.Console
	counters  func() transport.Counters
	logger    *zap.Logger

	sampler load.Timer
	done    bool
	drained bool
	reason  string
	end     time.Time

	// onFinish is called once, after the final sample.
	onFinish func()
}

// start writes the stats header, starts the generator and arms sampling.
func (s *session) start() {
	s.sampleStats(s.loop.Now())

	if err := s.gen.Start(); err != nil {
		s.logger.Warn("generator could not schedule its first burst", zap.Error(err))
		if s.stranded() {
			s.finish(false, "schedule failed")
			return
		}
	}
	s.arm()
}

// reply handles one reply on the loop goroutine.
func (s *session) reply(requestTime time.Time) {
	if s.done {
		return
	}
	rtt := s.loop.Now().Sub(requestTime)
	s.recorder.Record(s.gen.Stats().PPS, rtt)

	if s.gen.HaveReply(requestTime) == load.Done {
		s.finish(true, "")
	}
}

func (s *session) arm() {
	t, err := s.loop.After(s.interval, s.tick)
	if err != nil {
		s.logger.Debug("cannot arm sampler", zap.Error(err))
		return
	}
	s.sampler = t
}

func (s *session) tick(now time.Time) {
	s.sampler = nil
	if s.done {
		return
	}
	s.sample(now)

	if st := s.gen.State(); st != load.StateSending && s.stranded() {
		s.finish(false, "requests dropped")
		return
	}
	s.arm()
}

// stranded reports whether every unanswered request was dropped by the
// transport, which means the generator can never see its last reply.
func (s *session) stranded() bool {
	st := s.gen.Stats()
	return st.Sent-st.Received <= s.counters().Dropped
}

func (s *session) sample(now time.Time) {
	s.sampleStats(now)

	st := s.gen.Stats()
	s.collector.Observe(st, s.gen.State())
	s.collector.ObserveTransport(s.counters())
	if s.console != nil {
		if err := s.console.PrintProgress(now.Sub(st.Start), s.gen.State(), st); err != nil {
			s.logger.Debug("progress output failed", zap.Error(err))
		}
	}
}

func (s *session) sampleStats(now time.Time) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Sample(now); err != nil {
		s.logger.Warn("stats output failed, disabling it", zap.Error(err))
		s.stats = nil
	}
}

// finish ends the run. Later replies are ignored.
func (s *session) finish(drained bool, reason string) {
	if s.done {
		return
	}
	s.done = true
	s.drained = drained
	s.reason = reason
	s.end = s.loop.Now()

	if s.sampler != nil {
		_ = s.sampler.Stop()
		s.sampler = nil
	}
	_ = s.gen.Stop()
	s.sample(s.end)

	s.logger.Info("run finished",
		zap.Bool("drained", drained),
		zap.String("reason", reason),
		zap.Uint64("sent", s.gen.Stats().Sent),
		zap.Uint64("received", s.gen.Stats().Received))

	if s.onFinish != nil {
		s.onFinish()
	}
}

// abort ends a run from outside the loop once the loop has stopped.
func (s *session) abort(now time.Time, reason string) {
	if s.done {
		return
	}
	s.done = true
	s.reason = reason
	s.end = now
	if s.sampler != nil {
		_ = s.sampler.Stop()
	}
	_ = s.gen.Stop()
	s.sample(now)
	s.logger.Info("run stopped", zap.String("reason", reason))
}

func (s *session) summary(target, mode string) *output.Summary {
	st := s.gen.Stats()
	return &output.Summary{
		Target:    target,
		Mode:      mode,
		State:     s.gen.State(),
		Drained:   s.drained,
		Reason:    s.reason,
		Elapsed:   s.end.Sub(st.Start),
		Stats:     st,
		Transport: s.counters(),
		Latency:   s.recorder.Percentiles(),
		Steps:     s.recorder.Steps(),
	}
}
