// Package driver runs a load test: it wires the event loop, the generator,
// a transport and the outputs together and reports the outcome.
package driver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wesleyorama2/rampgen/internal/config"
	rhttp "github.com/wesleyorama2/rampgen/internal/http"
	"github.com/wesleyorama2/rampgen/internal/load"
	"github.com/wesleyorama2/rampgen/internal/loop"
	"github.com/wesleyorama2/rampgen/internal/metrics"
	"github.com/wesleyorama2/rampgen/internal/output"
	"github.com/wesleyorama2/rampgen/internal/transport"
)

// Reasons a run ends without draining.
const (
	ReasonInterrupted = "interrupted"
	ReasonMaxRunTime  = "max run time"
)

// ErrUnbounded is returned by Simulate for a ramp that would never end.
var ErrUnbounded = errors.New("simulation needs load.maxPps or load.maxRunTime")

// Deps are the collaborators of a run. Every field is optional.
type Deps struct {
	Logger *zap.Logger
	// Console receives the header and a progress line per interval.
	Console *output.Console
	// Registry gets the run's collector registered. When nil and the test
	// file sets a metrics address, a private registry is used.
	Registry *prometheus.Registry
	// Start is the simulated start time; zero means now.
	Start time.Time
}

func (d *Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Result is the outcome of a run.
type Result struct {
	Summary *output.Summary
	// MetricsAddr is the address the metrics endpoint listened on, if any.
	MetricsAddr string
}

// Run executes a real load test against the HTTP or UDP target of cfg. It
// returns when the generator drains, ctx is cancelled or the configured
// maximum run time passes; in the latter two cases the result is partial
// and the error is nil.
func Run(ctx context.Context, cfg *config.TestConfig, deps Deps) (*Result, error) {
	logger := deps.logger().With(zap.String("target", targetName(cfg)))

	runCtx := ctx
	if maxRun := time.Duration(cfg.Load.MaxRunTime); maxRun > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, maxRun)
		defer cancel()
	}

	l := loop.New(loop.WithLogger(logger))

	var s *session
	replier := transport.ReplierFunc(func(requestTime time.Time) {
		// Replies after the loop closed belong to an aborted run.
		_ = l.Post(func() { s.reply(requestTime) })
	})

	sender, counters, closeSender, err := newSender(runCtx, cfg, replier, logger)
	if err != nil {
		return nil, err
	}

	s, err = newSession(l, cfg, sender, counters, deps, logger)
	if err != nil {
		closeSender()
		return nil, err
	}
	s.onFinish = l.Close
	if s.stats != nil {
		defer s.stats.Close()
	}

	result := &Result{}
	if addr := cfg.Output.MetricsAddr; addr != "" {
		stop, bound, err := serveMetrics(addr, s.collector, deps.Registry, logger)
		if err != nil {
			closeSender()
			return nil, err
		}
		defer stop()
		result.MetricsAddr = bound
	}

	if deps.Console != nil {
		if err := deps.Console.PrintHeader(targetName(cfg), cfg.Target.Type, s.gen.Config()); err != nil {
			logger.Debug("header output failed", zap.Error(err))
		}
	}

	if err := l.Post(s.start); err != nil {
		closeSender()
		return nil, err
	}
	runErr := l.Run(runCtx)

	// The loop has stopped, so the session is ours now.
	switch {
	case s.done:
	case errors.Is(runErr, context.DeadlineExceeded) && ctx.Err() == nil:
		s.abort(time.Now(), ReasonMaxRunTime)
	default:
		s.abort(time.Now(), ReasonInterrupted)
	}
	closeSender()

	result.Summary = s.summary(targetName(cfg), cfg.Target.Type)
	return result, nil
}

// Simulate runs cfg against a modelled service on a simulated clock. The
// run is deterministic and takes no wall clock time beyond computation.
func Simulate(cfg *config.TestConfig, deps Deps) (*Result, error) {
	if cfg.Load.MaxPPS == 0 && cfg.Load.MaxRunTime == 0 {
		return nil, ErrUnbounded
	}
	logger := deps.logger().With(zap.String("target", "simulated"))

	start := deps.Start
	if start.IsZero() {
		start = time.Now()
	}
	v := loop.NewVirtual(start)

	var s *session
	sim := transport.NewSimulated(v, transport.ReplierFunc(func(requestTime time.Time) {
		s.reply(requestTime)
	}), time.Duration(cfg.Target.Latency), cfg.Target.Capacity).WithQueueLimit(cfg.Target.QueueLimit)

	s, err := newSession(v, cfg, sim, sim.Counters, deps, logger)
	if err != nil {
		return nil, err
	}
	if s.stats != nil {
		defer s.stats.Close()
	}

	if deps.Console != nil {
		if err := deps.Console.PrintHeader(targetName(cfg), simulateMode(cfg), s.gen.Config()); err != nil {
			logger.Debug("header output failed", zap.Error(err))
		}
	}

	s.start()

	var deadline time.Time
	if maxRun := time.Duration(cfg.Load.MaxRunTime); maxRun > 0 {
		deadline = start.Add(maxRun)
	}
	for !s.done {
		next, ok := v.Next()
		if !ok {
			s.finish(false, "stalled")
			break
		}
		if !deadline.IsZero() && next.After(deadline) {
			v.RunUntil(deadline)
			s.finish(false, ReasonMaxRunTime)
			break
		}
		v.Step()
	}

	return &Result{Summary: s.summary(targetName(cfg), config.TargetSimulate)}, nil
}

// simulateMode describes the modelled service for the console.
func simulateMode(cfg *config.TestConfig) string {
	capacity := "unlimited"
	if cfg.Target.Capacity > 0 {
		capacity = fmt.Sprintf("%d pps", cfg.Target.Capacity)
	}
	return fmt.Sprintf("simulate (latency %s, capacity %s)", time.Duration(cfg.Target.Latency), capacity)
}

func targetName(cfg *config.TestConfig) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	switch cfg.Target.Type {
	case config.TargetHTTP:
		return cfg.Target.URL
	case config.TargetUDP:
		return cfg.Target.Address
	}
	return "simulated service"
}

func newSession(el load.EventLoop, cfg *config.TestConfig, sender load.Sender, counters func() transport.Counters, deps Deps, logger *zap.Logger) (*session, error) {
	genCfg := cfg.Load.Generator()
	gen, err := load.New(el, &genCfg, sender,
		load.WithLogger(logger),
		load.WithStateHook(func(from, to load.State) {
			logger.Info("generator state", zap.Stringer("from", from), zap.Stringer("to", to))
		}))
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	s := &session{
		loop:      el,
		gen:       gen,
		interval:  time.Duration(cfg.Output.Interval),
		recorder:  recorder,
		collector: metrics.NewCollector(recorder),
		console:   deps.Console,
		counters:  counters,
		logger:    logger,
	}
	if s.interval <= 0 {
		s.interval = config.DefaultInterval
	}

	if deps.Registry != nil {
		if err := deps.Registry.Register(s.collector); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	if path := cfg.Output.StatsFile; path != "" {
		sw, err := output.CreateStatsFile(path, gen)
		if err != nil {
			return nil, err
		}
		s.stats = sw
	}
	return s, nil
}

// newSender builds the transport for cfg. The returned close function
// waits for in-flight work and releases the transport.
func newSender(ctx context.Context, cfg *config.TestConfig, replier transport.Replier, logger *zap.Logger) (load.Sender, func() transport.Counters, func(), error) {
	t := cfg.Target
	switch t.Type {
	case config.TargetHTTP:
		opts := []rhttp.ClientOption{rhttp.WithTimeout(time.Duration(t.Timeout))}
		for k, v := range t.Headers {
			opts = append(opts, rhttp.WithHeader(k, v))
		}
		req := rhttp.NewRequest(t.Method, t.URL)
		if t.Body != "" {
			req.WithBody([]byte(t.Body))
		}

		expect := make([]transport.Expectation, 0, len(t.Expect))
		for _, e := range t.Expect {
			expect = append(expect, transport.Expectation{Path: e.Path, Equals: e.Equals})
		}
		s := transport.NewHTTPSender(ctx, rhttp.NewClient(opts...), req, replier,
			transport.WithExpectations(expect...),
			transport.WithHTTPLogger(logger))
		return s, s.Counters, s.Wait, nil

	case config.TargetUDP:
		s, err := transport.DialUDP(t.Address, replier,
			transport.WithReplyTimeout(time.Duration(t.ReplyTimeout)),
			transport.WithPayloadSize(t.PayloadSize),
			transport.WithUDPLogger(logger))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open udp target: %w", err)
		}
		return s, s.Counters, func() { _ = s.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("target type %q cannot be run, use simulate", t.Type)
}

// serveMetrics exposes the collector on addr until stop is called.
func serveMetrics(addr string, c *metrics.Collector, reg *prometheus.Registry, logger *zap.Logger) (stop func(), bound string, err error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
		if err := reg.Register(c); err != nil {
			return nil, "", fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to listen for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, ln.Addr().String(), nil
}
