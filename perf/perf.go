package perf

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wesleyorama2/rampgen/internal/config"
	"github.com/wesleyorama2/rampgen/internal/driver"
	"github.com/wesleyorama2/rampgen/internal/output"
)

type (
	// Config is a complete test description.
	Config = config.TestConfig
	// TargetConfig describes the service under test.
	TargetConfig = config.TargetConfig
	// LoadSettings is the ramp.
	LoadSettings = config.RampConfig
	// OutputSettings controls stats files and the metrics endpoint.
	OutputSettings = config.OutputConfig
	// Duration is a time.Duration that reads "10s" style strings.
	Duration = config.Duration
	// Summary is the outcome of a run.
	Summary = output.Summary
)

// LoadConfig reads and validates a YAML or JSON test file.
func LoadConfig(path string) (*Config, error) {
	return config.LoadConfig(path)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger runs report to. The default discards logs.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.deps.Logger = logger }
}

// WithRegistry registers the run's collector on reg. A registry can hold
// the collector of one run only.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Runner) { r.deps.Registry = reg }
}

// Runner provides a high-level API for running load tests.
type Runner struct {
	config *Config
	deps   driver.Deps
}

// NewRunner creates a new test runner with the given configuration.
func NewRunner(cfg *Config, opts ...Option) *Runner {
	r := &Runner{config: cfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives the configured HTTP or UDP target. A run stopped by ctx or by
// load.maxRunTime returns its partial summary and a nil error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if err := r.prepare(); err != nil {
		return nil, err
	}
	res, err := driver.Run(ctx, r.config, r.deps)
	if err != nil {
		return nil, err
	}
	return res.Summary, nil
}

// Simulate replays the ramp against the simulated service the target
// describes.
func (r *Runner) Simulate() (*Summary, error) {
	r.config.Target.Type = config.TargetSimulate
	if err := r.prepare(); err != nil {
		return nil, err
	}
	res, err := driver.Simulate(r.config, r.deps)
	if err != nil {
		return nil, err
	}
	return res.Summary, nil
}

func (r *Runner) prepare() error {
	r.config.ApplyDefaults()
	return r.config.Validate()
}
