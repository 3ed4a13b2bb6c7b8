package load

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default values applied to zero configuration fields.
const (
	DefaultStartPPS     = 1
	DefaultMilliseconds = 1000
	DefaultParallel     = 1
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid load configuration")

// Config controls a single generator run. It is copied by New and never
// modified afterwards.
type Config struct {
	// StartPPS is the packets-per-second rate of the first ramp step (default 1).
	StartPPS uint32 `json:"startPps" yaml:"startPps"`

	// MaxPPS is the ceiling of the ramp; 0 ramps without limit.
	MaxPPS uint32 `json:"maxPps" yaml:"maxPps"`

	// Parallel is the number of packets sent per burst (default 1).
	Parallel uint32 `json:"parallel" yaml:"parallel"`

	// Step is the rate increment applied at each step boundary.
	Step uint32 `json:"step" yaml:"step"`

	// Duration is the length of one ramp step.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Milliseconds is the size of the acceptable backlog window: sending is
	// gated once the smoothed backlog exceeds PPS * Milliseconds / 1000.
	Milliseconds uint32 `json:"milliseconds" yaml:"milliseconds"`
}

// ApplyDefaults fills zero rate fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.StartPPS == 0 {
		c.StartPPS = DefaultStartPPS
	}
	if c.Milliseconds == 0 {
		c.Milliseconds = DefaultMilliseconds
	}
	if c.Parallel == 0 {
		c.Parallel = DefaultParallel
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	var problems []string

	if c.StartPPS == 0 {
		problems = append(problems, "startPps must be greater than 0")
	}
	if c.Parallel == 0 {
		problems = append(problems, "parallel must be greater than 0")
	}
	if c.Duration <= 0 {
		problems = append(problems, "duration must be greater than 0")
	}
	if c.StartPPS > 0 && c.Parallel > 0 && interval(c.StartPPS, c.Parallel) == 0 {
		problems = append(problems, fmt.Sprintf("startPps (%d) needs bursts closer than 1ns; raise parallel (%d)", c.StartPPS, c.Parallel))
	}
	if c.MaxPPS > 0 && c.MaxPPS < c.StartPPS {
		problems = append(problems, fmt.Sprintf("maxPps (%d) must not be below startPps (%d)", c.MaxPPS, c.StartPPS))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
