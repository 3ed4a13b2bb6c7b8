// Package config loads rampgen test files.
//
// A test file names a target and the ramp to drive it with. Files are YAML
// or JSON; both are checked against an embedded JSON schema before they
// are decoded, then validated field by field.
//
//	name: checkout
//	target:
//	  type: http
//	  url: http://localhost:8080/checkout
//	  method: POST
//	  expect:
//	    - path: $.status
//	      equals: ok
//	load:
//	  startPps: 100
//	  step: 100
//	  maxPps: 2000
//	  duration: 10s
//	output:
//	  statsFile: stats.csv
//	  report: checkout.html
//	  interval: 1s
package config

import (
	"encoding/json"
	"time"

	"github.com/wesleyorama2/rampgen/internal/load"
)

// Target types.
const (
	TargetHTTP     = "http"
	TargetUDP      = "udp"
	TargetSimulate = "simulate"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultMethod       = "GET"
	DefaultTimeout      = 30 * time.Second
	DefaultReplyTimeout = 5 * time.Second
	DefaultInterval     = time.Second
	DefaultStepDuration = 10 * time.Second
)

// TestConfig is a complete test file.
type TestConfig struct {
	Name   string       `json:"name,omitempty" yaml:"name,omitempty"`
	Target TargetConfig `json:"target" yaml:"target"`
	Load   RampConfig   `json:"load" yaml:"load"`
	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`
}

// TargetConfig describes the service under test.
type TargetConfig struct {
	Type string `json:"type" yaml:"type"`

	// HTTP
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	Method  string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string            `json:"body,omitempty" yaml:"body,omitempty"`
	Timeout Duration          `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Expect  []Expectation     `json:"expect,omitempty" yaml:"expect,omitempty"`

	// UDP
	Address      string   `json:"address,omitempty" yaml:"address,omitempty"`
	PayloadSize  int      `json:"payloadSize,omitempty" yaml:"payloadSize,omitempty"`
	ReplyTimeout Duration `json:"replyTimeout,omitempty" yaml:"replyTimeout,omitempty"`

	// Simulated service
	Latency    Duration `json:"latency,omitempty" yaml:"latency,omitempty"`
	Capacity   uint32   `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	QueueLimit int      `json:"queueLimit,omitempty" yaml:"queueLimit,omitempty"`
}

// Expectation checks a JSON path of every HTTP response body.
type Expectation struct {
	Path   string `json:"path" yaml:"path"`
	Equals string `json:"equals,omitempty" yaml:"equals,omitempty"`
}

// RampConfig is the ramp.
type RampConfig struct {
	StartPPS     uint32   `json:"startPps,omitempty" yaml:"startPps,omitempty"`
	MaxPPS       uint32   `json:"maxPps,omitempty" yaml:"maxPps,omitempty"`
	Step         uint32   `json:"step,omitempty" yaml:"step,omitempty"`
	Duration     Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
	Parallel     uint32   `json:"parallel,omitempty" yaml:"parallel,omitempty"`
	Milliseconds uint32   `json:"milliseconds,omitempty" yaml:"milliseconds,omitempty"`
	MaxRunTime   Duration `json:"maxRunTime,omitempty" yaml:"maxRunTime,omitempty"`
}

// OutputConfig controls what a run writes.
type OutputConfig struct {
	StatsFile   string   `json:"statsFile,omitempty" yaml:"statsFile,omitempty"`
	Report      string   `json:"report,omitempty" yaml:"report,omitempty"`
	Interval    Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
	MetricsAddr string   `json:"metricsAddr,omitempty" yaml:"metricsAddr,omitempty"`
	Format      string   `json:"format,omitempty" yaml:"format,omitempty"`
	NoColor     bool     `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// Generator returns the generator configuration.
func (l RampConfig) Generator() load.Config {
	return load.Config{
		StartPPS:     l.StartPPS,
		MaxPPS:       l.MaxPPS,
		Step:         l.Step,
		Duration:     time.Duration(l.Duration),
		Parallel:     l.Parallel,
		Milliseconds: l.Milliseconds,
	}
}

// ApplyDefaults fills in unset fields.
func (c *TestConfig) ApplyDefaults() {
	t := &c.Target
	if t.Type == "" {
		switch {
		case t.Address != "":
			t.Type = TargetUDP
		case t.URL != "":
			t.Type = TargetHTTP
		}
	}
	switch t.Type {
	case TargetHTTP:
		if t.Method == "" {
			t.Method = DefaultMethod
		}
		if t.Timeout == 0 {
			t.Timeout = Duration(DefaultTimeout)
		}
	case TargetUDP:
		if t.ReplyTimeout == 0 {
			t.ReplyTimeout = Duration(DefaultReplyTimeout)
		}
	}

	l := &c.Load
	if l.StartPPS == 0 {
		l.StartPPS = load.DefaultStartPPS
	}
	if l.Parallel == 0 {
		l.Parallel = load.DefaultParallel
	}
	if l.Milliseconds == 0 {
		l.Milliseconds = load.DefaultMilliseconds
	}
	if l.Duration == 0 {
		l.Duration = Duration(DefaultStepDuration)
	}

	if c.Output.Interval == 0 {
		c.Output.Interval = Duration(DefaultInterval)
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
}

// Duration is a time.Duration that can be unmarshaled from JSON/YAML strings.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.set(s)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}
