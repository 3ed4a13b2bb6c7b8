package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks a test file after defaults have been applied.
//
// Returns nil if valid, or a *ValidationErrors containing every problem.
func (c *TestConfig) Validate() error {
	errs := &ValidationErrors{}

	validateTarget(&c.Target, errs)
	validateLoad(&c.Load, errs)
	validateOutput(&c.Output, errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateTarget(t *TargetConfig, errs *ValidationErrors) {
	switch t.Type {
	case TargetHTTP:
		u, err := url.Parse(t.URL)
		switch {
		case t.URL == "":
			errs.Add("target.url", "is required for http targets")
		case err != nil:
			errs.Add("target.url", err.Error())
		case u.Scheme != "http" && u.Scheme != "https":
			errs.Add("target.url", fmt.Sprintf("unsupported scheme %q", u.Scheme))
		case u.Host == "":
			errs.Add("target.url", "host is required")
		}
		if t.Timeout < 0 {
			errs.Add("target.timeout", "must not be negative")
		}
		for i, e := range t.Expect {
			if e.Path == "" {
				errs.Add(fmt.Sprintf("target.expect[%d].path", i), "is required")
			}
		}

	case TargetUDP:
		if t.Address == "" {
			errs.Add("target.address", "is required for udp targets")
		} else if _, _, err := net.SplitHostPort(t.Address); err != nil {
			errs.Add("target.address", err.Error())
		}
		if t.PayloadSize < 0 || t.PayloadSize > 65507 {
			errs.Add("target.payloadSize", "must be between 0 and 65507")
		}

	case TargetSimulate:
		if t.Latency < 0 {
			errs.Add("target.latency", "must not be negative")
		}
		if t.QueueLimit < 0 {
			errs.Add("target.queueLimit", "must not be negative")
		}

	case "":
		errs.Add("target.type", "is required (http, udp or simulate)")
	default:
		errs.Add("target.type", fmt.Sprintf("unknown target type %q", t.Type))
	}
}

func validateLoad(l *RampConfig, errs *ValidationErrors) {
	if l.StartPPS == 0 {
		errs.Add("load.startPps", "must be positive")
	}
	if l.Parallel == 0 {
		errs.Add("load.parallel", "must be positive")
	}
	if l.Duration <= 0 {
		errs.Add("load.duration", "must be positive")
	}
	if l.Parallel > 0 && uint64(l.StartPPS) > uint64(time.Second)*uint64(l.Parallel) {
		errs.Add("load.startPps", fmt.Sprintf("%d needs bursts closer than 1ns; raise parallel", l.StartPPS))
	}
	if l.MaxPPS > 0 && l.MaxPPS < l.StartPPS {
		errs.Add("load.maxPps", fmt.Sprintf("%d is below startPps %d", l.MaxPPS, l.StartPPS))
	}
	if l.MaxRunTime < 0 {
		errs.Add("load.maxRunTime", "must not be negative")
	}
}

func validateOutput(o *OutputConfig, errs *ValidationErrors) {
	if o.Interval <= 0 {
		errs.Add("output.interval", "must be positive")
	}
	switch o.Format {
	case "text", "json", "yaml":
	default:
		errs.Add("output.format", fmt.Sprintf("unknown format %q", o.Format))
	}
	if o.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(o.MetricsAddr); err != nil {
			errs.Add("output.metricsAddr", err.Error())
		}
	}
}
