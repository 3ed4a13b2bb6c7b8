package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/rampgen/internal/load"
	"github.com/wesleyorama2/rampgen/internal/metrics"
	"github.com/wesleyorama2/rampgen/internal/transport"
)

// Format is a summary output format.
type Format string

const (
	// FormatText is the default human-readable text format
	FormatText Format = "text"
	// FormatJSON outputs in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs in YAML format
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. The empty string is FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Summary is the end-of-run report.
type Summary struct {
	Target    string
	Mode      string
	State     load.State
	Drained   bool   // every request was answered
	Reason    string // why the run ended, if not drained
	Elapsed   time.Duration
	Stats     load.Stats
	Transport transport.Counters
	Latency   metrics.LatencyPercentiles
	Steps     []metrics.StepLatency
}

// SuccessRatio is the share of replies that were not errors.
func (s *Summary) SuccessRatio() float64 {
	if s.Stats.Received == 0 {
		return 0
	}
	bad := s.Transport.Errors + s.Transport.Lost
	if bad > s.Stats.Received {
		return 0
	}
	return float64(s.Stats.Received-bad) / float64(s.Stats.Received)
}

// document is the machine readable form of a Summary. Durations are in
// seconds.
type document struct {
	Target      string    `json:"target" yaml:"target"`
	Mode        string    `json:"mode" yaml:"mode"`
	State       string    `json:"state" yaml:"state"`
	Drained     bool      `json:"drained" yaml:"drained"`
	Reason      string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Elapsed     float64   `json:"elapsed" yaml:"elapsed"`
	Sent        uint64    `json:"sent" yaml:"sent"`
	Received    uint64    `json:"received" yaml:"received"`
	Errors      uint64    `json:"errors" yaml:"errors"`
	Lost        uint64    `json:"lost" yaml:"lost"`
	PPS         uint32    `json:"pps" yaml:"pps"`
	PPSAccepted uint32    `json:"ppsAccepted" yaml:"ppsAccepted"`
	RTT         float64   `json:"rtt" yaml:"rtt"`
	RTTVar      float64   `json:"rttvar" yaml:"rttvar"`
	MaxBacklog  int64     `json:"maxBacklog" yaml:"maxBacklog"`
	Histogram   []uint64  `json:"histogram" yaml:"histogram,flow"`
	Latency     latency   `json:"latency" yaml:"latency"`
	Steps       []stepDoc `json:"steps,omitempty" yaml:"steps,omitempty"`
}

type latency struct {
	Min   float64 `json:"min" yaml:"min"`
	P50   float64 `json:"p50" yaml:"p50"`
	P90   float64 `json:"p90" yaml:"p90"`
	P95   float64 `json:"p95" yaml:"p95"`
	P99   float64 `json:"p99" yaml:"p99"`
	Max   float64 `json:"max" yaml:"max"`
	Count int64   `json:"count" yaml:"count"`
}

type stepDoc struct {
	PPS     uint32  `json:"pps" yaml:"pps"`
	latency `yaml:",inline"`
}

func toLatency(p metrics.LatencyPercentiles) latency {
	return latency{
		Min: p.Min.Seconds(), P50: p.P50.Seconds(), P90: p.P90.Seconds(),
		P95: p.P95.Seconds(), P99: p.P99.Seconds(), Max: p.Max.Seconds(),
		Count: p.Count,
	}
}

func (s *Summary) document() document {
	d := document{
		Target:      s.Target,
		Mode:        s.Mode,
		State:       s.State.String(),
		Drained:     s.Drained,
		Reason:      s.Reason,
		Elapsed:     s.Elapsed.Seconds(),
		Sent:        s.Stats.Sent,
		Received:    s.Stats.Received,
		Errors:      s.Transport.Errors,
		Lost:        s.Transport.Lost,
		PPS:         s.Stats.PPS,
		PPSAccepted: s.Stats.PPSAccepted,
		RTT:         s.Stats.RTT.Seconds(),
		RTTVar:      s.Stats.RTTVar.Seconds(),
		MaxBacklog:  s.Stats.MaxBacklog,
		Histogram:   append([]uint64(nil), s.Stats.Times[:]...),
		Latency:     toLatency(s.Latency),
	}
	for _, st := range s.Steps {
		d.Steps = append(d.Steps, stepDoc{PPS: st.PPS, latency: toLatency(st.LatencyPercentiles)})
	}
	return d
}

// WriteSummary writes s to w in format. FormatText uses the console
// renderer without color.
func WriteSummary(w io.Writer, s *Summary, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s.document())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s.document()); err != nil {
			return err
		}
		return enc.Close()
	default:
		return NewConsole(w, NoColorScheme()).PrintSummary(s)
	}
}
