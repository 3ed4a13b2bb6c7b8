// Package output renders load runs for people and for other programs: a
// colored console summary, periodic progress lines, machine readable
// summaries and the generator's stats text.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/wesleyorama2/rampgen/internal/load"
)

// histogramLabels name the generator's RTT buckets.
var histogramLabels = [load.HistogramBuckets]string{
	"<1µs", "<10µs", "<100µs", "<1ms", "<10ms", "<100ms", "<1s", ">=1s",
}

const ruleWidth = 56

// Console writes human readable run output.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	colors *ColorScheme
	err    error
}

// NewConsole creates a console writing to w with the given colors.
func NewConsole(w io.Writer, colors *ColorScheme) *Console {
	if colors == nil {
		colors = NoColorScheme()
	}
	return &Console{w: w, colors: colors}
}

// PrintHeader announces a run.
func (c *Console) PrintHeader(target, mode string, cfg load.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rule()
	c.linef("%s %s %s", c.colors.Title.Sprint("rampgen"), c.colors.Label.Sprint(mode), c.colors.Value.Sprint(target))
	c.rule()
	ceiling := "none"
	if cfg.MaxPPS > 0 {
		ceiling = formatNumber(uint64(cfg.MaxPPS))
	}
	c.linef("Rate:          %s pps, +%s every %s, ceiling %s",
		c.colors.Value.Sprint(formatNumber(uint64(cfg.StartPPS))),
		formatNumber(uint64(cfg.Step)), formatDuration(cfg.Duration), ceiling)
	c.linef("Burst:         %d, backlog window %dms", cfg.Parallel, cfg.Milliseconds)
	c.linef("")
	return c.flush()
}

// PrintProgress writes one progress line for a running generator.
func (c *Console) PrintProgress(elapsed time.Duration, state load.State, s load.Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.linef("[%s] %-8s pps %s/%s  sent %s  recv %s  backlog %d (ema %d)  rtt %s",
		formatDuration(elapsed),
		c.colors.State(state).Sprint(state.String()),
		formatNumber(uint64(s.PPSAccepted)), formatNumber(uint64(s.PPS)),
		formatNumber(s.Sent), formatNumber(s.Received),
		s.Backlog(), s.BacklogEMA,
		formatDurationShort(s.RTT))
	return c.flush()
}

// PrintSummary writes the end-of-run report.
func (c *Console) PrintSummary(s *Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.colors.Good.Sprint("Drained ✓")
	if !s.Drained {
		reason := s.Reason
		if reason == "" {
			reason = "stopped"
		}
		status = c.colors.Warn.Sprintf("Incomplete (%s)", reason)
	}

	c.linef("")
	c.rule()
	c.linef("%s - %s", c.colors.Title.Sprint(s.Target), status)
	c.rule()
	c.linef("")

	c.linef("Duration:      %s", c.colors.Value.Sprint(formatDuration(s.Elapsed)))
	c.linef("Final state:   %s", c.colors.State(s.State).Sprint(s.State.String()))
	c.linef("Sent:          %s", c.colors.Value.Sprint(formatNumber(s.Stats.Sent)))
	c.linef("Received:      %s", c.colors.Value.Sprint(formatNumber(s.Stats.Received)))
	if s.Transport.Errors > 0 || s.Transport.Lost > 0 {
		c.linef("Errors/Lost:   %s / %s",
			c.colors.Bad.Sprint(formatNumber(s.Transport.Errors)),
			c.colors.Bad.Sprint(formatNumber(s.Transport.Lost)))
	}
	ratio := s.SuccessRatio()
	c.linef("Success Rate:  %s", c.colors.Ratio(ratio).Sprintf("%.1f%%", ratio*100))
	c.linef("Final rate:    %s pps (accepted %s)",
		c.colors.Value.Sprint(formatNumber(uint64(s.Stats.PPS))),
		formatNumber(uint64(s.Stats.PPSAccepted)))
	c.linef("Max backlog:   %d", s.Stats.MaxBacklog)
	c.linef("")

	c.linef("%s", c.colors.Title.Sprint("Round Trip:"))
	c.linef("  Smoothed:  %s ± %s", formatDurationShort(s.Stats.RTT), formatDurationShort(s.Stats.RTTVar))
	if s.Latency.Count > 0 {
		c.linef("  Min:       %s", formatDurationShort(s.Latency.Min))
		c.linef("  P50:       %s", formatDurationShort(s.Latency.P50))
		c.linef("  P90:       %s", formatDurationShort(s.Latency.P90))
		c.linef("  P95:       %s", formatDurationShort(s.Latency.P95))
		c.linef("  P99:       %s", formatDurationShort(s.Latency.P99))
		c.linef("  Max:       %s", formatDurationShort(s.Latency.Max))
	}
	c.linef("")

	c.linef("%s", c.colors.Title.Sprint("Histogram:"))
	for i, n := range s.Stats.Times {
		c.linef("  %-7s %s %s", histogramLabels[i], bar(n, s.Stats.Received, 30), formatNumber(n))
	}

	if len(s.Steps) > 0 {
		c.linef("")
		c.linef("%s", c.colors.Title.Sprint("Per step:"))
		for _, st := range s.Steps {
			c.linef("  %8s pps  p50 %-8s p99 %-8s n=%d",
				formatNumber(uint64(st.PPS)), formatDurationShort(st.P50), formatDurationShort(st.P99), st.Count)
		}
	}
	c.linef("")
	return c.flush()
}

func (c *Console) rule() {
	c.linef("%s", c.colors.Rule.Sprint(strings.Repeat("━", ruleWidth)))
}

func (c *Console) linef(format string, args ...interface{}) {
	if c.err != nil {
		return
	}
	_, c.err = fmt.Fprintf(c.w, format+"\n", args...)
}

// flush returns and clears the first write error.
func (c *Console) flush() error {
	err := c.err
	c.err = nil
	return err
}

func bar(n, total uint64, width int) string {
	filled := 0
	if total > 0 {
		filled = int(n * uint64(width) / total)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %02dm %02ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// formatDurationShort formats a round trip time.
func formatDurationShort(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// formatNumber formats a number with thousands separators.
func formatNumber(n uint64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var b strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		b.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(str[i : i+3])
	}
	return b.String()
}
