package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/rampgen/internal/config"
	"github.com/wesleyorama2/rampgen/internal/load"
	"github.com/wesleyorama2/rampgen/internal/output"
)

var errNoTarget = errors.New("either --config, --url or --udp is required")

// addLoadFlags registers the flags shared by run and simulate. Every flag
// overrides the matching test file field when set.
func addLoadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("config", "c", "", "Test file (YAML or JSON)")

	f.Uint32("start-pps", 0, fmt.Sprintf("Initial rate in requests per second (default %d)", load.DefaultStartPPS))
	f.Uint32("step", 0, "Rate added at every step")
	f.Uint32("max-pps", 0, "Rate ceiling; the run drains once the ramp passes it")
	f.Duration("duration", 0, fmt.Sprintf("Length of a ramp step (default %s)", config.DefaultStepDuration))
	f.Uint32("parallel", 0, fmt.Sprintf("Requests sent per tick (default %d)", load.DefaultParallel))
	f.Uint32("milliseconds", 0, fmt.Sprintf("Backlog window in milliseconds (default %d)", load.DefaultMilliseconds))
	f.Duration("max-run-time", 0, "Stop the run after this long")

	f.Duration("interval", 0, fmt.Sprintf("Progress and stats interval (default %s)", config.DefaultInterval))
	f.String("stats-file", "", "Write generator stats to this file (- for stdout)")
	f.String("report", "", "Write an HTML report to this file")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	f.StringP("format", "o", "", "Summary format: text, json or yaml")
	f.BoolP("quiet", "q", false, "Suppress progress output")
}

// buildConfig loads --config, if any, lets target fill in the target from
// its own flags, applies the shared flags and validates the result.
func buildConfig(cmd *cobra.Command, target func(*cobra.Command, *config.TestConfig) error) (*config.TestConfig, error) {
	cfg := &config.TestConfig{}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := target(cmd, cfg); err != nil {
		return nil, err
	}
	applyLoadFlags(cmd, cfg)

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyLoadFlags(cmd *cobra.Command, cfg *config.TestConfig) {
	f := cmd.Flags()
	l := &cfg.Load
	if f.Changed("start-pps") {
		l.StartPPS, _ = f.GetUint32("start-pps")
	}
	if f.Changed("step") {
		l.Step, _ = f.GetUint32("step")
	}
	if f.Changed("max-pps") {
		l.MaxPPS, _ = f.GetUint32("max-pps")
	}
	if f.Changed("duration") {
		d, _ := f.GetDuration("duration")
		l.Duration = config.Duration(d)
	}
	if f.Changed("parallel") {
		l.Parallel, _ = f.GetUint32("parallel")
	}
	if f.Changed("milliseconds") {
		l.Milliseconds, _ = f.GetUint32("milliseconds")
	}
	if f.Changed("max-run-time") {
		d, _ := f.GetDuration("max-run-time")
		l.MaxRunTime = config.Duration(d)
	}

	o := &cfg.Output
	if f.Changed("interval") {
		d, _ := f.GetDuration("interval")
		o.Interval = config.Duration(d)
	}
	if f.Changed("stats-file") {
		o.StatsFile, _ = f.GetString("stats-file")
	}
	if f.Changed("report") {
		o.Report, _ = f.GetString("report")
	}
	if f.Changed("metrics-addr") {
		o.MetricsAddr, _ = f.GetString("metrics-addr")
	}
	if f.Changed("format") {
		o.Format, _ = f.GetString("format")
	}
	if noColor, _ := f.GetBool("no-color"); noColor {
		o.NoColor = true
	}
}

// progressConsole returns the console for progress lines, or nil with
// --quiet. Progress goes to stderr when stdout carries a machine readable
// summary.
func progressConsole(cmd *cobra.Command, cfg *config.TestConfig) *output.Console {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return nil
	}
	w := cmd.OutOrStdout()
	if cfg.Output.Format != string(output.FormatText) {
		w = cmd.ErrOrStderr()
	}
	return output.NewConsole(w, colorScheme(w, cfg.Output.NoColor))
}

// report writes the end-of-run summary to stdout, and the HTML report if
// one was asked for.
func report(cmd *cobra.Command, cfg *config.TestConfig, s *output.Summary) error {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if cfg.Output.Report != "" {
		if err := output.GenerateHTMLReport(s, cfg.Output.Report); err != nil {
			return err
		}
	}
	w := cmd.OutOrStdout()
	if format == output.FormatText {
		return output.NewConsole(w, colorScheme(w, cfg.Output.NoColor)).PrintSummary(s)
	}
	return output.WriteSummary(w, s, format)
}

func colorScheme(w io.Writer, disabled bool) *output.ColorScheme {
	if output.UseColor(w, disabled) {
		return output.DefaultColorScheme()
	}
	return output.NoColorScheme()
}

// normalizeURL adds a scheme if missing.
func normalizeURL(raw string) string {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "http://" + raw
	}
	return raw
}

// parseHeader splits a "Key: Value" flag.
func parseHeader(h string) (string, string, error) {
	parts := strings.SplitN(h, ":", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return "", "", fmt.Errorf("invalid header %q (want \"Key: Value\")", h)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// parseExpectation splits a "path=value" flag. A bare path only has to
// exist.
func parseExpectation(e string) config.Expectation {
	path, want, _ := strings.Cut(e, "=")
	return config.Expectation{Path: strings.TrimSpace(path), Equals: want}
}
