package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/rampgen/internal/config"
	"github.com/wesleyorama2/rampgen/internal/driver"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ramp load against an HTTP or UDP target",
		Long: `Send requests at a stepped rate until the ramp passes --max-pps, then
wait for outstanding replies and print a summary. Without --max-pps the
run lasts until --max-run-time or until interrupted.

Config file mode:
  rampgen run --config checkout.yaml

Quick HTTP mode:
  rampgen run --url http://localhost:8080/health \
    --start-pps 100 --step 100 --max-pps 2000 --duration 10s

UDP mode, against "rampgen echo" or any service returning datagrams:
  rampgen run --udp 127.0.0.1:9000 --start-pps 1000 --step 1000 --max-pps 20000`,
		Args: cobra.NoArgs,
		RunE: runLoad,
	}

	addLoadFlags(cmd)
	f := cmd.Flags()
	f.StringP("url", "u", "", "HTTP target URL")
	f.StringP("method", "X", "", "HTTP method (default GET)")
	f.StringArrayP("header", "H", nil, "HTTP header in \"Key: Value\" form (repeatable)")
	f.StringP("data", "d", "", "HTTP request body")
	f.Duration("timeout", 0, "HTTP request timeout (default 30s)")
	f.StringArray("expect", nil, "JSON path every response must match, as path=value or path (repeatable)")
	f.String("udp", "", "UDP target address")
	f.Int("payload-size", 0, "UDP datagram size in bytes")
	f.Duration("reply-timeout", 0, "Time after which a UDP request counts as lost (default 5s)")
	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, runTarget)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	res, err := driver.Run(cmd.Context(), cfg, driver.Deps{
		Logger:  logger,
		Console: progressConsole(cmd, cfg),
	})
	if err != nil {
		return err
	}
	return report(cmd, cfg, res.Summary)
}

// runTarget applies the HTTP and UDP target flags.
func runTarget(cmd *cobra.Command, cfg *config.TestConfig) error {
	f := cmd.Flags()
	t := &cfg.Target

	if u, _ := f.GetString("url"); u != "" {
		*t = config.TargetConfig{Type: config.TargetHTTP, URL: normalizeURL(u), Headers: t.Headers,
			Method: t.Method, Body: t.Body, Timeout: t.Timeout, Expect: t.Expect}
	}
	if addr, _ := f.GetString("udp"); addr != "" {
		*t = config.TargetConfig{Type: config.TargetUDP, Address: addr,
			PayloadSize: t.PayloadSize, ReplyTimeout: t.ReplyTimeout}
	}
	if t.Type == "" && t.URL == "" && t.Address == "" {
		return errNoTarget
	}

	if f.Changed("method") {
		t.Method, _ = f.GetString("method")
	}
	headers, _ := f.GetStringArray("header")
	for _, h := range headers {
		k, v, err := parseHeader(h)
		if err != nil {
			return err
		}
		if t.Headers == nil {
			t.Headers = make(map[string]string)
		}
		t.Headers[k] = v
	}
	if f.Changed("data") {
		t.Body, _ = f.GetString("data")
	}
	if f.Changed("timeout") {
		d, _ := f.GetDuration("timeout")
		t.Timeout = config.Duration(d)
	}
	expect, _ := f.GetStringArray("expect")
	for _, e := range expect {
		t.Expect = append(t.Expect, parseExpectation(e))
	}
	if f.Changed("payload-size") {
		t.PayloadSize, _ = f.GetInt("payload-size")
	}
	if f.Changed("reply-timeout") {
		d, _ := f.GetDuration("reply-timeout")
		t.ReplyTimeout = config.Duration(d)
	}
	return nil
}
