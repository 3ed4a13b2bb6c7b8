package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/rampgen/internal/config"
	"github.com/wesleyorama2/rampgen/internal/driver"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a ramp against a simulated service",
		Long: `Run the generator on a virtual clock against a FIFO service with a fixed
one-way latency and a capacity in requests per second. The run finishes
as fast as it can be computed and always produces the same result.

A test file can be given with --config; its target is replaced by the
simulated service and its ramp is kept.

  rampgen simulate --start-pps 100 --step 100 --max-pps 1000 \
    --latency 5ms --capacity 600`,
		Args: cobra.NoArgs,
		RunE: runSimulate,
	}

	addLoadFlags(cmd)
	f := cmd.Flags()
	f.Duration("latency", 0, "One-way latency of the simulated service")
	f.Uint32("capacity", 0, "Requests per second the service completes (0 for unlimited)")
	f.Int("queue-limit", 0, "Requests the service queues before dropping (0 for unlimited)")
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, simulateTarget)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	res, err := driver.Simulate(cfg, driver.Deps{
		Logger:  logger,
		Console: progressConsole(cmd, cfg),
	})
	if err != nil {
		return err
	}
	return report(cmd, cfg, res.Summary)
}

func simulateTarget(cmd *cobra.Command, cfg *config.TestConfig) error {
	f := cmd.Flags()
	t := &cfg.Target
	if t.Type != config.TargetSimulate {
		*t = config.TargetConfig{Type: config.TargetSimulate}
	}
	if f.Changed("latency") {
		d, _ := f.GetDuration("latency")
		t.Latency = config.Duration(d)
	}
	if f.Changed("capacity") {
		t.Capacity, _ = f.GetUint32("capacity")
	}
	if f.Changed("queue-limit") {
		t.QueueLimit, _ = f.GetInt("queue-limit")
	}
	return nil
}
