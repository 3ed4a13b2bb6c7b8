// Package perf runs rampgen load tests from Go code.
//
// A test is described by the same configuration the command line reads
// from YAML or JSON files:
//
//	cfg, err := perf.LoadConfig("checkout.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	summary, err := perf.NewRunner(cfg).Run(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Sent: %d, P99: %v\n", summary.Stats.Sent, summary.Latency.P99)
//
// Configurations can also be built directly:
//
//	cfg := &perf.Config{
//	    Target: perf.TargetConfig{Type: "http", URL: "http://localhost:8080/health"},
//	    Load:   perf.LoadSettings{StartPPS: 100, Step: 100, MaxPPS: 1000},
//	}
//
// # Simulation
//
// Simulate runs the same ramp against a simulated FIFO service on a virtual
// clock. It returns as soon as the result is computed and is deterministic,
// which makes it useful for exploring ramp settings:
//
//	cfg.Target = perf.TargetConfig{Type: "simulate", Latency: perf.Duration(5 * time.Millisecond), Capacity: 800}
//	summary, err := perf.NewRunner(cfg).Simulate()
//
// # Metrics
//
// WithRegistry registers the run's Prometheus collector on a registry the
// caller already serves.
package perf
