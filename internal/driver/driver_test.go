package driver

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wesleyorama2/rampgen/internal/config"
	"github.com/wesleyorama2/rampgen/internal/load"
	"github.com/wesleyorama2/rampgen/internal/output"
	"github.com/wesleyorama2/rampgen/internal/transport"
)

var epoch = time.Unix(1_700_000_000, 0)

func newConfig(target config.TargetConfig, l config.RampConfig) *config.TestConfig {
	cfg := &config.TestConfig{Target: target, Load: l}
	cfg.ApplyDefaults()
	return cfg
}

func TestSimulate_Drains(t *testing.T) {
	cfg := newConfig(
		config.TargetConfig{Type: config.TargetSimulate, Latency: config.Duration(time.Millisecond)},
		config.RampConfig{StartPPS: 100, Step: 100, MaxPPS: 300, Duration: config.Duration(time.Second)},
	)

	res, err := Simulate(cfg, Deps{Start: epoch, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	s := res.Summary
	assert.True(t, s.Drained)
	assert.Empty(t, s.Reason)
	assert.Equal(t, load.StateDraining, s.State)
	assert.Equal(t, s.Stats.Sent, s.Stats.Received)
	assert.Equal(t, uint32(400), s.Stats.PPS)
	assert.InDelta(t, float64(3*time.Second), float64(s.Elapsed), float64(100*time.Millisecond))

	// 1ms each way.
	assert.Equal(t, 2*time.Millisecond, s.Latency.P50)
	assert.Equal(t, int64(s.Stats.Received), s.Latency.Count)
	assert.Equal(t, s.Stats.Received, s.Stats.Times[4])

	// The final burst is answered after the ramp passed the ceiling.
	require.Len(t, s.Steps, 4)
	assert.Equal(t, uint32(100), s.Steps[0].PPS)
	assert.Equal(t, uint32(400), s.Steps[3].PPS)
}

func TestSimulate_IsDeterministic(t *testing.T) {
	run := func() *output.Summary {
		cfg := newConfig(
			config.TargetConfig{Type: config.TargetSimulate, Latency: config.Duration(3 * time.Millisecond), Capacity: 250},
			config.RampConfig{StartPPS: 50, Step: 50, MaxPPS: 500, Duration: config.Duration(500 * time.Millisecond)},
		)
		res, err := Simulate(cfg, Deps{Start: epoch})
		require.NoError(t, err)
		return res.Summary
	}

	a, b := run(), run()
	assert.Equal(t, a.Stats, b.Stats)
	assert.Equal(t, a.Latency, b.Latency)
}

func TestSimulate_CapacityGates(t *testing.T) {
	cfg := newConfig(
		config.TargetConfig{Type: config.TargetSimulate, Latency: config.Duration(time.Millisecond), Capacity: 100},
		config.RampConfig{StartPPS: 50, Step: 50, MaxPPS: 400, Duration: config.Duration(time.Second), Milliseconds: 100},
	)
	cfg.Output.StatsFile = filepath.Join(t.TempDir(), "stats.csv")

	res, err := Simulate(cfg, Deps{Start: epoch})
	require.NoError(t, err)

	s := res.Summary
	assert.True(t, s.Drained)
	assert.Equal(t, s.Stats.Sent, s.Stats.Received)
	assert.Greater(t, s.Stats.MaxBacklog, int64(1))
	// 10ms of service plus 1ms each way.
	assert.Greater(t, s.Latency.Max, 10*time.Millisecond)

	data, err := os.ReadFile(cfg.Output.StatsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, strings.TrimSuffix(load.StatsHeader, "\n"), lines[0])
	assert.Greater(t, len(lines), 3)
	for _, line := range lines[1:] {
		assert.Len(t, strings.Split(line, ","), 18)
	}
}

func TestSimulate_Unbounded(t *testing.T) {
	cfg := newConfig(config.TargetConfig{Type: config.TargetSimulate}, config.RampConfig{})
	_, err := Simulate(cfg, Deps{})
	assert.ErrorIs(t, err, ErrUnbounded)
}

func TestSimulate_MaxRunTime(t *testing.T) {
	cfg := newConfig(
		config.TargetConfig{Type: config.TargetSimulate, Latency: config.Duration(time.Millisecond)},
		config.RampConfig{StartPPS: 10, Step: 10, MaxRunTime: config.Duration(2 * time.Second)},
	)

	res, err := Simulate(cfg, Deps{Start: epoch})
	require.NoError(t, err)

	assert.False(t, res.Summary.Drained)
	assert.Equal(t, ReasonMaxRunTime, res.Summary.Reason)
	assert.Equal(t, 2*time.Second, res.Summary.Elapsed)
	assert.Equal(t, load.StateSending, res.Summary.State)
}

func TestSimulate_DroppedRequestsEndRun(t *testing.T) {
	cfg := newConfig(
		config.TargetConfig{Type: config.TargetSimulate, Capacity: 10, QueueLimit: 1},
		config.RampConfig{StartPPS: 100, Step: 50, MaxPPS: 200, Duration: config.Duration(time.Second)},
	)

	res, err := Simulate(cfg, Deps{Start: epoch})
	require.NoError(t, err)

	s := res.Summary
	assert.False(t, s.Drained)
	assert.Equal(t, "requests dropped", s.Reason)
	assert.Greater(t, s.Transport.Dropped, uint64(0))
	assert.Equal(t, s.Stats.Sent-s.Stats.Received, s.Transport.Dropped)
}

func TestSimulate_Console(t *testing.T) {
	var buf bytes.Buffer
	cfg := newConfig(
		config.TargetConfig{Type: config.TargetSimulate, Latency: config.Duration(time.Millisecond)},
		config.RampConfig{StartPPS: 10, Step: 10, MaxPPS: 20, Duration: config.Duration(time.Second)},
	)

	_, err := Simulate(cfg, Deps{Start: epoch, Console: output.NewConsole(&buf, nil)})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "simulate (latency 1ms, capacity unlimited)")
	assert.Contains(t, out, "sending")
}

func TestRun_HTTP(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	cfg := newConfig(
		config.TargetConfig{
			Type:   config.TargetHTTP,
			URL:    server.URL + "/ping",
			Expect: []config.Expectation{{Path: "$.status", Equals: "ok"}},
		},
		config.RampConfig{StartPPS: 20, Step: 20, MaxPPS: 40, Duration: config.Duration(200 * time.Millisecond)},
	)
	cfg.Output.Interval = config.Duration(50 * time.Millisecond)
	cfg.Output.MetricsAddr = "127.0.0.1:0"

	reg := prometheus.NewRegistry()
	res, err := Run(context.Background(), cfg, Deps{Registry: reg})
	require.NoError(t, err)

	s := res.Summary
	assert.True(t, s.Drained, "reason: %s", s.Reason)
	assert.Equal(t, s.Stats.Sent, s.Stats.Received)
	assert.Equal(t, int64(s.Stats.Sent), hits.Load())
	assert.Zero(t, s.Transport.Errors)
	assert.NotEmpty(t, res.MetricsAddr)

	assert.Equal(t, float64(s.Stats.Sent), counterValue(t, reg, "rampgen_requests_sent_total"))

	// The endpoint is closed once the run returns.
	_, err = http.Get("http://" + res.MetricsAddr + "/metrics")
	assert.Error(t, err)
}

func TestRun_UDP(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = transport.Echo(ctx, conn, 0, nil) }()

	cfg := newConfig(
		config.TargetConfig{Type: config.TargetUDP, Address: conn.LocalAddr().String()},
		config.RampConfig{StartPPS: 50, Step: 50, MaxPPS: 100, Duration: config.Duration(200 * time.Millisecond)},
	)
	cfg.Output.Interval = config.Duration(50 * time.Millisecond)

	res, err := Run(context.Background(), cfg, Deps{})
	require.NoError(t, err)
	assert.True(t, res.Summary.Drained, "reason: %s", res.Summary.Reason)
	assert.Equal(t, res.Summary.Stats.Sent, res.Summary.Stats.Received)
	assert.Equal(t, "udp", res.Summary.Mode)
}

func TestRun_StopsEarly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	uncapped := config.RampConfig{StartPPS: 20, Step: 20, Duration: config.Duration(100 * time.Millisecond)}

	t.Run("max run time", func(t *testing.T) {
		cfg := newConfig(config.TargetConfig{Type: config.TargetHTTP, URL: server.URL}, uncapped)
		cfg.Load.MaxRunTime = config.Duration(150 * time.Millisecond)

		res, err := Run(context.Background(), cfg, Deps{})
		require.NoError(t, err)
		assert.False(t, res.Summary.Drained)
		assert.Equal(t, ReasonMaxRunTime, res.Summary.Reason)
		assert.Greater(t, res.Summary.Stats.Sent, uint64(0))
	})

	t.Run("interrupted", func(t *testing.T) {
		cfg := newConfig(config.TargetConfig{Type: config.TargetHTTP, URL: server.URL}, uncapped)

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()

		res, err := Run(ctx, cfg, Deps{})
		require.NoError(t, err)
		assert.False(t, res.Summary.Drained)
		assert.Equal(t, ReasonInterrupted, res.Summary.Reason)
	})
}

func TestRun_Errors(t *testing.T) {
	_, err := Run(context.Background(), newConfig(config.TargetConfig{Type: config.TargetSimulate}, config.RampConfig{}), Deps{})
	assert.ErrorContains(t, err, "use simulate")

	cfg := newConfig(config.TargetConfig{Type: config.TargetHTTP, URL: "http://127.0.0.1:1"}, config.RampConfig{})
	cfg.Output.StatsFile = filepath.Join(t.TempDir(), "missing", "stats.csv")
	_, err = Run(context.Background(), cfg, Deps{})
	assert.ErrorContains(t, err, "failed to create stats file")
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
