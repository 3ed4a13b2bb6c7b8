package perf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/rampgen/internal/load"
)

func TestRunner_Simulate(t *testing.T) {
	cfg := &Config{
		Target: TargetConfig{Latency: Duration(time.Millisecond)},
		Load:   LoadSettings{StartPPS: 100, Step: 100, MaxPPS: 200, Duration: Duration(time.Second)},
	}

	s, err := NewRunner(cfg).Simulate()
	require.NoError(t, err)
	assert.True(t, s.Drained)
	assert.Equal(t, load.StateDraining, s.State)
	assert.Equal(t, s.Stats.Sent, s.Stats.Received)
	assert.Equal(t, 2*time.Millisecond, s.Latency.P50)
}

func TestRunner_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	cfg := &Config{
		Target: TargetConfig{URL: server.URL},
		Load:   LoadSettings{StartPPS: 20, Step: 20, MaxPPS: 40, Duration: Duration(200 * time.Millisecond)},
	}
	reg := prometheus.NewRegistry()

	s, err := NewRunner(cfg, WithRegistry(reg)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Drained)
	assert.Zero(t, s.Transport.Errors)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRunner_InvalidConfig(t *testing.T) {
	_, err := NewRunner(&Config{Target: TargetConfig{Type: "http"}}).Run(context.Background())
	assert.ErrorContains(t, err, "target.url")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target:\n  address: 127.0.0.1:9000\nload:\n  maxPps: 10\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "udp", cfg.Target.Type)
	assert.Equal(t, uint32(10), cfg.Load.MaxPPS)
}
