package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/rampgen/internal/load"
	"github.com/wesleyorama2/rampgen/internal/transport"
)

func sampleStats() load.Stats {
	return load.Stats{
		Sent:        120,
		Received:    100,
		RTT:         1500 * time.Microsecond,
		RTTVar:      250 * time.Microsecond,
		PPS:         300,
		PPSAccepted: 280,
		BacklogEMA:  17,
		MaxBacklog:  25,
		Blocked:     true,
		Times:       [load.HistogramBuckets]uint64{0, 0, 10, 60, 30, 0, 0, 0},
	}
}

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector(nil)
	c.Observe(sampleStats(), load.StateGated)
	c.ObserveTransport(transport.Counters{Errors: 3, Lost: 1})

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP rampgen_backlog Requests sent but not yet answered.
# TYPE rampgen_backlog gauge
rampgen_backlog 20
# HELP rampgen_requests_sent_total Requests sent by the generator.
# TYPE rampgen_requests_sent_total counter
rampgen_requests_sent_total 120
# HELP rampgen_state 1 for the generator's current state.
# TYPE rampgen_state gauge
rampgen_state{state="draining"} 0
rampgen_state{state="gated"} 1
rampgen_state{state="init"} 0
rampgen_state{state="sending"} 0
# HELP rampgen_transport_errors_total Requests that failed or failed their checks.
# TYPE rampgen_transport_errors_total counter
rampgen_transport_errors_total 3
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"rampgen_backlog", "rampgen_requests_sent_total", "rampgen_state", "rampgen_transport_errors_total")
	assert.NoError(t, err)

	assert.Equal(t, 17, testutil.CollectAndCount(c))
}

func TestCollector_Histogram(t *testing.T) {
	c := NewCollector(nil)
	c.Observe(sampleStats(), load.StateSending)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "rampgen_rtt_histogram_seconds" {
			continue
		}
		found = true
		h := mf.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(100), h.GetSampleCount())

		cumulative := map[float64]uint64{}
		for _, b := range h.GetBucket() {
			cumulative[b.GetUpperBound()] = b.GetCumulativeCount()
		}
		assert.Equal(t, uint64(0), cumulative[1e-5])
		assert.Equal(t, uint64(10), cumulative[1e-4])
		assert.Equal(t, uint64(70), cumulative[1e-3])
		assert.Equal(t, uint64(100), cumulative[1e-2])
		assert.Equal(t, uint64(100), cumulative[1])
	}
	assert.True(t, found, "histogram not exported")
}

func TestHandler(t *testing.T) {
	c := NewCollector(NewRecorder())
	c.Observe(sampleStats(), load.StateSending)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rampgen_target_pps 300")
	assert.Contains(t, string(body), "rampgen_rtt_seconds 0.0015")
}
