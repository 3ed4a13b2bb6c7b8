package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wesleyorama2/rampgen/internal/load"
	"github.com/wesleyorama2/rampgen/internal/transport"
)

const namespace = "rampgen"

// histogramBounds are the upper bounds, in seconds, of the generator's
// RTT histogram buckets; the last bucket is +Inf.
var histogramBounds = [load.HistogramBuckets - 1]float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1}

var states = []load.State{load.StateInit, load.StateSending, load.StateGated, load.StateDraining}

// Collector exports the latest observed generator snapshot. Values are
// produced at scrape time from the snapshot, so counters are exact copies
// of the generator's own.
type Collector struct {
	mu        sync.Mutex
	stats     load.Stats
	state     load.State
	transport transport.Counters
	recorder  *Recorder

	sent, received, errors, lost               *prometheus.Desc
	pps, accepted, rtt, rttvar                 *prometheus.Desc
	backlog, backlogEMA, maxBacklog, stateDesc *prometheus.Desc
	blocked, rttHist                           *prometheus.Desc
}

// NewCollector creates a collector. recorder, if not nil, supplies the sum
// of the exported RTT histogram.
func NewCollector(recorder *Recorder) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Collector{
		recorder:   recorder,
		sent:       desc("requests_sent_total", "Requests sent by the generator."),
		received:   desc("replies_received_total", "Replies received by the generator."),
		errors:     desc("transport_errors_total", "Requests that failed or failed their checks."),
		lost:       desc("transport_lost_total", "Requests given up on after the reply timeout."),
		pps:        desc("target_pps", "Current target rate in packets per second."),
		accepted:   desc("accepted_pps", "Reply rate over the current ramp step."),
		rtt:        desc("rtt_seconds", "Smoothed round trip time."),
		rttvar:     desc("rttvar_seconds", "Smoothed round trip time variation."),
		backlog:    desc("backlog", "Requests sent but not yet answered."),
		backlogEMA: desc("backlog_ema", "Smoothed backlog."),
		maxBacklog: desc("backlog_max", "Largest backlog seen."),
		stateDesc:  desc("state", "1 for the generator's current state.", "state"),
		blocked:    desc("blocked", "1 while the generator is gated on replies."),
		rttHist:    desc("rtt_histogram_seconds", "Round trip times as bucketed by the generator."),
	}
}

// Observe stores a generator snapshot for the next scrape.
func (c *Collector) Observe(stats load.Stats, state load.State) {
	c.mu.Lock()
	c.stats = stats
	c.state = state
	c.mu.Unlock()
}

// ObserveTransport stores transport tallies for the next scrape.
func (c *Collector) ObserveTransport(counters transport.Counters) {
	c.mu.Lock()
	c.transport = counters
	c.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.sent, c.received, c.errors, c.lost,
		c.pps, c.accepted, c.rtt, c.rttvar,
		c.backlog, c.backlogEMA, c.maxBacklog, c.stateDesc,
		c.blocked, c.rttHist,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	s, state, tc := c.stats, c.state, c.transport
	c.mu.Unlock()

	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	counter(c.sent, s.Sent)
	counter(c.received, s.Received)
	counter(c.errors, tc.Errors)
	counter(c.lost, tc.Lost)

	gauge(c.pps, float64(s.PPS))
	gauge(c.accepted, float64(s.PPSAccepted))
	gauge(c.rtt, s.RTT.Seconds())
	gauge(c.rttvar, s.RTTVar.Seconds())
	gauge(c.backlog, float64(s.Backlog()))
	gauge(c.backlogEMA, float64(s.BacklogEMA))
	gauge(c.maxBacklog, float64(s.MaxBacklog))
	for _, st := range states {
		v := 0.0
		if st == state {
			v = 1
		}
		gauge(c.stateDesc, v, st.String())
	}
	blocked := 0.0
	if s.Blocked {
		blocked = 1
	}
	gauge(c.blocked, blocked)

	buckets := make(map[float64]uint64, len(histogramBounds))
	var cumulative uint64
	for i, bound := range histogramBounds {
		cumulative += s.Times[i]
		buckets[bound] = cumulative
	}
	var sum float64
	if c.recorder != nil {
		sum = c.recorder.Sum().Seconds()
	}
	ch <- prometheus.MustNewConstHistogram(c.rttHist, s.Received, sum, buckets)
}

// Handler serves the metrics of reg, which should have c registered.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

var _ prometheus.Collector = (*Collector)(nil)
