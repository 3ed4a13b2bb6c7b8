// Package metrics keeps the detailed latency record of a run and exports
// generator statistics to Prometheus.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds: 1µs to 1h at 3 significant figures.
const (
	histogramMin     = 1
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// LatencyPercentiles summarizes a set of RTT samples.
type LatencyPercentiles struct {
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P90   time.Duration `json:"p90"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Count int64         `json:"count"`
}

// StepLatency is the latency seen while the generator targeted PPS.
type StepLatency struct {
	PPS uint32 `json:"pps"`
	LatencyPercentiles
}

// Recorder collects RTT samples into HDR histograms, overall and per ramp
// step. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	all   *hdrhistogram.Histogram
	steps map[uint32]*hdrhistogram.Histogram
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		all:   newHistogram(),
		steps: make(map[uint32]*hdrhistogram.Histogram),
	}
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)
}

// Record adds one sample taken while the target rate was pps. Samples
// outside the histogram range are clamped to it.
func (r *Recorder) Record(pps uint32, rtt time.Duration) {
	us := rtt.Microseconds()
	if us < histogramMin {
		us = histogramMin
	}
	if us > histogramMax {
		us = histogramMax
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_ = r.all.RecordValue(us)
	h, ok := r.steps[pps]
	if !ok {
		h = newHistogram()
		r.steps[pps] = h
	}
	_ = h.RecordValue(us)
}

// Percentiles returns the summary over every sample.
func (r *Recorder) Percentiles() LatencyPercentiles {
	r.mu.Lock()
	defer r.mu.Unlock()
	return summarize(r.all)
}

// Steps returns the per-step summaries ordered by rate.
func (r *Recorder) Steps() []StepLatency {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]StepLatency, 0, len(r.steps))
	for pps, h := range r.steps {
		out = append(out, StepLatency{PPS: pps, LatencyPercentiles: summarize(h)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PPS < out[j].PPS })
	return out
}

// Sum returns the approximate total of all samples.
func (r *Recorder) Sum() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Duration(r.all.Mean()*float64(r.all.TotalCount())) * time.Microsecond
}

func summarize(h *hdrhistogram.Histogram) LatencyPercentiles {
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	if h.TotalCount() == 0 {
		return LatencyPercentiles{}
	}
	return LatencyPercentiles{
		Min:   us(h.Min()),
		Max:   us(h.Max()),
		Mean:  time.Duration(h.Mean() * float64(time.Microsecond)),
		P50:   us(h.ValueAtQuantile(50)),
		P90:   us(h.ValueAtQuantile(90)),
		P95:   us(h.ValueAtQuantile(95)),
		P99:   us(h.ValueAtQuantile(99)),
		Count: h.TotalCount(),
	}
}
