package load

import "time"

// Inverse smoothing weights of the RTT estimator: srtt moves 1/8 and
// rttvar 1/4 of the way towards each sample.
const (
	rttAlpha = 8
	rttBeta  = 4
)

// HistogramBuckets is the number of latency buckets in Stats.Times.
const HistogramBuckets = 8

// bucketBounds are the exclusive upper bounds of buckets 0..6; bucket 7
// holds everything from one second up.
var bucketBounds = [HistogramBuckets - 1]time.Duration{
	time.Microsecond,
	10 * time.Microsecond,
	100 * time.Microsecond,
	time.Millisecond,
	10 * time.Millisecond,
	100 * time.Millisecond,
	time.Second,
}

// Stats holds the running statistics of a generator.
//
// Received never exceeds Sent, MaxBacklog is at least every backlog that
// was observed and the Times buckets sum to Received.
type Stats struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	LastSend time.Time `json:"lastSend"`

	Sent     uint64 `json:"sent"`
	Received uint64 `json:"received"`

	// RTT and RTTVar are smoothed in integer nanoseconds.
	RTT    time.Duration `json:"rtt"`
	RTTVar time.Duration `json:"rttvar"`

	PPS         uint32 `json:"pps"`
	PPSAccepted uint32 `json:"ppsAccepted"`

	BacklogEMA int64 `json:"backlogEma"`
	MaxBacklog int64 `json:"maxBacklog"`

	Blocked bool `json:"blocked"`

	Times [HistogramBuckets]uint64 `json:"times"`
}

// Backlog returns the number of sent requests without a reply.
func (s *Stats) Backlog() int64 {
	return int64(s.Sent - s.Received)
}

// updateBacklog records the instantaneous backlog and folds it into the
// moving average over pps samples:
//
//	ema' = (sample - ema) * 2 / (pps + 1) + ema
//
// rewritten so the only division happens last.
func (s *Stats) updateBacklog(backlog int64, pps uint32) {
	if backlog > s.MaxBacklog {
		s.MaxBacklog = backlog
	}

	n := int64(pps) + 1
	s.BacklogEMA = ((backlog-s.BacklogEMA)*2 + n*s.BacklogEMA) / n
}

// updateRTT folds one round trip sample into RTTVar and then RTT.
func (s *Stats) updateRTT(t time.Duration) {
	s.RTTVar = ((rttBeta-1)*s.RTTVar + absDiff(s.RTT, t)) / rttBeta
	s.RTT = (t + (rttAlpha-1)*s.RTT) / rttAlpha
}

// record counts a reply with round trip t.
func (s *Stats) record(t time.Duration) {
	s.updateRTT(t)
	s.Received++
	s.Times[bucketFor(t)]++
}

// bucketFor returns the histogram bucket of a round trip time.
func bucketFor(t time.Duration) int {
	for i, bound := range bucketBounds {
		if t < bound {
			return i
		}
	}
	return HistogramBuckets - 1
}

func absDiff(a, b time.Duration) time.Duration {
	if a < b {
		return b - a
	}
	return a - b
}
