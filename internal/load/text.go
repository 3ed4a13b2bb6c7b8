package load

import (
	"io"
	"strconv"
	"time"
)

// StatsHeader is the first line produced by AppendStats for a generator.
const StatsHeader = `"time","last_packet","rtt","rttvar","pps","pps_accepted","sent","received",` +
	`"ema_backlog","max_backlog","usec","10us","100us","ms","10ms","100ms","s","10s"` + "\n"

// AppendStats appends one line of comma separated statistics to dst. The
// first call on a generator appends StatsHeader instead; every later call
// appends a data row taken at now, with times in seconds since Start.
func (g *Generator) AppendStats(dst []byte, now time.Time) []byte {
	if !g.header {
		g.header = true
		return append(dst, StatsHeader...)
	}
	return g.stats.appendRow(dst, now)
}

// WriteStats writes the next stats line to w and returns the number of
// bytes written.
func (g *Generator) WriteStats(w io.Writer, now time.Time) (int, error) {
	var buf [256]byte
	return w.Write(g.AppendStats(buf[:0], now))
}

func (s *Stats) appendRow(dst []byte, now time.Time) []byte {
	dst = appendSeconds(dst, now.Sub(s.Start))
	dst = append(dst, ',')
	dst = appendSeconds(dst, s.LastSend.Sub(s.Start))

	ints := [...]int64{
		int64(s.RTT), int64(s.RTTVar),
		int64(s.PPS), int64(s.PPSAccepted),
		int64(s.Sent), int64(s.Received),
		s.BacklogEMA, s.MaxBacklog,
	}
	for _, v := range ints {
		dst = append(dst, ',')
		dst = strconv.AppendInt(dst, v, 10)
	}
	for _, v := range s.Times {
		dst = append(dst, ',')
		dst = strconv.AppendUint(dst, v, 10)
	}
	return append(dst, '\n')
}

// appendSeconds formats d as fractional seconds with six decimals.
func appendSeconds(dst []byte, d time.Duration) []byte {
	return strconv.AppendFloat(dst, d.Seconds(), 'f', 6, 64)
}
