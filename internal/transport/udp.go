package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// A datagram is a 16 byte request id followed by the send time in
// nanoseconds since the Unix epoch, big endian. Echo servers return it
// unchanged; anything after the header is ignored.
const datagramHeader = 16 + 8

// DefaultReplyTimeout is how long a UDP request waits for its echo before
// it is counted as lost.
const DefaultReplyTimeout = 5 * time.Second

// UDPSender sends datagrams to an echo service and matches the echoes to
// requests by id.
type UDPSender struct {
	conn    net.Conn
	replier Replier
	timeout time.Duration
	size    int
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]time.Time

	counts counters
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// UDPOption configures a UDPSender.
type UDPOption func(*UDPSender)

// WithReplyTimeout sets how long to wait for an echo. Requests older than
// that are reported as replies and counted lost so a drain can complete.
// Zero waits forever.
func WithReplyTimeout(d time.Duration) UDPOption {
	return func(s *UDPSender) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithPayloadSize pads datagrams to n bytes. Sizes below the header size
// are ignored.
func WithPayloadSize(n int) UDPOption {
	return func(s *UDPSender) {
		if n > datagramHeader {
			s.size = n
		}
	}
}

// WithUDPLogger sets the logger.
func WithUDPLogger(logger *zap.Logger) UDPOption {
	return func(s *UDPSender) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// DialUDP connects to addr and starts reading echoes.
func DialUDP(addr string, replier Replier, opts ...UDPOption) (*UDPSender, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	s := &UDPSender{
		conn:    conn,
		replier: replier,
		timeout: DefaultReplyTimeout,
		size:    datagramHeader,
		logger:  zap.NewNop(),
		pending: make(map[uuid.UUID]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "udp-sender"), zap.String("addr", addr))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.readLoop()
	if s.timeout > 0 {
		s.wg.Add(1)
		go s.expireLoop(ctx)
	}
	return s, nil
}

// Send writes one datagram.
func (s *UDPSender) Send(now time.Time) {
	id := uuid.New()
	buf := make([]byte, s.size)
	copy(buf, id[:])
	binary.BigEndian.PutUint64(buf[16:], uint64(now.UnixNano()))

	s.mu.Lock()
	s.pending[id] = now
	s.mu.Unlock()
	s.counts.requests.Add(1)

	if _, err := s.conn.Write(buf); err != nil {
		s.counts.errors.Add(1)
		s.logger.Debug("write failed", zap.Error(err))
		// Send runs on the generator's loop; a reply posts back to that
		// loop and must not block it.
		if s.take(id) {
			go s.reply(now)
		}
	}
}

func (s *UDPSender) readLoop() {
	defer s.wg.Done()

	buf := make([]byte, 64*1024)
	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// ICMP port unreachable surfaces here; keep reading.
			s.logger.Debug("read failed", zap.Error(err))
			continue
		}
		if n < datagramHeader {
			continue
		}

		var id uuid.UUID
		copy(id[:], buf[:16])

		s.mu.Lock()
		requestTime, ok := s.pending[id]
		delete(s.pending, id)
		s.mu.Unlock()

		if ok {
			s.reply(requestTime)
		}
	}
}

func (s *UDPSender) expireLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.timeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, requestTime := range s.expire(now) {
				s.counts.lost.Add(1)
				s.reply(requestTime)
			}
		}
	}
}

// expire removes and returns the requests older than the reply timeout.
func (s *UDPSender) expire(now time.Time) []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []time.Time
	for id, requestTime := range s.pending {
		if now.Sub(requestTime) >= s.timeout {
			delete(s.pending, id)
			out = append(out, requestTime)
		}
	}
	return out
}

func (s *UDPSender) take(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	delete(s.pending, id)
	return ok
}

func (s *UDPSender) reply(requestTime time.Time) {
	s.counts.replies.Add(1)
	s.replier.Reply(requestTime)
}

// Pending returns the number of requests awaiting an echo.
func (s *UDPSender) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Counters returns the outcome tallies so far.
func (s *UDPSender) Counters() Counters {
	return s.counts.snapshot()
}

// Close stops reading and closes the socket. Requests still pending are
// never reported.
func (s *UDPSender) Close() error {
	s.cancel()
	err := s.conn.Close()
	s.wg.Wait()
	return err
}
