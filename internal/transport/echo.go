package transport

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
)

// Echo returns every datagram received on conn to its sender, optionally
// after delay, until ctx is done. It is a minimal target for UDP runs.
func Echo(ctx context.Context, conn net.PacketConn, delay time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "udp-echo"), zap.Stringer("addr", conn.LocalAddr()))

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	logger.Info("echo server listening")
	buf := make([]byte, 64*1024)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		msg := append([]byte(nil), buf[:n]...)
		if delay <= 0 {
			if _, err := conn.WriteTo(msg, addr); err != nil {
				logger.Debug("echo failed", zap.Error(err))
			}
			continue
		}
		time.AfterFunc(delay, func() {
			if _, err := conn.WriteTo(msg, addr); err != nil {
				logger.Debug("echo failed", zap.Error(err))
			}
		})
	}
}
