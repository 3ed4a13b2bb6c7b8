package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// EchoReply is the body EchoHandler answers with.
type EchoReply struct {
	Status string `json:"status"`
	Method string `json:"method"`
	Path   string `json:"path"`
	// RequestID echoes the RequestIDHeader of the request.
	RequestID string `json:"requestId,omitempty"`
}

// EchoHandler answers every request with an EchoReply after delay.
// /health answers immediately with "OK".
func EchoHandler(delay time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-r.Context().Done():
				t.Stop()
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(EchoReply{
			Status:    "ok",
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get(RequestIDHeader),
		})
	})
	return mux
}

// EchoHTTP serves EchoHandler on ln until ctx is done.
func EchoHTTP(ctx context.Context, ln net.Listener, delay time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "http-echo"), zap.Stringer("addr", ln.Addr()))

	server := &http.Server{
		Handler:           EchoHandler(delay),
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5*time.Second + delay,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("echo server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("echo server listening")
	err := server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}
