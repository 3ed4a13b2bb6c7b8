package transport

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	rhttp "github.com/wesleyorama2/rampgen/internal/http"
)

func TestEchoHandler(t *testing.T) {
	server := httptest.NewServer(EchoHandler(0))
	defer server.Close()

	req, err := http.NewRequest(http.MethodPost, server.URL+"/orders", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var got EchoReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, EchoReply{Status: "ok", Method: http.MethodPost, Path: "/orders", RequestID: "abc"}, got)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	health, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	body, _ := io.ReadAll(health.Body)
	assert.Equal(t, "OK", string(body))
}

func TestEchoHandler_Delay(t *testing.T) {
	server := httptest.NewServer(EchoHandler(30 * time.Millisecond))
	defer server.Close()

	start := time.Now()
	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestEchoHTTP_ServesSenderUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- EchoHTTP(ctx, ln, 0, zaptest.NewLogger(t)) }()

	replies := &replyLog{}
	client := rhttp.NewClient(rhttp.WithBaseURL("http://" + ln.Addr().String()))
	s := NewHTTPSender(context.Background(), client, rhttp.NewRequest(http.MethodGet, "/"), replies,
		WithExpectations(Expectation{Path: "$.status", Equals: "ok"}, Expectation{Path: "$.requestId"}))

	now := time.Now()
	for i := 0; i < 5; i++ {
		s.Send(now)
	}
	s.Wait()
	assert.Equal(t, 5, replies.len())
	assert.Equal(t, Counters{Requests: 5, Replies: 5}, s.Counters())

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("echo server did not stop")
	}
}
