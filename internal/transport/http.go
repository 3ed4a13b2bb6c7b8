package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	rhttp "github.com/wesleyorama2/rampgen/internal/http"
	"github.com/wesleyorama2/rampgen/pkg/jsonpath"
)

// RequestIDHeader carries a fresh id on every request.
const RequestIDHeader = "X-Request-Id"

// Expectation is a check on the JSON body of every response. An empty
// Equals only requires Path to exist.
type Expectation struct {
	Path   string `json:"path" yaml:"path"`
	Equals string `json:"equals,omitempty" yaml:"equals,omitempty"`
}

// HTTPSender issues one HTTP request per Send on its own goroutine.
type HTTPSender struct {
	ctx     context.Context
	client  *rhttp.Client
	request *rhttp.Request
	replier Replier
	expect  []Expectation
	status  func(code int) bool
	onDone  func(resp *rhttp.Response, err error)
	logger  *zap.Logger

	wg     sync.WaitGroup
	counts counters
}

// HTTPOption configures an HTTPSender.
type HTTPOption func(*HTTPSender)

// WithExpectations adds body checks. A response failing one counts as an
// error.
func WithExpectations(expect ...Expectation) HTTPOption {
	return func(s *HTTPSender) {
		s.expect = append(s.expect, expect...)
	}
}

// WithStatusCheck replaces the default 2xx success check.
func WithStatusCheck(ok func(code int) bool) HTTPOption {
	return func(s *HTTPSender) {
		if ok != nil {
			s.status = ok
		}
	}
}

// WithResponseHook is called for every completed request, before the
// reply is reported. resp is nil when err is a transport error.
func WithResponseHook(fn func(resp *rhttp.Response, err error)) HTTPOption {
	return func(s *HTTPSender) {
		s.onDone = fn
	}
}

// WithHTTPLogger sets the logger.
func WithHTTPLogger(logger *zap.Logger) HTTPOption {
	return func(s *HTTPSender) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHTTPSender creates a sender. In-flight requests are cancelled with ctx.
func NewHTTPSender(ctx context.Context, client *rhttp.Client, request *rhttp.Request, replier Replier, opts ...HTTPOption) *HTTPSender {
	s := &HTTPSender{
		ctx:     ctx,
		client:  client,
		request: request,
		replier: replier,
		status:  func(code int) bool { return code >= 200 && code < 300 },
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "http-sender"))
	return s
}

// Send starts one request. It never blocks.
func (s *HTTPSender) Send(now time.Time) {
	req := s.request.Clone().WithHeader(RequestIDHeader, uuid.NewString())
	s.counts.requests.Add(1)
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		resp, err := s.client.Do(s.ctx, req)
		if err == nil {
			err = s.check(resp)
		}
		if err != nil {
			s.counts.errors.Add(1)
			s.logger.Debug("request failed",
				zap.String("request_id", req.Headers[RequestIDHeader]),
				zap.Error(err))
		}
		if s.onDone != nil {
			s.onDone(resp, err)
		}

		s.counts.replies.Add(1)
		s.replier.Reply(now)
	}()
}

func (s *HTTPSender) check(resp *rhttp.Response) error {
	if !s.status(resp.StatusCode) {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	for _, e := range s.expect {
		if err := jsonpath.Match(resp.Body(), e.Path, e.Equals); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks until every started request has reported its reply.
func (s *HTTPSender) Wait() {
	s.wg.Wait()
}

// Counters returns the outcome tallies so far.
func (s *HTTPSender) Counters() Counters {
	return s.counts.snapshot()
}
