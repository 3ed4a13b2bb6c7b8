package http

import (
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// Timing holds the phases of one request. Phases that did not happen, such
// as dialing on a reused connection, are zero.
type Timing struct {
	Start           time.Time
	DNSLookup       time.Duration
	TCPConnect      time.Duration
	TLSHandshake    time.Duration
	TimeToFirstByte time.Duration
	ContentTransfer time.Duration
	Total           time.Duration
	Reused          bool
}

// Response is a completed response with its body already read
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Timing     Timing
	body       []byte
}

// Body returns the response body
func (r *Response) Body() []byte {
	return r.body
}

// Header returns the value of the named header
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

// IsSuccess reports a 2xx status
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON looks up a gjson path in the body.
func (r *Response) JSON(path string) gjson.Result {
	return gjson.GetBytes(r.body, path)
}
