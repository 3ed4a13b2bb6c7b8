package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one request of a load run. It is reused for every
// send, so Build never mutates it.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    []byte
}

// NewRequest creates a request for method and path
func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Query:   make(url.Values),
		Headers: make(map[string]string),
	}
}

// WithHeader adds a header to the request
func (r *Request) WithHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// WithQueryParam adds a query parameter to the request
func (r *Request) WithQueryParam(key, value string) *Request {
	r.Query.Add(key, value)
	return r
}

// WithBody sets the request body
func (r *Request) WithBody(body []byte) *Request {
	r.Body = body
	return r
}

// Build constructs an http.Request. An absolute Path is used as is,
// otherwise it is joined onto baseURL.
func (r *Request) Build(ctx context.Context, baseURL string) (*http.Request, error) {
	reqURL, err := r.resolve(baseURL)
	if err != nil {
		return nil, err
	}

	query := reqURL.Query()
	for key, values := range r.Query {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	reqURL.RawQuery = query.Encode()

	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, err
	}
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

func (r *Request) resolve(baseURL string) (*url.URL, error) {
	if u, err := url.Parse(r.Path); err == nil && u.IsAbs() {
		return u, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	switch {
	case r.Path == "":
	case u.Path == "":
		u.Path = "/" + strings.TrimLeft(r.Path, "/")
	default:
		u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(r.Path, "/")
	}
	return u, nil
}

// Clone returns a copy whose headers and query can be changed without
// affecting r. The body is shared.
func (r *Request) Clone() *Request {
	c := *r
	c.Headers = make(map[string]string, len(r.Headers)+1)
	for k, v := range r.Headers {
		c.Headers[k] = v
	}
	c.Query = make(url.Values, len(r.Query))
	for k, v := range r.Query {
		c.Query[k] = append([]string(nil), v...)
	}
	return &c
}
