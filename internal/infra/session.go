package infra

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Session is a scoped handle on the HTTP connection pool used for all
// outbound source calls. Acquire one per poll cycle and Close it on every
// exit path; the pool's idle connections are released on Close.
//
// Using a session after Close is a caller bug and panics immediately rather
// than degrading silently.
type Session struct {
	client *http.Client
	closed atomic.Bool
}

// NewSession acquires a session with a pooled transport. Every request made
// through it carries the given per-call timeout.
func NewSession(timeout time.Duration) *Session {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &Session{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Get issues a single GET and returns the body and status code. The body is
// only read on HTTP 200; other statuses are drained and returned for the
// caller to decide. Transport-level failures come back as err.
func (s *Session) Get(ctx context.Context, url string) ([]byte, int, error) {
	if s.closed.Load() {
		panic("infra: network session used after Close")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// Close releases the session. Idempotent; in-flight requests are allowed to
// finish but any further Get panics.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.client.CloseIdleConnections()
}
