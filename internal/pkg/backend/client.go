package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/session"
	"github.com/sony/gobreaker"
)

// StatusError is a non-2xx reply from the backend.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// IsClientError reports whether err is a 4xx reply. Those are answers, not
// outages, and do not count against the breaker.
func IsClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}

// Client talks to the backend on behalf of the caller whose session is in the
// request context. JSON and upload calls go through a circuit breaker so an
// unhealthy backend is skipped quickly; Forward does not.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithBreakerSettings replaces the default breaker settings.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(cl *Client) { cl.cb = gobreaker.NewCircuitBreaker(st) }
}

func NewClient(name, baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
		cb: gobreaker.NewCircuitBreaker(DefaultSettings(name)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultSettings trips the breaker once at least 10 requests have been seen
// in the window and half of them failed.
func DefaultSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Backend circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
}

// State exposes the breaker state, mostly for health output.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

// GetJSON fetches path and returns the body of a 2xx reply.
func (c *Client) GetJSON(ctx context.Context, path string) (json.RawMessage, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create backend request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		session.FromContext(ctx).Authorize(req)
		return c.readJSON(req)
	})
	if err != nil {
		return nil, err
	}
	return out.(json.RawMessage), nil
}

// PostFile uploads file as a single multipart field to path.
func (c *Client) PostFile(ctx context.Context, path, field, filename, contentType string, file io.Reader) (json.RawMessage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to buffer upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}
	payload := buf.Bytes()

	out, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create backend request: %w", err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		session.FromContext(ctx).Authorize(req)
		return c.readJSON(req)
	})
	if err != nil {
		return nil, err
	}
	return out.(json.RawMessage), nil
}

func (c *Client) readJSON(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: raw}
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("backend returned invalid JSON")
	}
	return json.RawMessage(raw), nil
}

// Forward replays an inbound request against the backend and returns the raw
// response. The caller closes the body. Hop-by-hop headers are not copied.
func (c *Client) Forward(ctx context.Context, in *http.Request, path string) (*http.Response, error) {
	target := c.baseURL + path
	if in.URL.RawQuery != "" {
		target += "?" + in.URL.RawQuery
	}

	var body io.Reader
	if in.Body != nil && in.Method != http.MethodGet && in.Method != http.MethodHead {
		body = in.Body
	}

	req, err := http.NewRequestWithContext(ctx, in.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward request: %w", err)
	}
	for _, h := range forwardedHeaders {
		if v := in.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}
	req.ContentLength = in.ContentLength
	session.FromContext(ctx).Authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to forward to backend: %w", err)
	}
	return resp, nil
}

var forwardedHeaders = []string{"Accept", "Content-Type", "Accept-Language", "X-Request-Id"}
