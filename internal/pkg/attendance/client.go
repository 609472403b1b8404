package attendance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hireconnect/hireconnect-backend-go/internal/domain/punch"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/session"
)

const (
	PathPunchIn    = "/api/attendance/punch-in"
	PathPunchOut   = "/api/attendance/punch-out"
	PathBreakStart = "/api/attendance/break/start"
	PathBreakEnd   = "/api/attendance/break/end"
	PathToday      = "/api/attendance/today"
	PathLive       = "/api/admin/attendance/live"
)

// Client calls the Attendance Service over HTTP on behalf of one session
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
}

type Option func(*Client)

// WithHTTPClient replaces the default client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func NewClient(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		session: sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ punch.AttendanceClient = (*Client)(nil)

// PunchIn implements punch.AttendanceClient.
func (c *Client) PunchIn(ctx context.Context) (punch.PunchInResponse, error) {
	var out punch.PunchInResponse
	err := c.do(ctx, http.MethodPost, PathPunchIn, struct{}{}, &out)
	return out, err
}

// PunchOut implements punch.AttendanceClient.
func (c *Client) PunchOut(ctx context.Context) (punch.PunchOutResponse, error) {
	var out punch.PunchOutResponse
	err := c.do(ctx, http.MethodPost, PathPunchOut, struct{}{}, &out)
	return out, err
}

// StartBreak implements punch.AttendanceClient.
func (c *Client) StartBreak(ctx context.Context, req punch.StartBreakRequest) (punch.StartBreakResponse, error) {
	var out punch.StartBreakResponse
	err := c.do(ctx, http.MethodPost, PathBreakStart, req, &out)
	return out, err
}

// EndBreak implements punch.AttendanceClient.
func (c *Client) EndBreak(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, PathBreakEnd, struct{}{}, nil)
}

// Today implements punch.AttendanceClient.
func (c *Client) Today(ctx context.Context) (punch.TodayResponse, error) {
	var out punch.TodayResponse
	err := c.do(ctx, http.MethodGet, PathToday, nil, &out)
	return out, err
}

// Live implements punch.AttendanceClient.
func (c *Client) Live(ctx context.Context) ([]punch.LiveEmployee, error) {
	var out []punch.LiveEmployee
	err := c.do(ctx, http.MethodGet, PathLive, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal attendance request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create attendance request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.session.Authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call attendance service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read attendance response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return &punch.ServiceError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return fmt.Errorf("failed to decode attendance response: %w", err)
	}
	return nil
}

// errorMessage extracts the user-facing text of a failure body. Both the bare
// {"message": ...} shape and the gateway envelope {"error": {"message": ...}}
// are understood.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Error != nil {
		return body.Error.Message
	}
	return ""
}

// unwrap returns the data member of a gateway envelope, or raw unchanged.
func unwrap(raw []byte) []byte {
	var env struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Success == nil || len(env.Data) == 0 {
		return raw
	}
	return env.Data
}

// IsServiceError reports whether err came back from the service itself
// rather than from the transport.
func IsServiceError(err error) bool {
	var svcErr *punch.ServiceError
	return errors.As(err, &svcErr)
}
