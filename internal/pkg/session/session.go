package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

var ErrNoToken = errors.New("no bearer token available")

// Session carries the caller's bearer credential to every networked component.
// It is created once and passed explicitly instead of being looked up ad hoc.
type Session struct {
	token string
}

func New(token string) *Session {
	return &Session{token: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))}
}

// FromFile reads a token stored on disk, such as one written after sign in.
func FromFile(path string) (*Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	s := New(string(raw))
	if !s.Valid() {
		return nil, ErrNoToken
	}
	return s, nil
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

func (s *Session) Valid() bool {
	return s.Token() != ""
}

// Authorize sets the Authorization header when a token is present.
func (s *Session) Authorize(req *http.Request) {
	if s.Valid() {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}

type ctxKey struct{}

func IntoContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
