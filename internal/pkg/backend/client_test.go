package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/session"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authed() context.Context {
	return session.IntoContext(context.Background(), session.New("tok"))
}

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/employees/42/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"fullName":"Asha"}`))
	}))
	defer srv.Close()

	c := NewClient("test", srv.URL+"/", time.Second)
	raw, err := c.GetJSON(authed(), "/api/employees/42/profile")
	require.NoError(t, err)
	assert.JSONEq(t, `{"fullName":"Asha"}`, string(raw))
}

func TestClient_GetJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Employee not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("test", srv.URL, time.Second)
	_, err := c.GetJSON(authed(), "/x")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.True(t, IsClientError(err))
}

func TestClient_GetJSONRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	_, err := NewClient("test", srv.URL, time.Second).GetJSON(authed(), "/x")
	assert.Error(t, err)
}

func TestClient_BreakerOpensOnServerFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	st := DefaultSettings("test")
	st.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 2 }
	c := NewClient("test", srv.URL, time.Second, WithBreakerSettings(st))

	for i := 0; i < 2; i++ {
		_, err := c.GetJSON(authed(), "/x")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	_, err := c.GetJSON(authed(), "/x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the backend")
}

func TestClient_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	st := DefaultSettings("test")
	st.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 1 }
	c := NewClient("test", srv.URL, time.Second, WithBreakerSettings(st))

	for i := 0; i < 3; i++ {
		_, err := c.GetJSON(authed(), "/x")
		require.True(t, IsClientError(err))
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestClient_PostFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, fh, err := r.FormFile("photo")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)

		assert.Equal(t, "me.png", fh.Filename)
		assert.Equal(t, "image/png", fh.Header.Get("Content-Type"))
		assert.Equal(t, "pngbytes", string(body))
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient("test", srv.URL, time.Second)
	raw, err := c.PostFile(authed(), "/api/employees/1/profile/photo", "photo", "me.png", "image/png", strings.NewReader("pngbytes"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"ok"}`, string(raw))
}

func TestClient_Forward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/attendance/break/start", r.URL.Path)
		assert.Equal(t, "a=1", r.URL.RawQuery)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Cookie"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"reason":"lunch"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"breakStartTime":"2026-03-02T12:00:00Z"}`))
	}))
	defer srv.Close()

	in := httptest.NewRequest(http.MethodPost, "/api/attendance/break/start?a=1", strings.NewReader(`{"reason":"lunch"}`))
	in.Header.Set("Content-Type", "application/json")
	in.Header.Set("Cookie", "sid=1")

	c := NewClient("test", srv.URL, time.Second)
	resp, err := c.Forward(authed(), in, in.URL.Path)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
