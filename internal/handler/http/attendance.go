package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/hireconnect/hireconnect-backend-go/internal/handler/http/response"
)

// Forwarder relays a request to an upstream service.
type Forwarder interface {
	Forward(ctx context.Context, in *http.Request, path string) (*http.Response, error)
}

// AttendanceHandler relays attendance and admin attendance endpoints to the
// Attendance Service. Upstream status and body are passed through unchanged.
type AttendanceHandler interface {
	Forward(w http.ResponseWriter, r *http.Request)
	Reports(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	upstream Forwarder
}

func NewAttendanceHandler(upstream Forwarder) AttendanceHandler {
	return &attendanceHandlerImpl{
		upstream: upstream,
	}
}

var relayedHeaders = []string{"Content-Type", "Content-Disposition", "Cache-Control"}

// Forward implements AttendanceHandler.
func (h *attendanceHandlerImpl) Forward(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.call(w, r)
	if !ok {
		return
	}
	defer resp.Body.Close()

	for _, k := range relayedHeaders {
		if v := resp.Header.Get(k); v != "" {
			w.Header().Set(k, v)
		}
	}
	relay(w, resp)
}

// Reports implements AttendanceHandler. Excel and CSV exports are returned as
// file downloads.
func (h *attendanceHandlerImpl) Reports(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "excel" && format != "csv" {
		h.Forward(w, r)
		return
	}

	resp, ok := h.call(w, r)
	if !ok {
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := resp.Header.Get("Content-Disposition")
	if disposition == "" {
		disposition = "attachment; filename=report.xlsx"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	relay(w, resp)
}

func (h *attendanceHandlerImpl) call(w http.ResponseWriter, r *http.Request) (*http.Response, bool) {
	resp, err := h.upstream.Forward(r.Context(), r, r.URL.Path)
	if err != nil {
		slog.Error("Attendance service unreachable", "path", r.URL.Path, "error", err)
		response.BadGateway(w, "Attendance service unavailable")
		return nil, false
	}
	return resp, true
}

func relay(w http.ResponseWriter, resp *http.Response) {
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Warn("Failed to relay upstream body", "error", err)
	}
}
