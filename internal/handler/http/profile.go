package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hireconnect/hireconnect-backend-go/internal/domain/profile"
	"github.com/hireconnect/hireconnect-backend-go/internal/handler/http/response"
)

type ProfileHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	GetStats(w http.ResponseWriter, r *http.Request)
	GetLock(w http.ResponseWriter, r *http.Request)
	UpdateLock(w http.ResponseWriter, r *http.Request)
	UploadPhoto(w http.ResponseWriter, r *http.Request)
	DeletePhoto(w http.ResponseWriter, r *http.Request)
	GetEnhanced(w http.ResponseWriter, r *http.Request)
	UpdateEnhanced(w http.ResponseWriter, r *http.Request)
}

type profileHandlerImpl struct {
	profileService profile.ProfileService
	photoMaxBytes  int64
}

func NewProfileHandler(profileService profile.ProfileService, photoMaxBytes int64) ProfileHandler {
	return &profileHandlerImpl{
		profileService: profileService,
		photoMaxBytes:  photoMaxBytes,
	}
}

// writeResult sends a read answered by the backend or the local database and
// tags the response with its source.
func writeResult(w http.ResponseWriter, res profile.Result, message string) {
	w.Header().Set("X-Profile-Source", string(res.Source))
	if message != "" && res.Source == profile.SourceLocal {
		response.SuccessWithMessage(w, message, res.Data)
		return
	}
	response.Success(w, res.Data)
}

// Get implements ProfileHandler
func (h *profileHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.profileService.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	writeResult(w, res, "")
}

// GetStats implements ProfileHandler
func (h *profileHandlerImpl) GetStats(w http.ResponseWriter, r *http.Request) {
	res, err := h.profileService.GetStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	writeResult(w, res, "")
}

// GetLock implements ProfileHandler
func (h *profileHandlerImpl) GetLock(w http.ResponseWriter, r *http.Request) {
	state, err := h.profileService.GetLock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, profile.LockResponse{LockState: state})
}

// UpdateLock implements ProfileHandler
func (h *profileHandlerImpl) UpdateLock(w http.ResponseWriter, r *http.Request) {
	var req profile.UpdateLockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	state, err := h.profileService.UpdateLock(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Profile unlocked successfully"
	if req.IsLocked {
		message = "Profile locked successfully"
	}
	response.SuccessWithMessage(w, message, profile.LockResponse{LockState: state})
}

// UploadPhoto implements ProfileHandler
func (h *profileHandlerImpl) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.photoMaxBytes+(1<<20))
	if err := r.ParseMultipartForm(h.photoMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.HandleError(w, profile.ErrPhotoTooLarge)
			return
		}
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	req := profile.UploadPhotoRequest{EmployeeID: chi.URLParam(r, "id")}

	file, fileHeader, err := r.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		response.HandleError(w, profile.ErrPhotoRequired)
		return
	case err != nil:
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer file.Close()
	req.File = file
	req.FileHeader = fileHeader

	res, err := h.profileService.UploadPhoto(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	writeResult(w, res, "Photo uploaded successfully")
}

// DeletePhoto implements ProfileHandler
func (h *profileHandlerImpl) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.profileService.DeletePhoto(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Photo deleted successfully", nil)
}

// GetEnhanced implements ProfileHandler
func (h *profileHandlerImpl) GetEnhanced(w http.ResponseWriter, r *http.Request) {
	resp, err := h.profileService.GetEnhanced(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, resp)
}

// UpdateEnhanced implements ProfileHandler
func (h *profileHandlerImpl) UpdateEnhanced(w http.ResponseWriter, r *http.Request) {
	var req profile.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.profileService.UpdateEnhanced(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Profile updated successfully", resp)
}
