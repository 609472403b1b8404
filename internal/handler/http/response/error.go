package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hireconnect/hireconnect-backend-go/internal/domain/profile"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/storage"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Profile domain errors
	case errors.Is(err, profile.ErrInvalidEmployeeID):
		BadRequest(w, "Invalid employee ID format", nil)
	case errors.Is(err, profile.ErrProfileNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, profile.ErrNoPhoto):
		BadRequest(w, "No photo to delete", nil)
	case errors.Is(err, profile.ErrPhotoRequired):
		BadRequest(w, "No file uploaded", nil)
	case errors.Is(err, profile.ErrPhotoNotImage):
		BadRequest(w, "File must be an image", nil)
	case errors.Is(err, profile.ErrPhotoTooLarge):
		BadRequest(w, "File size exceeds the upload limit", nil)

	// Storage errors
	case errors.Is(err, storage.ErrInvalidPath):
		BadRequest(w, "Invalid file path", nil)

	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "Internal server error")
	}
}
