package profile

import (
	"context"
	"encoding/json"
	"io"
)

// ProfileService implements the employee profile endpoints of the gateway.
type ProfileService interface {
	// GetProfile asks the backend first and falls back to the local database.
	GetProfile(ctx context.Context, id string) (Result, error)

	// GetStats reads the local database first and falls back to the backend.
	GetStats(ctx context.Context, id string) (Result, error)

	GetLock(ctx context.Context, id string) (LockState, error)
	UpdateLock(ctx context.Context, id string, req UpdateLockRequest) (LockState, error)

	// UploadPhoto stores the photo locally, or forwards it to the backend when
	// the employee has no local profile.
	UploadPhoto(ctx context.Context, req UploadPhotoRequest) (Result, error)
	DeletePhoto(ctx context.Context, id string) error

	GetEnhanced(ctx context.Context, id string) (ProfileResponse, error)
	UpdateEnhanced(ctx context.Context, id string, req UpdateProfileRequest) (ProfileResponse, error)
}

// Backend is the remote employee service the gateway falls back to.
type Backend interface {
	GetJSON(ctx context.Context, path string) (json.RawMessage, error)
	PostFile(ctx context.Context, path, field, filename, contentType string, file io.Reader) (json.RawMessage, error)
}
