package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/hireconnect/hireconnect-backend-go/internal/domain/profile"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/backend"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/storage"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/validator"
	"github.com/sony/gobreaker"
)

type ProfileServiceImpl struct {
	repo          profile.ProfileRepository
	tx            profile.Transactor
	backend       profile.Backend
	storage       storage.FileStorage
	photoMaxBytes int64
	now           func() time.Time
}

type Option func(*ProfileServiceImpl)

// WithClock overrides the time source used to name uploaded photos.
func WithClock(now func() time.Time) Option {
	return func(s *ProfileServiceImpl) { s.now = now }
}

func NewProfileService(
	repo profile.ProfileRepository,
	tx profile.Transactor,
	backend profile.Backend,
	storage storage.FileStorage,
	photoMaxBytes int64,
	opts ...Option,
) profile.ProfileService {
	s := &ProfileServiceImpl{
		repo:          repo,
		tx:            tx,
		backend:       backend,
		storage:       storage,
		photoMaxBytes: photoMaxBytes,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func profilePath(id, suffix string) string {
	return "/api/employees/" + id + "/profile" + suffix
}

// GetProfile implements profile.ProfileService.
func (s *ProfileServiceImpl) GetProfile(ctx context.Context, id string) (profile.Result, error) {
	if !validator.IsValidEmployeeID(id) {
		return profile.Result{}, profile.ErrInvalidEmployeeID
	}

	raw, err := s.backend.GetJSON(ctx, profilePath(id, ""))
	if err == nil {
		slog.Info("Profile served from backend", "employee_id", id)
		return profile.BackendResult(raw), nil
	}
	logBackendFailure("Backend profile lookup failed, using local database", id, err)

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return profile.Result{}, err
	}
	return profile.LocalResult(profile.NewProfileResponse(p)), nil
}

// GetStats implements profile.ProfileService.
func (s *ProfileServiceImpl) GetStats(ctx context.Context, id string) (profile.Result, error) {
	if !validator.IsValidEmployeeID(id) {
		return profile.Result{}, profile.ErrInvalidEmployeeID
	}

	p, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return profile.LocalResult(profile.NewStats(p)), nil
	}
	if !errors.Is(err, profile.ErrProfileNotFound) {
		return profile.Result{}, err
	}

	raw, err := s.backend.GetJSON(ctx, profilePath(id, "/stats"))
	if err != nil {
		logBackendFailure("Backend stats lookup failed", id, err)
		return profile.Result{}, profile.ErrProfileNotFound
	}
	return profile.BackendResult(raw), nil
}

// GetLock implements profile.ProfileService.
func (s *ProfileServiceImpl) GetLock(ctx context.Context, id string) (profile.LockState, error) {
	if !validator.IsValidEmployeeID(id) {
		return profile.LockState{}, profile.ErrInvalidEmployeeID
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return profile.LockState{}, err
	}
	return profile.NewLockState(p), nil
}

// UpdateLock implements profile.ProfileService.
func (s *ProfileServiceImpl) UpdateLock(ctx context.Context, id string, req profile.UpdateLockRequest) (profile.LockState, error) {
	if !validator.IsValidEmployeeID(id) {
		return profile.LockState{}, profile.ErrInvalidEmployeeID
	}
	if err := req.Validate(); err != nil {
		return profile.LockState{}, err
	}

	p, err := s.repo.UpdateLock(ctx, id, req.Lock())
	if err != nil {
		return profile.LockState{}, err
	}
	slog.Info("Profile lock updated", "employee_id", id, "locked", p.IsLocked)
	return profile.NewLockState(p), nil
}

// UploadPhoto implements profile.ProfileService.
func (s *ProfileServiceImpl) UploadPhoto(ctx context.Context, req profile.UploadPhotoRequest) (profile.Result, error) {
	if !validator.IsValidEmployeeID(req.EmployeeID) {
		return profile.Result{}, profile.ErrInvalidEmployeeID
	}
	if err := req.Validate(s.photoMaxBytes); err != nil {
		return profile.Result{}, err
	}

	id := req.EmployeeID
	ext := strings.ToLower(filepath.Ext(req.FileHeader.Filename))
	key := fmt.Sprintf("profiles/%s_%d%s", id, s.now().UnixMilli(), ext)

	var (
		publicPath string
		oldPhoto   *string
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		oldPhoto = current.Photo

		saved, err := s.storage.Save(ctx, io.LimitReader(req.File, s.photoMaxBytes+1), key)
		if err != nil {
			return fmt.Errorf("failed to store photo: %w", err)
		}
		publicPath = s.storage.PublicPath(saved)

		if _, err := s.repo.SetPhoto(ctx, id, &publicPath); err != nil {
			s.removeFile(ctx, saved)
			return err
		}
		return nil
	})

	switch {
	case err == nil:
		if oldPhoto != nil && *oldPhoto != publicPath {
			s.removePublic(ctx, *oldPhoto)
		}
		slog.Info("Profile photo stored", "employee_id", id, "path", publicPath)
		return profile.LocalResult(profile.PhotoResponse{PhotoPath: publicPath}), nil

	case errors.Is(err, profile.ErrProfileNotFound):
		return s.forwardPhoto(ctx, req)

	default:
		return profile.Result{}, err
	}
}

// forwardPhoto hands an upload for an employee without a local profile to the
// backend.
func (s *ProfileServiceImpl) forwardPhoto(ctx context.Context, req profile.UploadPhotoRequest) (profile.Result, error) {
	if _, err := req.File.Seek(0, io.SeekStart); err != nil {
		return profile.Result{}, fmt.Errorf("failed to rewind upload: %w", err)
	}

	raw, err := s.backend.PostFile(ctx, profilePath(req.EmployeeID, "/photo"), "photo",
		req.FileHeader.Filename, req.FileHeader.Header.Get("Content-Type"), req.File)
	if err != nil {
		logBackendFailure("Backend photo upload failed", req.EmployeeID, err)
		return profile.Result{}, profile.ErrProfileNotFound
	}
	slog.Info("Profile photo forwarded to backend", "employee_id", req.EmployeeID)
	return profile.BackendResult(raw), nil
}

// DeletePhoto implements profile.ProfileService.
func (s *ProfileServiceImpl) DeletePhoto(ctx context.Context, id string) error {
	if !validator.IsValidEmployeeID(id) {
		return profile.ErrInvalidEmployeeID
	}

	var removed string
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Photo == nil || *current.Photo == "" {
			return profile.ErrNoPhoto
		}
		removed = *current.Photo

		_, err = s.repo.SetPhoto(ctx, id, nil)
		return err
	})
	if err != nil {
		return err
	}

	s.removePublic(ctx, removed)
	return nil
}

// GetEnhanced implements profile.ProfileService.
func (s *ProfileServiceImpl) GetEnhanced(ctx context.Context, id string) (profile.ProfileResponse, error) {
	if !validator.IsValidEmployeeID(id) {
		return profile.ProfileResponse{}, profile.ErrInvalidEmployeeID
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return profile.ProfileResponse{}, err
	}
	return profile.NewProfileResponse(p), nil
}

// UpdateEnhanced implements profile.ProfileService.
func (s *ProfileServiceImpl) UpdateEnhanced(ctx context.Context, id string, req profile.UpdateProfileRequest) (profile.ProfileResponse, error) {
	if !validator.IsValidEmployeeID(id) {
		return profile.ProfileResponse{}, profile.ErrInvalidEmployeeID
	}
	if err := req.Validate(); err != nil {
		return profile.ProfileResponse{}, err
	}

	p, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return profile.ProfileResponse{}, err
	}
	slog.Info("Profile updated", "employee_id", id, "update_count", p.UpdateCount)
	return profile.NewProfileResponse(p), nil
}

func (s *ProfileServiceImpl) removePublic(ctx context.Context, publicPath string) {
	if key, ok := s.storage.KeyFromPublicPath(publicPath); ok {
		s.removeFile(ctx, key)
	}
}

func (s *ProfileServiceImpl) removeFile(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		slog.Warn("Failed to remove stored photo", "key", key, "error", err)
	}
}

func logBackendFailure(msg, id string, err error) {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		slog.Warn(msg, "employee_id", id, "reason", "circuit open")
	case backend.IsClientError(err):
		slog.Info(msg, "employee_id", id, "error", err)
	default:
		slog.Error(msg, "employee_id", id, "error", err)
	}
}
