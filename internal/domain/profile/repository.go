package profile

import "context"

// ProfileRepository stores profiles. Methods return ErrProfileNotFound when no
// row matches id. Every mutation except UpdateLock increments update_count.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	Update(ctx context.Context, id string, req UpdateProfileRequest) (Profile, error)
	UpdateLock(ctx context.Context, id string, lock Lock) (Profile, error)
	SetPhoto(ctx context.Context, id string, photo *string) (Profile, error)
}

// Transactor runs fn inside a single database transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
