package profile

import "errors"

var (
	ErrProfileNotFound   = errors.New("employee not found")
	ErrInvalidEmployeeID = errors.New("invalid employee ID format")
	ErrNoPhoto           = errors.New("no photo to delete")
	ErrPhotoRequired     = errors.New("no file uploaded")
	ErrPhotoNotImage     = errors.New("file must be an image")
	ErrPhotoTooLarge     = errors.New("file size exceeds the upload limit")
)
