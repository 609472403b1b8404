package profile

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/validator"
)

// ProfileResponse is the public view of a profile. The password hash is never
// part of it.
type ProfileResponse struct {
	ID             string     `json:"id"`
	FullName       string     `json:"fullName"`
	Email          string     `json:"email"`
	Mobile         string     `json:"mobile"`
	DOB            *string    `json:"dob"`
	Gender         string     `json:"gender"`
	Nationality    string     `json:"nationality"`
	Qualification  string     `json:"qualification"`
	Specialization string     `json:"specialization"`
	College        string     `json:"college"`
	GraduationYear *int       `json:"graduationYear"`
	CGPA           *float64   `json:"cgpa"`
	Position       string     `json:"position"`
	Experience     *int       `json:"experience"`
	Location       string     `json:"location"`
	ExpectedSalary *int64     `json:"expectedSalary"`
	Photo          *string    `json:"photo"`
	Documents      []string   `json:"documents"`
	IsLocked       bool       `json:"isLocked"`
	LockedBy       *string    `json:"lockedBy"`
	LockedAt       *time.Time `json:"lockedAt"`
	UpdateCount    int        `json:"updateCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func NewProfileResponse(p Profile) ProfileResponse {
	var dob *string
	if p.DOB != nil {
		s := p.DOB.Format("2006-01-02")
		dob = &s
	}
	docs := p.Documents
	if docs == nil {
		docs = []string{}
	}

	return ProfileResponse{
		ID:             p.ID,
		FullName:       p.FullName,
		Email:          p.Email,
		Mobile:         p.Mobile,
		DOB:            dob,
		Gender:         p.Gender,
		Nationality:    p.Nationality,
		Qualification:  p.Qualification,
		Specialization: p.Specialization,
		College:        p.College,
		GraduationYear: p.GraduationYear,
		CGPA:           p.CGPA,
		Position:       p.Position,
		Experience:     p.Experience,
		Location:       p.Location,
		ExpectedSalary: p.ExpectedSalary,
		Photo:          p.Photo,
		Documents:      docs,
		IsLocked:       p.IsLocked,
		LockedBy:       p.LockedBy,
		LockedAt:       p.LockedAt,
		UpdateCount:    p.UpdateCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// UpdateProfileRequest carries the editable fields of a profile. id and
// createdAt are not part of it, so a body that sends them has no effect on
// either.
type UpdateProfileRequest struct {
	FullName       *string   `json:"fullName,omitempty"`
	Email          *string   `json:"email,omitempty"`
	Mobile         *string   `json:"mobile,omitempty"`
	DOB            *string   `json:"dob,omitempty"`
	Gender         *string   `json:"gender,omitempty"`
	Nationality    *string   `json:"nationality,omitempty"`
	Qualification  *string   `json:"qualification,omitempty"`
	Specialization *string   `json:"specialization,omitempty"`
	College        *string   `json:"college,omitempty"`
	GraduationYear *int      `json:"graduationYear,omitempty"`
	CGPA           *float64  `json:"cgpa,omitempty"`
	Position       *string   `json:"position,omitempty"`
	Experience     *int      `json:"experience,omitempty"`
	Location       *string   `json:"location,omitempty"`
	ExpectedSalary *int64    `json:"expectedSalary,omitempty"`
	Documents      *[]string `json:"documents,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.FullName != nil && validator.IsEmpty(*r.FullName) {
		errs = append(errs, validator.ValidationError{
			Field:   "fullName",
			Message: "fullName must not be empty",
		})
	}
	if r.Email != nil && !validator.IsEmpty(*r.Email) && !validator.IsValidEmail(*r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}
	if r.DOB != nil && *r.DOB != "" {
		dob, ok := validator.IsValidDate(*r.DOB)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "dob",
				Message: "dob must be in YYYY-MM-DD format",
			})
		} else if dob.After(time.Now()) {
			errs = append(errs, validator.ValidationError{
				Field:   "dob",
				Message: "dob cannot be in the future",
			})
		}
	}
	if r.GraduationYear != nil && (*r.GraduationYear < 0 || *r.GraduationYear > 9999) {
		errs = append(errs, validator.ValidationError{
			Field:   "graduationYear",
			Message: "graduationYear must be a four digit year",
		})
	}
	if r.CGPA != nil && *r.CGPA < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "cgpa",
			Message: "cgpa must not be negative",
		})
	}
	if r.Experience != nil && *r.Experience < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "experience",
			Message: "experience must not be negative",
		})
	}
	if r.ExpectedSalary != nil && *r.ExpectedSalary < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "expectedSalary",
			Message: "expectedSalary must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// IsEmpty reports whether no field is set.
func (r *UpdateProfileRequest) IsEmpty() bool {
	return r.FullName == nil && r.Email == nil && r.Mobile == nil && r.DOB == nil &&
		r.Gender == nil && r.Nationality == nil && r.Qualification == nil &&
		r.Specialization == nil && r.College == nil && r.GraduationYear == nil &&
		r.CGPA == nil && r.Position == nil && r.Experience == nil && r.Location == nil &&
		r.ExpectedSalary == nil && r.Documents == nil
}

type UpdateLockRequest struct {
	IsLocked bool    `json:"isLocked"`
	LockedBy *string `json:"lockedBy"`
	LockedAt *string `json:"lockedAt"`
}

func (r *UpdateLockRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.LockedAt != nil && *r.LockedAt != "" {
		if _, ok := validator.IsValidDateTime(*r.LockedAt); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "lockedAt",
				Message: "lockedAt must be an ISO8601 timestamp",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Lock converts the request into the stored lock fields. Empty strings clear
// lockedBy and lockedAt.
func (r *UpdateLockRequest) Lock() Lock {
	lock := Lock{IsLocked: r.IsLocked}
	if r.LockedBy != nil && *r.LockedBy != "" {
		by := *r.LockedBy
		lock.LockedBy = &by
	}
	if r.LockedAt != nil && *r.LockedAt != "" {
		if at, ok := validator.IsValidDateTime(*r.LockedAt); ok {
			lock.LockedAt = &at
		}
	}
	return lock
}

type Lock struct {
	IsLocked bool
	LockedBy *string
	LockedAt *time.Time
}

type LockState struct {
	IsLocked bool       `json:"isLocked"`
	LockedBy *string    `json:"lockedBy"`
	LockedAt *time.Time `json:"lockedAt"`
	CanEdit  bool       `json:"canEdit"`
}

func NewLockState(p Profile) LockState {
	return LockState{
		IsLocked: p.IsLocked,
		LockedBy: p.LockedBy,
		LockedAt: p.LockedAt,
		CanEdit:  p.CanEdit(),
	}
}

type LockResponse struct {
	LockState LockState `json:"lockState"`
}

type Stats struct {
	AccountCreated    *time.Time `json:"accountCreated"`
	ProfileCompleted  int        `json:"profileCompleted"`
	DocumentsUploaded int        `json:"documentsUploaded"`
	LastUpdated       *time.Time `json:"lastUpdated"`
	TotalUpdates      int        `json:"totalUpdates"`
}

func NewStats(p Profile) Stats {
	s := Stats{
		ProfileCompleted:  p.Completion(),
		DocumentsUploaded: len(p.Documents),
		TotalUpdates:      p.UpdateCount,
	}
	if !p.CreatedAt.IsZero() {
		created := p.CreatedAt
		s.AccountCreated = &created
	}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		s.LastUpdated = &updated
	}
	return s
}

type UploadPhotoRequest struct {
	EmployeeID string
	File       multipart.File
	FileHeader *multipart.FileHeader
}

// Validate checks presence, type and size of the uploaded photo against
// maxBytes.
func (r *UploadPhotoRequest) Validate(maxBytes int64) error {
	if r.File == nil || r.FileHeader == nil {
		return ErrPhotoRequired
	}
	if !validator.IsImageContentType(r.FileHeader.Header.Get("Content-Type")) {
		return ErrPhotoNotImage
	}
	if r.FileHeader.Size > maxBytes {
		return fmt.Errorf("%w: %d bytes max", ErrPhotoTooLarge, maxBytes)
	}
	return nil
}

type PhotoResponse struct {
	PhotoPath string `json:"photoPath"`
}

// Source names where a profile read was answered from.
type Source string

const (
	SourceBackend Source = "backend"
	SourceLocal   Source = "local"
)

// Result is a profile read answered by either the backend, whose JSON is
// relayed as is, or the local database.
type Result struct {
	Source Source
	Data   interface{}
}

// BackendResult wraps a raw backend payload.
func BackendResult(raw json.RawMessage) Result {
	return Result{Source: SourceBackend, Data: raw}
}

func LocalResult(data interface{}) Result {
	return Result{Source: SourceLocal, Data: data}
}
