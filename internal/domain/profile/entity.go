package profile

import (
	"math"
	"strings"
	"time"
)

// LockedBySelf marks a lock held by the profile owner, who may keep editing.
const LockedBySelf = "self"

type Profile struct {
	ID             string
	FullName       string
	Email          string
	Mobile         string
	DOB            *time.Time
	Gender         string
	Nationality    string
	Qualification  string
	Specialization string
	College        string
	GraduationYear *int
	CGPA           *float64
	Position       string
	Experience     *int
	Location       string
	ExpectedSalary *int64
	PasswordHash   *string
	Photo          *string
	Documents      []string
	IsLocked       bool
	LockedBy       *string
	LockedAt       *time.Time
	UpdateCount    int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanEdit reports whether the profile is open for editing: either unlocked or
// locked by its owner.
func (p Profile) CanEdit() bool {
	return !p.IsLocked || (p.LockedBy != nil && *p.LockedBy == LockedBySelf)
}

// Completion is the percentage of filled profile fields, counting the photo
// and having at least one document as one field each. Zero numbers count as
// empty.
func (p Profile) Completion() int {
	filled := []bool{
		notBlank(p.FullName),
		notBlank(p.Email),
		notBlank(p.Mobile),
		p.DOB != nil && !p.DOB.IsZero(),
		notBlank(p.Gender),
		notBlank(p.Nationality),
		notBlank(p.Qualification),
		notBlank(p.Specialization),
		notBlank(p.College),
		p.GraduationYear != nil && *p.GraduationYear != 0,
		p.CGPA != nil && *p.CGPA != 0,
		notBlank(p.Position),
		p.Experience != nil && *p.Experience != 0,
		notBlank(p.Location),
		p.ExpectedSalary != nil && *p.ExpectedSalary != 0,
		p.Photo != nil && *p.Photo != "",
		len(p.Documents) > 0,
	}

	done := 0
	for _, ok := range filled {
		if ok {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(filled)) * 100))
}

func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
