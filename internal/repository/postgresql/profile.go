package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hireconnect/hireconnect-backend-go/internal/domain/profile"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `id, full_name, email, mobile, dob, gender, nationality, qualification,
	specialization, college, graduation_year, cgpa, position, experience, location,
	expected_salary, password_hash, photo, documents, is_locked, locked_by, locked_at,
	update_count, created_at, updated_at`

type profileRepositoryImpl struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) profile.ProfileRepository {
	return &profileRepositoryImpl{db: db}
}

func scanProfile(row pgx.Row) (profile.Profile, error) {
	var p profile.Profile
	err := row.Scan(
		&p.ID, &p.FullName, &p.Email, &p.Mobile, &p.DOB, &p.Gender, &p.Nationality, &p.Qualification,
		&p.Specialization, &p.College, &p.GraduationYear, &p.CGPA, &p.Position, &p.Experience, &p.Location,
		&p.ExpectedSalary, &p.PasswordHash, &p.Photo, &p.Documents, &p.IsLocked, &p.LockedBy, &p.LockedAt,
		&p.UpdateCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.Profile{}, profile.ErrProfileNotFound
		}
		return profile.Profile{}, err
	}
	return p, nil
}

// GetByID implements profile.ProfileRepository. Inside a transaction the row
// is locked until commit.
func (r *profileRepositoryImpl) GetByID(ctx context.Context, id string) (profile.Profile, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + profileColumns + ` FROM employee_profiles WHERE id = $1`
	if _, inTx := txFromContext(ctx); inTx {
		query += ` FOR UPDATE`
	}

	p, err := scanProfile(q.QueryRow(ctx, query, id))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

// Update implements profile.ProfileRepository.
func (r *profileRepositoryImpl) Update(ctx context.Context, id string, req profile.UpdateProfileRequest) (profile.Profile, error) {
	q := GetQuerier(ctx, r.db)

	updates := make(map[string]interface{})

	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	setString("full_name", req.FullName)
	setString("email", req.Email)
	setString("mobile", req.Mobile)
	setString("gender", req.Gender)
	setString("nationality", req.Nationality)
	setString("qualification", req.Qualification)
	setString("specialization", req.Specialization)
	setString("college", req.College)
	setString("position", req.Position)
	setString("location", req.Location)

	if req.DOB != nil {
		if *req.DOB == "" {
			updates["dob"] = nil
		} else {
			parsedDOB, err := time.Parse("2006-01-02", *req.DOB)
			if err != nil {
				return profile.Profile{}, fmt.Errorf("parse dob: %w", err)
			}
			updates["dob"] = parsedDOB
		}
	}
	if req.GraduationYear != nil {
		updates["graduation_year"] = *req.GraduationYear
	}
	if req.CGPA != nil {
		updates["cgpa"] = *req.CGPA
	}
	if req.Experience != nil {
		updates["experience"] = *req.Experience
	}
	if req.ExpectedSalary != nil {
		updates["expected_salary"] = *req.ExpectedSalary
	}
	if req.Documents != nil {
		docs := *req.Documents
		if docs == nil {
			docs = []string{}
		}
		updates["documents"] = docs
	}

	setClauses := make([]string, 0, len(updates)+2)
	args := make([]interface{}, 0, len(updates)+1)
	i := 1
	for col, val := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, val)
		i++
	}
	setClauses = append(setClauses, "update_count = update_count + 1", "updated_at = NOW()")
	args = append(args, id)

	sql := fmt.Sprintf("UPDATE employee_profiles SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), i, profileColumns)

	p, err := scanProfile(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("update profile %s: %w", id, err)
	}
	return p, nil
}

// UpdateLock implements profile.ProfileRepository.
func (r *profileRepositoryImpl) UpdateLock(ctx context.Context, id string, lock profile.Lock) (profile.Profile, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employee_profiles
		SET is_locked = $1, locked_by = $2, locked_at = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + profileColumns

	p, err := scanProfile(q.QueryRow(ctx, query, lock.IsLocked, lock.LockedBy, lock.LockedAt, id))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("update lock for profile %s: %w", id, err)
	}
	return p, nil
}

// SetPhoto implements profile.ProfileRepository. A nil photo clears it.
func (r *profileRepositoryImpl) SetPhoto(ctx context.Context, id string, photo *string) (profile.Profile, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employee_profiles
		SET photo = $1, update_count = update_count + 1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + profileColumns

	p, err := scanProfile(q.QueryRow(ctx, query, photo, id))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("set photo for profile %s: %w", id, err)
	}
	return p, nil
}
