package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/agridesk/portal/core/profile"
)

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) *profileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, email, full_name, role, phone, department, position, created_at, updated_at`

func (repo profileRepository) CreateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	query := `
		INSERT INTO profiles (email, full_name, role, phone, department, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + profileColumns
	if prof.ID != "" {
		query = `
		INSERT INTO profiles (id, email, full_name, role, phone, department, position, created_at, updated_at)
		VALUES ($9, $1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + profileColumns
	}

	args := []interface{}{
		prof.Email, prof.FullName, prof.Role, prof.Phone, prof.Department, prof.Position,
		prof.CreatedAt, prof.UpdatedAt,
	}
	if prof.ID != "" {
		args = append(args, prof.ID)
	}

	var created profile.Profile
	if err := repo.db.GetContext(ctx, &created, query, args...); err != nil {
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return created, nil
}

func (repo profileRepository) GetProfileByID(ctx context.Context, id string) (profile.Profile, error) {
	var prof profile.Profile
	err := repo.db.GetContext(ctx, &prof, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, errors.Wrap(err, "getting profile by id")
	}
	return prof, nil
}

func (repo profileRepository) GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error) {
	var prof profile.Profile
	err := repo.db.GetContext(ctx, &prof, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, errors.Wrap(err, "getting profile by email")
	}
	return prof, nil
}

func (repo profileRepository) QueryAllProfiles(ctx context.Context) ([]profile.Profile, error) {
	profiles := make([]profile.Profile, 0)
	err := repo.db.SelectContext(ctx, &profiles, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	return profiles, nil
}
