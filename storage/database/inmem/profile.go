package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/agridesk/portal/core/profile"
)

type profileRepository struct {
	db *DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) CreateProfile(_ context.Context, prof profile.Profile) (profile.Profile, error) {
	repo.db.profile.Lock()
	defer repo.db.profile.Unlock()

	now := time.Now().UTC()
	prof.CreatedAt = now
	prof.UpdatedAt = now
	repo.db.profile.table[prof.ID] = &prof
	return prof, nil
}

func (repo *profileRepository) GetProfileByID(_ context.Context, id string) (profile.Profile, error) {
	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()

	if prof, ok := repo.db.profile.table[id]; ok {
		return *prof, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) GetProfileByEmail(_ context.Context, email string) (profile.Profile, error) {
	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()

	for _, prof := range repo.db.profile.table {
		if prof.Email == email {
			return *prof, nil
		}
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) QueryAllProfiles(_ context.Context) ([]profile.Profile, error) {
	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()

	profs := make([]profile.Profile, 0, len(repo.db.profile.table))
	for _, prof := range repo.db.profile.table {
		profs = append(profs, *prof)
	}
	sort.Slice(profs, func(i, j int) bool { return profs[i].FullName < profs[j].FullName })
	return profs, nil
}
