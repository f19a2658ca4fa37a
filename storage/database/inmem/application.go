package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/agridesk/portal/core/application"
)

type applicationRepository struct {
	db *DB
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *DB) *applicationRepository {
	return &applicationRepository{db: db}
}

// query snapshots matching rows with joined profile info, newest first.
// Caller must not hold the table locks.
func (repo *applicationRepository) query(match func(application.Application) bool) []application.Application {
	repo.db.application.RLock()
	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()
	defer repo.db.application.RUnlock()

	apps := make([]application.Application, 0, len(repo.db.application.table))
	for _, app := range repo.db.application.table {
		if match != nil && !match(*app) {
			continue
		}
		joined := *app
		joined.Applicant = repo.db.info(app.ApplicantID)
		if app.AssignedTo.Valid {
			joined.AssignedEmployee = repo.db.info(app.AssignedTo.String)
		}
		apps = append(apps, joined)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.After(apps[j].CreatedAt) })
	return apps
}

func (repo *applicationRepository) QueryAllApplications(_ context.Context) ([]application.Application, error) {
	return repo.query(nil), nil
}

func (repo *applicationRepository) QueryApplicationsByApplicant(_ context.Context, applicantID string) ([]application.Application, error) {
	return repo.query(func(app application.Application) bool { return app.ApplicantID == applicantID }), nil
}

func (repo *applicationRepository) GetApplicationByID(_ context.Context, id string) (application.Application, error) {
	for _, app := range repo.query(nil) {
		if app.ID == id {
			return app, nil
		}
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	repo.db.application.Lock()
	app.ID = uuid.NewString()
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	if app.Metadata == nil {
		app.Metadata = []byte("{}")
	}
	repo.db.application.table[app.ID] = &app
	repo.db.application.Unlock()

	return repo.GetApplicationByID(ctx, app.ID)
}

func (repo *applicationRepository) UpdateApplication(ctx context.Context, id string, patch application.UpdateApplication) (application.Application, error) {
	repo.db.application.Lock()
	app, ok := repo.db.application.table[id]
	if !ok {
		repo.db.application.Unlock()
		return application.Application{}, application.ErrNotFound
	}

	// only save set fields
	if patch.Title.Valid {
		app.Title = patch.Title.String
	}
	if patch.Description.Valid {
		app.Description = patch.Description
	}
	if patch.Status.Valid {
		app.Status = patch.Status.String
	}
	if patch.Priority.Valid {
		app.Priority = patch.Priority.String
	}
	if patch.AssignedTo.Valid {
		app.AssignedTo = patch.AssignedTo
	}
	if patch.ReviewedAt.Valid {
		app.ReviewedAt = patch.ReviewedAt
	}
	if patch.CompletedAt.Valid {
		app.CompletedAt = patch.CompletedAt
	}
	if patch.RejectionReason.Valid {
		app.RejectionReason = patch.RejectionReason
	}
	if patch.Metadata != nil {
		app.Metadata = patch.Metadata
	}
	app.UpdatedAt = time.Now().UTC()
	repo.db.application.Unlock()

	return repo.GetApplicationByID(ctx, id)
}

func (repo *applicationRepository) DeleteApplication(_ context.Context, id string) error {
	repo.db.application.Lock()
	defer repo.db.application.Unlock()

	if _, ok := repo.db.application.table[id]; !ok {
		return application.ErrNotFound
	}
	delete(repo.db.application.table, id)
	return nil
}
