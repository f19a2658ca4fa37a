package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/core/session"
)

var ErrNotFound = errors.New("application not found")

type (
	Repository interface {
		// QueryAllApplications returns all applications joined with applicant and
		// assigned-employee info, newest first.
		QueryAllApplications(ctx context.Context) ([]Application, error)
		// QueryApplicationsByApplicant is QueryAllApplications restricted to one applicant.
		QueryApplicationsByApplicant(ctx context.Context, applicantID string) ([]Application, error)
		GetApplicationByID(ctx context.Context, id string) (Application, error)
		CreateApplication(ctx context.Context, app Application) (Application, error)
		UpdateApplication(ctx context.Context, id string, patch UpdateApplication) (Application, error)
		DeleteApplication(ctx context.Context, id string) error
	}

	// Service keeps a local list of applications consistent with the remote
	// store, gated by the current identity's role. Mutations never patch the
	// cache in place: each one triggers a full refetch so joined fields stay
	// correct, and the last refetch to resolve wins.
	Service struct {
		repo    Repository
		session *session.Session
		alert   core.Alerter
		logger  core.Logger

		mu      sync.RWMutex
		items   []Application
		loading bool

		unwatch func()
	}
)

func NewService(repo Repository, sess *session.Session, alert core.Alerter, logger core.Logger) *Service {
	svc := &Service{
		repo:    repo,
		session: sess,
		alert:   alert,
		logger:  logger,
		loading: true,
	}
	svc.unwatch = sess.Watch(svc.onProfileChange)
	return svc
}

// Close detaches the service from the session.
func (svc *Service) Close() {
	svc.unwatch()
}

// Items returns a copy of the local collection, newest first.
func (svc *Service) Items() []Application {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	items := make([]Application, len(svc.items))
	copy(items, svc.items)
	return items
}

func (svc *Service) Loading() bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.loading
}

// onProfileChange re-runs the initial fetch whenever a profile becomes
// available or changes identity. It never runs while the profile is absent.
func (svc *Service) onProfileChange(prof *profile.Profile) {
	if prof == nil {
		return
	}
	_ = svc.Refetch(context.Background())
}

// Refetch replaces the local collection with full server truth. Farmers only
// see their own applications; all other roles see the unfiltered set. On
// failure the collection is left unchanged.
func (svc *Service) Refetch(ctx context.Context) error {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return core.ErrNotAuthenticated
	}

	var (
		apps []Application
		err  error
	)
	if prof.IsFarmer() {
		apps, err = svc.repo.QueryApplicationsByApplicant(ctx, prof.ID)
	} else {
		apps, err = svc.repo.QueryAllApplications(ctx)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.loading = false
	if err != nil {
		svc.alert.Error("Failed to fetch applications")
		svc.logger.Error("fetching applications", err, *prof)
		return core.NewRemoteError("fetching applications", err)
	}
	svc.items = apps
	return nil
}

// Create submits a new application owned by the current profile and refetches.
// Input shape validation happens at the API boundary; Create only enforces
// authentication and ownership stamping.
func (svc *Service) Create(ctx context.Context, na NewApplication) (Application, error) {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return Application{}, core.ErrNotAuthenticated
	}

	now := time.Now().UTC()
	app := Application{
		ApplicantID: prof.ID, // always the creating identity, never caller-supplied
		Type:        na.Type,
		Title:       na.Title,
		Status:      StatusPending,
		Priority:    na.Priority,
		Metadata:    na.Metadata,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if app.Priority == "" {
		app.Priority = PriorityMedium
	}
	if na.Description != "" {
		app.Description.SetValid(na.Description)
	}

	created, err := svc.repo.CreateApplication(ctx, app)
	if err != nil {
		svc.alert.Error("Failed to create application")
		svc.logger.Error("creating application", err, *prof)
		return Application{}, core.NewRemoteError("creating application", err)
	}

	svc.alert.Success("Application submitted successfully!")
	_ = svc.Refetch(ctx)
	return created, nil
}

// Update applies a partial update to one application and refetches.
func (svc *Service) Update(ctx context.Context, id string, ua UpdateApplication) (Application, error) {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return Application{}, core.ErrNotAuthenticated
	}
	if err := ua.Validate(); err != nil {
		svc.alert.Error("Invalid application update")
		return Application{}, err
	}

	updated, err := svc.repo.UpdateApplication(ctx, id, ua)
	if err != nil {
		svc.alert.Error("Failed to update application")
		svc.logger.Error("updating application", err, *prof)
		if err == ErrNotFound {
			return Application{}, err
		}
		return Application{}, core.NewRemoteError("updating application", err)
	}

	svc.alert.Success("Application updated successfully!")
	_ = svc.Refetch(ctx)
	return updated, nil
}

// Delete removes one application and refetches.
func (svc *Service) Delete(ctx context.Context, id string) error {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return core.ErrNotAuthenticated
	}

	if err := svc.repo.DeleteApplication(ctx, id); err != nil {
		svc.alert.Error("Failed to delete application")
		svc.logger.Error("deleting application", err, *prof)
		if err == ErrNotFound {
			return err
		}
		return core.NewRemoteError("deleting application", err)
	}

	svc.alert.Success("Application deleted successfully!")
	_ = svc.Refetch(ctx)
	return nil
}
