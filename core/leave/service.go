package leave

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/core/session"
)

var ErrNotFound = errors.New("leave request not found")

type (
	Repository interface {
		// QueryAllRequests returns all leave requests joined with employee and
		// approver info, newest first.
		QueryAllRequests(ctx context.Context) ([]Request, error)
		// QueryRequestsByEmployee is QueryAllRequests restricted to one employee.
		QueryRequestsByEmployee(ctx context.Context, employeeID string) ([]Request, error)
		GetRequestByID(ctx context.Context, id string) (Request, error)
		CreateRequest(ctx context.Context, req Request) (Request, error)
		UpdateRequest(ctx context.Context, id string, patch UpdateRequest) (Request, error)
		DeleteRequest(ctx context.Context, id string) error
	}

	// Service keeps a local list of leave requests consistent with the remote
	// store. Employees only see their own requests; admins and supervisors see
	// the unfiltered set.
	Service struct {
		repo    Repository
		session *session.Session
		alert   core.Alerter
		logger  core.Logger

		mu      sync.RWMutex
		items   []Request
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
func (svc *Service) Items() []Request {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	items := make([]Request, len(svc.items))
	copy(items, svc.items)
	return items
}

func (svc *Service) Loading() bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.loading
}

func (svc *Service) onProfileChange(prof *profile.Profile) {
	if prof == nil {
		return
	}
	_ = svc.Refetch(context.Background())
}

// Refetch replaces the local collection with full server truth.
func (svc *Service) Refetch(ctx context.Context) error {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return core.ErrNotAuthenticated
	}

	var (
		reqs []Request
		err  error
	)
	if prof.IsEmployee() {
		reqs, err = svc.repo.QueryRequestsByEmployee(ctx, prof.ID)
	} else {
		reqs, err = svc.repo.QueryAllRequests(ctx)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.loading = false
	if err != nil {
		svc.alert.Error("Failed to fetch leave requests")
		svc.logger.Error("fetching leave requests", err, *prof)
		return core.NewRemoteError("fetching leave requests", err)
	}
	svc.items = reqs
	return nil
}

// Create submits a new leave request owned by the current profile and
// refetches. Only staff roles may request leave; both the role check and the
// date check run before any remote call.
func (svc *Service) Create(ctx context.Context, nr NewRequest) (Request, error) {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return Request{}, core.ErrNotAuthenticated
	}
	if !prof.HasAnyRole(profile.StaffRoles...) {
		svc.alert.Error("Only staff can request leave")
		return Request{}, core.ErrForbidden
	}
	if err := nr.checkDates(); err != nil {
		svc.alert.Error("End date must not be before start date")
		return Request{}, err
	}

	now := time.Now().UTC()
	req := Request{
		EmployeeID: prof.ID, // always the creating identity, never caller-supplied
		Type:       nr.Type,
		StartDate:  nr.StartDate,
		EndDate:    nr.EndDate,
		TotalDays:  TotalDays(nr.StartDate, nr.EndDate),
		Reason:     nr.Reason,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := svc.repo.CreateRequest(ctx, req)
	if err != nil {
		svc.alert.Error("Failed to create leave request")
		svc.logger.Error("creating leave request", err, *prof)
		return Request{}, core.NewRemoteError("creating leave request", err)
	}

	svc.alert.Success("Leave request submitted successfully!")
	_ = svc.Refetch(ctx)
	return created, nil
}

// Update applies a partial update to one leave request and refetches.
func (svc *Service) Update(ctx context.Context, id string, ur UpdateRequest) (Request, error) {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return Request{}, core.ErrNotAuthenticated
	}
	if err := ur.Validate(); err != nil {
		svc.alert.Error("Invalid leave request update")
		return Request{}, err
	}

	updated, err := svc.repo.UpdateRequest(ctx, id, ur)
	if err != nil {
		svc.alert.Error("Failed to update leave request")
		svc.logger.Error("updating leave request", err, *prof)
		if err == ErrNotFound {
			return Request{}, err
		}
		return Request{}, core.NewRemoteError("updating leave request", err)
	}

	svc.alert.Success("Leave request updated successfully!")
	_ = svc.Refetch(ctx)
	return updated, nil
}

// Approve marks one request approved, stamping the acting profile and time.
// Restricted to admins and supervisors; checked before any remote call.
func (svc *Service) Approve(ctx context.Context, id string) (Request, error) {
	return svc.resolve(ctx, id, StatusApproved, "")
}

// Reject marks one request rejected with a reason, stamping the acting
// profile and time. Restricted to admins and supervisors.
func (svc *Service) Reject(ctx context.Context, id, reason string) (Request, error) {
	return svc.resolve(ctx, id, StatusRejected, reason)
}

func (svc *Service) resolve(ctx context.Context, id, status, reason string) (Request, error) {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return Request{}, core.ErrNotAuthenticated
	}
	if !prof.HasAnyRole(profile.ApprovalRoles...) {
		svc.alert.Error("Only admins and supervisors can resolve leave requests")
		return Request{}, core.ErrForbidden
	}

	patch := UpdateRequest{
		Status:     null.StringFrom(status),
		ApprovedBy: null.StringFrom(prof.ID),
		ApprovedAt: null.TimeFrom(time.Now().UTC()),
	}
	if reason != "" {
		patch.RejectionReason.SetValid(reason)
	}

	op := "approving leave request"
	if status == StatusRejected {
		op = "rejecting leave request"
	}

	updated, err := svc.repo.UpdateRequest(ctx, id, patch)
	if err != nil {
		svc.alert.Error("Failed to resolve leave request")
		svc.logger.Error(op, err, *prof)
		if err == ErrNotFound {
			return Request{}, err
		}
		return Request{}, core.NewRemoteError(op, err)
	}

	svc.alert.Success("Leave request " + status + " successfully!")
	_ = svc.Refetch(ctx)
	return updated, nil
}

// Delete removes one leave request and refetches.
func (svc *Service) Delete(ctx context.Context, id string) error {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return core.ErrNotAuthenticated
	}

	if err := svc.repo.DeleteRequest(ctx, id); err != nil {
		svc.alert.Error("Failed to delete leave request")
		svc.logger.Error("deleting leave request", err, *prof)
		if err == ErrNotFound {
			return err
		}
		return core.NewRemoteError("deleting leave request", err)
	}

	svc.alert.Success("Leave request deleted successfully!")
	_ = svc.Refetch(ctx)
	return nil
}
