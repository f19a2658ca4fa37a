package task

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

var ErrNotFound = errors.New("task not found")

type (
	Repository interface {
		// QueryAllTasks returns all tasks joined with assignee, assigner and
		// linked-application info, newest first.
		QueryAllTasks(ctx context.Context) ([]Task, error)
		GetTaskByID(ctx context.Context, id string) (Task, error)
		CreateTask(ctx context.Context, tsk Task) (Task, error)
		UpdateTask(ctx context.Context, id string, patch UpdateTask) (Task, error)
		DeleteTask(ctx context.Context, id string) error
	}

	// Service keeps a local list of tasks consistent with the remote store.
	// Tasks are internal work items: every role with portal staff access sees
	// the full set, so Refetch is never owner-filtered.
	Service struct {
		repo    Repository
		session *session.Session
		alert   core.Alerter
		logger  core.Logger

		mu      sync.RWMutex
		items   []Task
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
func (svc *Service) Items() []Task {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	items := make([]Task, len(svc.items))
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

	tasks, err := svc.repo.QueryAllTasks(ctx)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.loading = false
	if err != nil {
		svc.alert.Error("Failed to fetch tasks")
		svc.logger.Error("fetching tasks", err, *prof)
		return core.NewRemoteError("fetching tasks", err)
	}
	svc.items = tasks
	return nil
}

// Create assigns a new task on behalf of the current profile and refetches.
// Only staff roles may create tasks; the check runs before any remote call.
func (svc *Service) Create(ctx context.Context, nt NewTask) (Task, error) {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return Task{}, core.ErrNotAuthenticated
	}
	if !prof.HasAnyRole(profile.StaffRoles...) {
		svc.alert.Error("Only staff can create tasks")
		return Task{}, core.ErrForbidden
	}

	now := time.Now().UTC()
	tsk := Task{
		Title:      nt.Title,
		AssignedTo: nt.AssignedTo,
		AssignedBy: prof.ID, // always the creating identity, never caller-supplied
		Status:     StatusTodo,
		Priority:   nt.Priority,
		DueDate:    nt.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if tsk.Priority == "" {
		tsk.Priority = PriorityMedium
	}
	if nt.Description != "" {
		tsk.Description.SetValid(nt.Description)
	}
	if nt.ApplicationID != "" {
		tsk.ApplicationID.SetValid(nt.ApplicationID)
	}

	created, err := svc.repo.CreateTask(ctx, tsk)
	if err != nil {
		svc.alert.Error("Failed to create task")
		svc.logger.Error("creating task", err, *prof)
		return Task{}, core.NewRemoteError("creating task", err)
	}

	svc.alert.Success("Task created successfully!")
	_ = svc.Refetch(ctx)
	return created, nil
}

// Update applies a partial update to one task and refetches.
func (svc *Service) Update(ctx context.Context, id string, ut UpdateTask) (Task, error) {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return Task{}, core.ErrNotAuthenticated
	}
	if err := ut.Validate(); err != nil {
		svc.alert.Error("Invalid task update")
		return Task{}, err
	}

	updated, err := svc.repo.UpdateTask(ctx, id, ut)
	if err != nil {
		svc.alert.Error("Failed to update task")
		svc.logger.Error("updating task", err, *prof)
		if err == ErrNotFound {
			return Task{}, err
		}
		return Task{}, core.NewRemoteError("updating task", err)
	}

	svc.alert.Success("Task updated successfully!")
	_ = svc.Refetch(ctx)
	return updated, nil
}

// Complete marks one task completed, stamping the completion time.
func (svc *Service) Complete(ctx context.Context, id string) (Task, error) {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return Task{}, core.ErrNotAuthenticated
	}

	patch := UpdateTask{
		Status:      null.StringFrom(StatusCompleted),
		CompletedAt: null.TimeFrom(time.Now().UTC()),
	}
	updated, err := svc.repo.UpdateTask(ctx, id, patch)
	if err != nil {
		svc.alert.Error("Failed to complete task")
		svc.logger.Error("completing task", err, *prof)
		if err == ErrNotFound {
			return Task{}, err
		}
		return Task{}, core.NewRemoteError("completing task", err)
	}

	svc.alert.Success("Task completed successfully!")
	_ = svc.Refetch(ctx)
	return updated, nil
}

// Delete removes one task and refetches.
func (svc *Service) Delete(ctx context.Context, id string) error {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return core.ErrNotAuthenticated
	}

	if err := svc.repo.DeleteTask(ctx, id); err != nil {
		svc.alert.Error("Failed to delete task")
		svc.logger.Error("deleting task", err, *prof)
		if err == ErrNotFound {
			return err
		}
		return core.NewRemoteError("deleting task", err)
	}

	svc.alert.Success("Task deleted successfully!")
	_ = svc.Refetch(ctx)
	return nil
}
