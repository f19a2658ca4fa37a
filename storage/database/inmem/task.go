package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/agridesk/portal/core/task"
)

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) *taskRepository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) query() []task.Task {
	repo.db.task.RLock()
	repo.db.profile.RLock()
	repo.db.application.RLock()
	defer repo.db.application.RUnlock()
	defer repo.db.profile.RUnlock()
	defer repo.db.task.RUnlock()

	tasks := make([]task.Task, 0, len(repo.db.task.table))
	for _, tsk := range repo.db.task.table {
		joined := *tsk
		joined.AssignedUser = repo.db.info(tsk.AssignedTo)
		joined.Assigner = repo.db.info(tsk.AssignedBy)
		if tsk.ApplicationID.Valid {
			if app, ok := repo.db.application.table[tsk.ApplicationID.String]; ok {
				joined.Application = &task.ApplicationInfo{Title: app.Title, Type: app.Type}
			}
		}
		tasks = append(tasks, joined)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks
}

func (repo *taskRepository) QueryAllTasks(_ context.Context) ([]task.Task, error) {
	return repo.query(), nil
}

func (repo *taskRepository) GetTaskByID(_ context.Context, id string) (task.Task, error) {
	for _, tsk := range repo.query() {
		if tsk.ID == id {
			return tsk, nil
		}
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) CreateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	repo.db.task.Lock()
	tsk.ID = uuid.NewString()
	now := time.Now().UTC()
	tsk.CreatedAt = now
	tsk.UpdatedAt = now
	repo.db.task.table[tsk.ID] = &tsk
	repo.db.task.Unlock()

	return repo.GetTaskByID(ctx, tsk.ID)
}

func (repo *taskRepository) UpdateTask(ctx context.Context, id string, patch task.UpdateTask) (task.Task, error) {
	repo.db.task.Lock()
	tsk, ok := repo.db.task.table[id]
	if !ok {
		repo.db.task.Unlock()
		return task.Task{}, task.ErrNotFound
	}

	// only save set fields
	if patch.Title.Valid {
		tsk.Title = patch.Title.String
	}
	if patch.Description.Valid {
		tsk.Description = patch.Description
	}
	if patch.AssignedTo.Valid {
		tsk.AssignedTo = patch.AssignedTo.String
	}
	if patch.Status.Valid {
		tsk.Status = patch.Status.String
	}
	if patch.Priority.Valid {
		tsk.Priority = patch.Priority.String
	}
	if patch.DueDate.Valid {
		tsk.DueDate = patch.DueDate
	}
	if patch.CompletedAt.Valid {
		tsk.CompletedAt = patch.CompletedAt
	}
	tsk.UpdatedAt = time.Now().UTC()
	repo.db.task.Unlock()

	return repo.GetTaskByID(ctx, id)
}

func (repo *taskRepository) DeleteTask(_ context.Context, id string) error {
	repo.db.task.Lock()
	defer repo.db.task.Unlock()

	if _, ok := repo.db.task.table[id]; !ok {
		return task.ErrNotFound
	}
	delete(repo.db.task.table, id)
	return nil
}
