package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/core/task"
)

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.assigned_to, t.assigned_by, t.application_id,
	       t.status, t.priority, t.due_date, t.completed_at, t.created_at, t.updated_at,
	       tu.full_name AS assignee_full_name, tu.email AS assignee_email,
	       tu.department AS assignee_department, tu.position AS assignee_position,
	       tb.full_name AS assigner_full_name, tb.email AS assigner_email,
	       a.title AS application_title, a.application_type AS application_type
	  FROM tasks t
	  JOIN profiles tu ON tu.id = t.assigned_to
	  JOIN profiles tb ON tb.id = t.assigned_by
	  LEFT JOIN applications a ON a.id = t.application_id`

type taskRow struct {
	ID                 string      `db:"id"`
	Title              string      `db:"title"`
	Description        null.String `db:"description"`
	AssignedTo         string      `db:"assigned_to"`
	AssignedBy         string      `db:"assigned_by"`
	ApplicationID      null.String `db:"application_id"`
	Status             string      `db:"status"`
	Priority           string      `db:"priority"`
	DueDate            null.Time   `db:"due_date"`
	CompletedAt        null.Time   `db:"completed_at"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
	AssigneeFullName   string      `db:"assignee_full_name"`
	AssigneeEmail      string      `db:"assignee_email"`
	AssigneeDepartment null.String `db:"assignee_department"`
	AssigneePosition   null.String `db:"assignee_position"`
	AssignerFullName   string      `db:"assigner_full_name"`
	AssignerEmail      string      `db:"assigner_email"`
	ApplicationTitle   null.String `db:"application_title"`
	ApplicationType    null.String `db:"application_type"`
}

func (row taskRow) model() task.Task {
	tsk := task.Task{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		AssignedTo:    row.AssignedTo,
		AssignedBy:    row.AssignedBy,
		ApplicationID: row.ApplicationID,
		Status:        row.Status,
		Priority:      row.Priority,
		DueDate:       row.DueDate,
		CompletedAt:   row.CompletedAt,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		AssignedUser: &profile.Info{
			FullName:   row.AssigneeFullName,
			Email:      row.AssigneeEmail,
			Department: row.AssigneeDepartment,
			Position:   row.AssigneePosition,
		},
		Assigner: &profile.Info{
			FullName: row.AssignerFullName,
			Email:    row.AssignerEmail,
		},
	}
	if row.ApplicationTitle.Valid {
		tsk.Application = &task.ApplicationInfo{
			Title: row.ApplicationTitle.String,
			Type:  row.ApplicationType.String,
		}
	}
	return tsk
}

func (repo taskRepository) QueryAllTasks(ctx context.Context) ([]task.Task, error) {
	rows := make([]taskRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, taskSelect+" ORDER BY t.created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.model())
	}
	return tasks, nil
}

func (repo taskRepository) GetTaskByID(ctx context.Context, id string) (task.Task, error) {
	var row taskRow
	err := repo.db.GetContext(ctx, &row, taskSelect+" WHERE t.id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "getting task by id")
	}
	return row.model(), nil
}

func (repo taskRepository) CreateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	var id string
	err := repo.db.GetContext(ctx, &id, `
		INSERT INTO tasks (title, description, assigned_to, assigned_by, application_id, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		tsk.Title, tsk.Description, tsk.AssignedTo, tsk.AssignedBy, tsk.ApplicationID, tsk.Status, tsk.Priority, tsk.DueDate,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return repo.GetTaskByID(ctx, id)
}

func (repo taskRepository) UpdateTask(ctx context.Context, id string, patch task.UpdateTask) (task.Task, error) {
	sets := []string{"updated_at = now()"}
	args := make([]interface{}, 0, 8)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title.Valid {
		set("title", patch.Title)
	}
	if patch.Description.Valid {
		set("description", patch.Description)
	}
	if patch.AssignedTo.Valid {
		set("assigned_to", patch.AssignedTo)
	}
	if patch.Status.Valid {
		set("status", patch.Status)
	}
	if patch.Priority.Valid {
		set("priority", patch.Priority)
	}
	if patch.DueDate.Valid {
		set("due_date", patch.DueDate)
	}
	if patch.CompletedAt.Valid {
		set("completed_at", patch.CompletedAt)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return repo.GetTaskByID(ctx, id)
}

func (repo taskRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.ErrNotFound
	}
	return nil
}
