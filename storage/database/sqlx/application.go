package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/agridesk/portal/core/application"
	"github.com/agridesk/portal/core/profile"
)

type applicationRepository struct {
	db *sqlx.DB
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *sqlx.DB) *applicationRepository {
	return &applicationRepository{db: db}
}

const applicationSelect = `
	SELECT a.id, a.applicant_id, a.application_type, a.title, a.description, a.status, a.priority,
	       a.assigned_to, a.submitted_at, a.reviewed_at, a.completed_at, a.rejection_reason,
	       a.estimated_completion, a.metadata, a.created_at, a.updated_at,
	       ap.full_name AS applicant_full_name, ap.email AS applicant_email, ap.phone AS applicant_phone,
	       ae.full_name AS assignee_full_name, ae.email AS assignee_email
	  FROM applications a
	  JOIN profiles ap ON ap.id = a.applicant_id
	  LEFT JOIN profiles ae ON ae.id = a.assigned_to`

type applicationRow struct {
	ID                  string          `db:"id"`
	ApplicantID         string          `db:"applicant_id"`
	Type                string          `db:"application_type"`
	Title               string          `db:"title"`
	Description         null.String     `db:"description"`
	Status              string          `db:"status"`
	Priority            string          `db:"priority"`
	AssignedTo          null.String     `db:"assigned_to"`
	SubmittedAt         time.Time       `db:"submitted_at"`
	ReviewedAt          null.Time       `db:"reviewed_at"`
	CompletedAt         null.Time       `db:"completed_at"`
	RejectionReason     null.String     `db:"rejection_reason"`
	EstimatedCompletion null.Time       `db:"estimated_completion"`
	Metadata            json.RawMessage `db:"metadata"`
	CreatedAt           time.Time       `db:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at"`
	ApplicantFullName   string          `db:"applicant_full_name"`
	ApplicantEmail      string          `db:"applicant_email"`
	ApplicantPhone      null.String     `db:"applicant_phone"`
	AssigneeFullName    null.String     `db:"assignee_full_name"`
	AssigneeEmail       null.String     `db:"assignee_email"`
}

func (row applicationRow) model() application.Application {
	app := application.Application{
		ID:                  row.ID,
		ApplicantID:         row.ApplicantID,
		Type:                row.Type,
		Title:               row.Title,
		Description:         row.Description,
		Status:              row.Status,
		Priority:            row.Priority,
		AssignedTo:          row.AssignedTo,
		SubmittedAt:         row.SubmittedAt,
		ReviewedAt:          row.ReviewedAt,
		CompletedAt:         row.CompletedAt,
		RejectionReason:     row.RejectionReason,
		EstimatedCompletion: row.EstimatedCompletion,
		Metadata:            row.Metadata,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
		Applicant: &profile.Info{
			FullName: row.ApplicantFullName,
			Email:    row.ApplicantEmail,
			Phone:    row.ApplicantPhone,
		},
	}
	if row.AssigneeFullName.Valid {
		app.AssignedEmployee = &profile.Info{
			FullName: row.AssigneeFullName.String,
			Email:    row.AssigneeEmail.String,
		}
	}
	return app
}

func (repo applicationRepository) query(ctx context.Context, where string, args ...interface{}) ([]application.Application, error) {
	query := applicationSelect
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY a.created_at DESC"

	rows := make([]applicationRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}

	apps := make([]application.Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.model())
	}
	return apps, nil
}

func (repo applicationRepository) QueryAllApplications(ctx context.Context) ([]application.Application, error) {
	return repo.query(ctx, "")
}

func (repo applicationRepository) QueryApplicationsByApplicant(ctx context.Context, applicantID string) ([]application.Application, error) {
	return repo.query(ctx, "a.applicant_id = $1", applicantID)
}

func (repo applicationRepository) GetApplicationByID(ctx context.Context, id string) (application.Application, error) {
	var row applicationRow
	err := repo.db.GetContext(ctx, &row, applicationSelect+" WHERE a.id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return application.Application{}, application.ErrNotFound
		}
		return application.Application{}, errors.Wrap(err, "getting application by id")
	}
	return row.model(), nil
}

func (repo applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	metadata := app.Metadata
	if metadata == nil {
		metadata = json.RawMessage("{}")
	}

	var id string
	err := repo.db.GetContext(ctx, &id, `
		INSERT INTO applications
		       (applicant_id, application_type, title, description, status, priority, metadata, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		app.ApplicantID, app.Type, app.Title, app.Description, app.Status, app.Priority, []byte(metadata), app.SubmittedAt,
	)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "inserting application")
	}
	return repo.GetApplicationByID(ctx, id)
}

func (repo applicationRepository) UpdateApplication(ctx context.Context, id string, patch application.UpdateApplication) (application.Application, error) {
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
	if patch.Status.Valid {
		set("status", patch.Status)
	}
	if patch.Priority.Valid {
		set("priority", patch.Priority)
	}
	if patch.AssignedTo.Valid {
		set("assigned_to", patch.AssignedTo)
	}
	if patch.ReviewedAt.Valid {
		set("reviewed_at", patch.ReviewedAt)
	}
	if patch.CompletedAt.Valid {
		set("completed_at", patch.CompletedAt)
	}
	if patch.RejectionReason.Valid {
		set("rejection_reason", patch.RejectionReason)
	}
	if patch.Metadata != nil {
		set("metadata", []byte(patch.Metadata))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE applications SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "updating application")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return application.Application{}, application.ErrNotFound
	}
	return repo.GetApplicationByID(ctx, id)
}

func (repo applicationRepository) DeleteApplication(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM applications WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting application")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return application.ErrNotFound
	}
	return nil
}
