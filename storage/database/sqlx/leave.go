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

	"github.com/agridesk/portal/core/leave"
	"github.com/agridesk/portal/core/profile"
)

type leaveRepository struct {
	db *sqlx.DB
}

var _ leave.Repository = (*leaveRepository)(nil) // interface compliance check

func NewLeaveRepository(db *sqlx.DB) *leaveRepository {
	return &leaveRepository{db: db}
}

const leaveSelect = `
	SELECT l.id, l.employee_id, l.leave_type, l.start_date, l.end_date, l.total_days, l.reason,
	       l.status, l.approved_by, l.approved_at, l.rejection_reason, l.created_at, l.updated_at,
	       le.full_name AS employee_full_name, le.email AS employee_email,
	       le.department AS employee_department, le.position AS employee_position,
	       la.full_name AS approver_full_name, la.email AS approver_email
	  FROM leave_requests l
	  JOIN profiles le ON le.id = l.employee_id
	  LEFT JOIN profiles la ON la.id = l.approved_by`

type leaveRow struct {
	ID                 string      `db:"id"`
	EmployeeID         string      `db:"employee_id"`
	Type               string      `db:"leave_type"`
	StartDate          time.Time   `db:"start_date"`
	EndDate            time.Time   `db:"end_date"`
	TotalDays          int         `db:"total_days"`
	Reason             string      `db:"reason"`
	Status             string      `db:"status"`
	ApprovedBy         null.String `db:"approved_by"`
	ApprovedAt         null.Time   `db:"approved_at"`
	RejectionReason    null.String `db:"rejection_reason"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
	EmployeeFullName   string      `db:"employee_full_name"`
	EmployeeEmail      string      `db:"employee_email"`
	EmployeeDepartment null.String `db:"employee_department"`
	EmployeePosition   null.String `db:"employee_position"`
	ApproverFullName   null.String `db:"approver_full_name"`
	ApproverEmail      null.String `db:"approver_email"`
}

func (row leaveRow) model() leave.Request {
	req := leave.Request{
		ID:              row.ID,
		EmployeeID:      row.EmployeeID,
		Type:            row.Type,
		StartDate:       row.StartDate,
		EndDate:         row.EndDate,
		TotalDays:       row.TotalDays,
		Reason:          row.Reason,
		Status:          row.Status,
		ApprovedBy:      row.ApprovedBy,
		ApprovedAt:      row.ApprovedAt,
		RejectionReason: row.RejectionReason,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		Employee: &profile.Info{
			FullName:   row.EmployeeFullName,
			Email:      row.EmployeeEmail,
			Department: row.EmployeeDepartment,
			Position:   row.EmployeePosition,
		},
	}
	if row.ApproverFullName.Valid {
		req.Approver = &profile.Info{
			FullName: row.ApproverFullName.String,
			Email:    row.ApproverEmail.String,
		}
	}
	return req
}

func (repo leaveRepository) query(ctx context.Context, where string, args ...interface{}) ([]leave.Request, error) {
	query := leaveSelect
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY l.created_at DESC"

	rows := make([]leaveRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying leave requests")
	}

	reqs := make([]leave.Request, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.model())
	}
	return reqs, nil
}

func (repo leaveRepository) QueryAllRequests(ctx context.Context) ([]leave.Request, error) {
	return repo.query(ctx, "")
}

func (repo leaveRepository) QueryRequestsByEmployee(ctx context.Context, employeeID string) ([]leave.Request, error) {
	return repo.query(ctx, "l.employee_id = $1", employeeID)
}

func (repo leaveRepository) GetRequestByID(ctx context.Context, id string) (leave.Request, error) {
	var row leaveRow
	err := repo.db.GetContext(ctx, &row, leaveSelect+" WHERE l.id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return leave.Request{}, leave.ErrNotFound
		}
		return leave.Request{}, errors.Wrap(err, "getting leave request by id")
	}
	return row.model(), nil
}

func (repo leaveRepository) CreateRequest(ctx context.Context, req leave.Request) (leave.Request, error) {
	var id string
	err := repo.db.GetContext(ctx, &id, `
		INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, total_days, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		req.EmployeeID, req.Type, req.StartDate, req.EndDate, req.TotalDays, req.Reason, req.Status,
	)
	if err != nil {
		return leave.Request{}, errors.Wrap(err, "inserting leave request")
	}
	return repo.GetRequestByID(ctx, id)
}

func (repo leaveRepository) UpdateRequest(ctx context.Context, id string, patch leave.UpdateRequest) (leave.Request, error) {
	sets := []string{"updated_at = now()"}
	args := make([]interface{}, 0, 8)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Type.Valid {
		set("leave_type", patch.Type)
	}
	if patch.StartDate.Valid {
		set("start_date", patch.StartDate)
	}
	if patch.EndDate.Valid {
		set("end_date", patch.EndDate)
	}
	if patch.TotalDays.Valid {
		set("total_days", patch.TotalDays)
	}
	if patch.Reason.Valid {
		set("reason", patch.Reason)
	}
	if patch.Status.Valid {
		set("status", patch.Status)
	}
	if patch.ApprovedBy.Valid {
		set("approved_by", patch.ApprovedBy)
	}
	if patch.ApprovedAt.Valid {
		set("approved_at", patch.ApprovedAt)
	}
	if patch.RejectionReason.Valid {
		set("rejection_reason", patch.RejectionReason)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE leave_requests SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return leave.Request{}, errors.Wrap(err, "updating leave request")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.Request{}, leave.ErrNotFound
	}
	return repo.GetRequestByID(ctx, id)
}

func (repo leaveRepository) DeleteRequest(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM leave_requests WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting leave request")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrNotFound
	}
	return nil
}
