package leave

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
)

// Statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Leave types
const (
	TypeAnnual    = "annual"
	TypeSick      = "sick"
	TypePersonal  = "personal"
	TypeMaternity = "maternity"
	TypeUnpaid    = "unpaid"
)

var (
	AllStatuses = []string{StatusPending, StatusApproved, StatusRejected}
	AllTypes    = []string{TypeAnnual, TypeSick, TypePersonal, TypeMaternity, TypeUnpaid}
)

// Request is a leave request owned by an employee identity. TotalDays is
// derived client-side before insert and is always >= 1.
type Request struct {
	ID              string      `json:"id"`
	EmployeeID      string      `json:"employee_id"`
	Type            string      `json:"leave_type"`
	StartDate       time.Time   `json:"start_date"`
	EndDate         time.Time   `json:"end_date"`
	TotalDays       int         `json:"total_days"`
	Reason          string      `json:"reason"`
	Status          string      `json:"status"`
	ApprovedBy      null.String `json:"approved_by,omitempty"`
	ApprovedAt      null.Time   `json:"approved_at,omitempty"`
	RejectionReason null.String `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"` // UTC
	UpdatedAt       time.Time   `json:"updated_at"` // UTC

	// joined
	Employee *profile.Info `json:"employee,omitempty"`
	Approver *profile.Info `json:"approver,omitempty"`
}

// TotalDays is the inclusive day count between start and end:
// ceil((end-start)/24h) + 1. A request from a date to itself counts 1 day.
func TotalDays(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours()/24)) + 1
}

// NewRequest contains information needed to submit a new leave Request.
// The owning employee is stamped from the session profile.
type NewRequest struct {
	Type      string    `json:"leave_type" validate:"required,oneof=annual sick personal maternity unpaid"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.Type = core.CleanString(nr.Type, true /* lower */)
	nr.Reason = core.CleanString(nr.Reason)
	if err := validate.Struct(nr); err != nil {
		return err
	}
	return nr.checkDates()
}

// checkDates rejects requests whose end date precedes the start date before
// any request is built: TotalDays must never be zero or negative.
func (nr NewRequest) checkDates() error {
	if nr.EndDate.Before(nr.StartDate) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "end_date", Error: "end date must not be before start date",
		})
	}
	return nil
}

// UpdateRequest defines the partial fields that may be patched on an existing Request.
type UpdateRequest struct {
	Type            null.String `json:"leave_type"`
	StartDate       null.Time   `json:"start_date"`
	EndDate         null.Time   `json:"end_date"`
	TotalDays       null.Int    `json:"total_days"`
	Reason          null.String `json:"reason"`
	Status          null.String `json:"status"`
	ApprovedBy      null.String `json:"approved_by"`
	ApprovedAt      null.Time   `json:"approved_at"`
	RejectionReason null.String `json:"rejection_reason"`
}

func (ur *UpdateRequest) Validate() error {
	if ur.Status.Valid && !contains(AllStatuses, ur.Status.String) {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status"})
	}
	if ur.Type.Valid && !contains(AllTypes, ur.Type.String) {
		return core.NewValidationError(nil, core.FieldError{Field: "leave_type", Error: "unknown leave type"})
	}
	if ur.StartDate.Valid && ur.EndDate.Valid && ur.EndDate.Time.Before(ur.StartDate.Time) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "end_date", Error: "end date must not be before start date",
		})
	}
	return nil
}

func contains(set []string, val string) bool {
	for _, s := range set {
		if s == val {
			return true
		}
	}
	return false
}
