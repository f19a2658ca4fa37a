package application

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
)

// Application types
const (
	TypeLicense       = "license"
	TypePermit        = "permit"
	TypeSubsidy       = "subsidy"
	TypeCertification = "certification"
	TypeInspection    = "inspection"
)

// Statuses
const (
	StatusPending     = "pending"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusCompleted   = "completed"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var (
	AllTypes      = []string{TypeLicense, TypePermit, TypeSubsidy, TypeCertification, TypeInspection}
	AllStatuses   = []string{StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusCompleted}
	AllPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
)

// Application is a service request submitted by an applicant (farmer).
// ApplicantID is immutable after creation and always set from the creating
// identity's profile, never client-supplied.
type Application struct {
	ID                  string          `json:"id"`
	ApplicantID         string          `json:"applicant_id"`
	Type                string          `json:"application_type"`
	Title               string          `json:"title"`
	Description         null.String     `json:"description,omitempty"`
	Status              string          `json:"status"`
	Priority            string          `json:"priority"`
	AssignedTo          null.String     `json:"assigned_to,omitempty"`
	SubmittedAt         time.Time       `json:"submitted_at"` // UTC
	ReviewedAt          null.Time       `json:"reviewed_at,omitempty"`
	CompletedAt         null.Time       `json:"completed_at,omitempty"`
	RejectionReason     null.String     `json:"rejection_reason,omitempty"`
	EstimatedCompletion null.Time       `json:"estimated_completion,omitempty"`
	Metadata            json.RawMessage `json:"metadata,omitempty"`
	CreatedAt           time.Time       `json:"created_at"` // UTC
	UpdatedAt           time.Time       `json:"updated_at"` // UTC

	// joined
	Applicant        *profile.Info `json:"applicant,omitempty"`
	AssignedEmployee *profile.Info `json:"assigned_employee,omitempty"`
}

// NewApplication contains information needed to submit a new Application.
// It deliberately carries no applicant field: ownership is stamped from the
// session profile.
type NewApplication struct {
	Type        string          `json:"application_type" validate:"required,oneof=license permit subsidy certification inspection"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Priority    string          `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (na *NewApplication) Validate(validate *validator.Validate) error {
	na.Type = core.CleanString(na.Type, true /* lower */)
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Priority = core.CleanString(na.Priority, true /* lower */)
	return validate.Struct(na)
}

// UpdateApplication defines the partial fields that may be patched on an
// existing Application. Absent (invalid) fields are left untouched.
type UpdateApplication struct {
	Title           null.String     `json:"title"`
	Description     null.String     `json:"description"`
	Status          null.String     `json:"status"`
	Priority        null.String     `json:"priority"`
	AssignedTo      null.String     `json:"assigned_to"`
	ReviewedAt      null.Time       `json:"reviewed_at"`
	CompletedAt     null.Time       `json:"completed_at"`
	RejectionReason null.String     `json:"rejection_reason"`
	Metadata        json.RawMessage `json:"metadata"`
}

func (ua *UpdateApplication) Validate() error {
	if ua.Status.Valid && !contains(AllStatuses, ua.Status.String) {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status"})
	}
	if ua.Priority.Valid && !contains(AllPriorities, ua.Priority.String) {
		return core.NewValidationError(nil, core.FieldError{Field: "priority", Error: "unknown priority"})
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
