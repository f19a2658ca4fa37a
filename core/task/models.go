package task

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
)

// Statuses
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var (
	AllStatuses   = []string{StatusTodo, StatusInProgress, StatusCompleted, StatusCancelled}
	AllPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
)

// Task is a unit of internal work, always assigned by one identity to another,
// optionally linked to an Application. CompletedAt is set only on the
// transition to completed.
type Task struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   null.String `json:"description,omitempty"`
	AssignedTo    string      `json:"assigned_to"`
	AssignedBy    string      `json:"assigned_by"`
	ApplicationID null.String `json:"application_id,omitempty"`
	Status        string      `json:"status"`
	Priority      string      `json:"priority"`
	DueDate       null.Time   `json:"due_date,omitempty"`
	CompletedAt   null.Time   `json:"completed_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at"` // UTC

	// joined
	AssignedUser *profile.Info    `json:"assigned_user,omitempty"`
	Assigner     *profile.Info    `json:"assigner,omitempty"`
	Application  *ApplicationInfo `json:"application,omitempty"`
}

// ApplicationInfo is the denormalized subset of a linked application.
type ApplicationInfo struct {
	Title string `db:"title" json:"title"`
	Type  string `db:"application_type" json:"application_type"`
}

// NewTask contains information needed to create a new Task. The assigner is
// always the session profile, never caller-supplied.
type NewTask struct {
	Title         string    `json:"title" validate:"required"`
	Description   string    `json:"description"`
	AssignedTo    string    `json:"assigned_to" validate:"required"`
	ApplicationID string    `json:"application_id"`
	Priority      string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate       null.Time `json:"due_date"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.Priority = core.CleanString(nt.Priority, true /* lower */)
	return validate.Struct(nt)
}

// UpdateTask defines the partial fields that may be patched on an existing Task.
type UpdateTask struct {
	Title       null.String `json:"title"`
	Description null.String `json:"description"`
	AssignedTo  null.String `json:"assigned_to"`
	Status      null.String `json:"status"`
	Priority    null.String `json:"priority"`
	DueDate     null.Time   `json:"due_date"`
	CompletedAt null.Time   `json:"completed_at"`
}

func (ut *UpdateTask) Validate() error {
	if ut.Status.Valid && !contains(AllStatuses, ut.Status.String) {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status"})
	}
	if ut.Priority.Valid && !contains(AllPriorities, ut.Priority.String) {
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
