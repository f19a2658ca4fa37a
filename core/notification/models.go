package notification

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/agridesk/portal/core"
)

// Type tags
const (
	TypeApplication = "application"
	TypeTask        = "task"
	TypeLeave       = "leave"
	TypeSystem      = "system"
	TypeOther       = "other"
)

var AllTypes = []string{TypeApplication, TypeTask, TypeLeave, TypeSystem, TypeOther}

// Notification is an in-portal notice owned by a recipient identity.
// IsRead only ever transitions false -> true through the defined operations.
type Notification struct {
	ID          string      `db:"id" json:"id"`
	UserID      string      `db:"user_id" json:"user_id"`
	Title       string      `db:"title" json:"title"`
	Message     string      `db:"message" json:"message"`
	Type        string      `db:"type" json:"type"`
	RelatedID   null.String `db:"related_id" json:"related_id,omitempty"`
	RelatedType null.String `db:"related_type" json:"related_type,omitempty"`
	IsRead      bool        `db:"is_read" json:"is_read"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"` // UTC
}

// NewNotification contains information needed to dispatch a notification to a
// (usually different) recipient identity.
type NewNotification struct {
	UserID      string `json:"user_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Message     string `json:"message" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=application task leave system other"`
	RelatedID   string `json:"related_id"`
	RelatedType string `json:"related_type"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	nn.Type = core.CleanString(nn.Type, true /* lower */)
	return validate.Struct(nn)
}

type (
	// Feed is the push channel contract: server-originated insert events are
	// delivered to standing per-recipient subscriptions rather than polled.
	Feed interface {
		// Publish fans a freshly inserted notification out to the recipient's
		// subscribers.
		Publish(ctx context.Context, n Notification) error
		// Subscribe opens a standing channel for insert events scoped to one
		// recipient. The handler runs once per pushed event.
		Subscribe(ctx context.Context, recipientID string, handler func(Notification)) (Subscription, error)
	}

	// Subscription is a standing feed channel; it must be closed when the
	// identity changes or the consumer tears down, to avoid duplicate channels
	// accumulating across identity changes.
	Subscription interface {
		Close() error
	}
)
