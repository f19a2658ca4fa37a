package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/agridesk/portal/core/notification"
)

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, user_id, title, message, type, related_id, related_type, is_read, created_at`

func (repo notificationRepository) QueryNotificationsByRecipient(ctx context.Context, recipientID string) ([]notification.Notification, error) {
	notifs := make([]notification.Notification, 0)
	err := repo.db.SelectContext(ctx, &notifs, `
		SELECT `+notificationColumns+`
		  FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, recipientID)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifs, nil
}

func (repo notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	var created notification.Notification
	err := repo.db.GetContext(ctx, &created, `
		INSERT INTO notifications (user_id, title, message, type, related_id, related_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+notificationColumns,
		n.UserID, n.Title, n.Message, n.Type, n.RelatedID, n.RelatedType,
	)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return created, nil
}

func (repo notificationRepository) MarkNotificationRead(ctx context.Context, id string) (notification.Notification, error) {
	var updated notification.Notification
	err := repo.db.GetContext(ctx, &updated, `
		UPDATE notifications SET is_read = true WHERE id = $1
		RETURNING `+notificationColumns, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "marking notification read")
	}
	return updated, nil
}

func (repo notificationRepository) MarkAllNotificationsRead(ctx context.Context, recipientID string) error {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, recipientID)
	if err != nil {
		return errors.Wrap(err, "marking all notifications read")
	}
	return nil
}
