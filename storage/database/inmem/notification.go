package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/agridesk/portal/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) QueryNotificationsByRecipient(_ context.Context, recipientID string) ([]notification.Notification, error) {
	repo.db.notification.RLock()
	defer repo.db.notification.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, n := range repo.db.notification.table {
		if n.UserID == recipientID {
			notifs = append(notifs, *n)
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	return notifs, nil
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.notification.Lock()
	defer repo.db.notification.Unlock()

	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()
	repo.db.notification.table[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) MarkNotificationRead(_ context.Context, id string) (notification.Notification, error) {
	repo.db.notification.Lock()
	defer repo.db.notification.Unlock()

	n, ok := repo.db.notification.table[id]
	if !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	n.IsRead = true
	return *n, nil
}

func (repo *notificationRepository) MarkAllNotificationsRead(_ context.Context, recipientID string) error {
	repo.db.notification.Lock()
	defer repo.db.notification.Unlock()

	for _, n := range repo.db.notification.table {
		if n.UserID == recipientID {
			n.IsRead = true
		}
	}
	return nil
}
