package notification

import (
	"context"
	"errors"
	"net/mail"
	"sync"
	"time"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/core/session"
)

var ErrNotFound = errors.New("notification not found")

type (
	Repository interface {
		// QueryNotificationsByRecipient returns one recipient's notifications,
		// newest first.
		QueryNotificationsByRecipient(ctx context.Context, recipientID string) ([]Notification, error)
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// MarkNotificationRead sets is_read=true on one notification.
		MarkNotificationRead(ctx context.Context, id string) (Notification, error)
		// MarkAllNotificationsRead sets is_read=true on all of the recipient's
		// unread notifications in one write.
		MarkAllNotificationsRead(ctx context.Context, recipientID string) error
	}

	// Service maintains the local notification list and unread count as the
	// union of the last full fetch and any push events received since.
	//
	// Two consistency strategies meet here on purpose: the push path and the
	// mark-as-read path patch local state optimistically (notifications are a
	// high-frequency, simple-shape entity with no joined fields), while Refetch
	// remains the baseline snapshot that corrects any undercount after a
	// subscription drop. The one invariant every mutation preserves:
	// unreadCount == count(items where !IsRead).
	Service struct {
		repo     Repository
		feed     Feed
		session  *session.Session
		alert    core.Alerter
		logger   core.Logger
		mailSvc  core.EmailService
		profiles profile.Repository

		mu          sync.RWMutex
		items       []Notification
		unreadCount int
		loading     bool

		sub     Subscription
		unwatch func()
	}
)

// NewService builds the live-sync notification hook. mailSvc and profiles may
// be nil; Create then skips the best-effort recipient email.
func NewService(
	repo Repository,
	feed Feed,
	sess *session.Session,
	alert core.Alerter,
	logger core.Logger,
	mailSvc core.EmailService,
	profiles profile.Repository,
) *Service {
	svc := &Service{
		repo:     repo,
		feed:     feed,
		session:  sess,
		alert:    alert,
		logger:   logger,
		mailSvc:  mailSvc,
		profiles: profiles,
		loading:  true,
	}
	svc.unwatch = sess.Watch(svc.onProfileChange)
	return svc
}

// Close detaches the service from the session and closes any standing
// subscription.
func (svc *Service) Close() {
	svc.unwatch()
	svc.closeSubscription()
}

// Items returns a copy of the local collection, newest first.
func (svc *Service) Items() []Notification {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	items := make([]Notification, len(svc.items))
	copy(items, svc.items)
	return items
}

// UnreadCount equals the number of locally-held unread entries at every
// observable point.
func (svc *Service) UnreadCount() int {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.unreadCount
}

func (svc *Service) Loading() bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.loading
}

// onProfileChange cycles the push subscription and re-runs the baseline fetch
// whenever the identity changes. At most one channel is open per identity.
func (svc *Service) onProfileChange(prof *profile.Profile) {
	svc.closeSubscription()
	if prof == nil {
		return
	}

	sub, err := svc.feed.Subscribe(context.Background(), prof.ID, svc.onPush)
	if err != nil {
		svc.logger.Error("subscribing to notification feed", err, *prof)
	} else {
		svc.mu.Lock()
		svc.sub = sub
		svc.mu.Unlock()
	}

	_ = svc.Refetch(context.Background())
}

func (svc *Service) closeSubscription() {
	svc.mu.Lock()
	sub := svc.sub
	svc.sub = nil
	svc.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			svc.logger.Warn("closing notification subscription", err)
		}
	}
}

// onPush merges one server-pushed insert into local state. This is the one
// path that mutates the list directly rather than through refresh-from-server:
// dedupe by id against entries a concurrent fetch may already have delivered,
// prepend if absent, and bump the unread count in lockstep.
func (svc *Service) onPush(n Notification) {
	svc.mu.Lock()
	for _, existing := range svc.items {
		if existing.ID == n.ID {
			svc.mu.Unlock()
			return
		}
	}
	svc.items = append([]Notification{n}, svc.items...)
	if !n.IsRead {
		svc.unreadCount++
	}
	svc.mu.Unlock()

	svc.alert.Info(n.Title, n.Message)
}

// Refetch replaces the local collection with the recipient's full server
// truth and recomputes the unread count. This is the baseline snapshot; a
// missed push after a feed drop is corrected here.
func (svc *Service) Refetch(ctx context.Context) error {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return core.ErrNotAuthenticated
	}

	notifs, err := svc.repo.QueryNotificationsByRecipient(ctx, prof.ID)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.loading = false
	if err != nil {
		svc.alert.Error("Failed to fetch notifications")
		svc.logger.Error("fetching notifications", err, *prof)
		return core.NewRemoteError("fetching notifications", err)
	}
	svc.items = notifs
	svc.unreadCount = 0
	for _, n := range notifs {
		if !n.IsRead {
			svc.unreadCount++
		}
	}
	return nil
}

// MarkAsRead flips one notification to read. Already-read targets are a local
// no-op: no redundant remote write, no double-decrement.
func (svc *Service) MarkAsRead(ctx context.Context, id string) error {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return core.ErrNotAuthenticated
	}

	svc.mu.RLock()
	var target *Notification
	for i := range svc.items {
		if svc.items[i].ID == id {
			target = &svc.items[i]
			break
		}
	}
	alreadyRead := target != nil && target.IsRead
	svc.mu.RUnlock()

	if alreadyRead {
		return nil
	}

	if _, err := svc.repo.MarkNotificationRead(ctx, id); err != nil {
		svc.alert.Error("Failed to mark notification as read")
		svc.logger.Error("marking notification as read", err, *prof)
		if err == ErrNotFound {
			return err
		}
		return core.NewRemoteError("marking notification as read", err)
	}

	// optimistic in-place patch; counter moves in lockstep with the flag
	svc.mu.Lock()
	for i := range svc.items {
		if svc.items[i].ID == id && !svc.items[i].IsRead {
			svc.items[i].IsRead = true
			if svc.unreadCount > 0 {
				svc.unreadCount--
			}
			break
		}
	}
	svc.mu.Unlock()
	return nil
}

// MarkAllAsRead flips every unread notification of the current recipient in
// one bulk write, then patches local state to match.
func (svc *Service) MarkAllAsRead(ctx context.Context) error {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return core.ErrNotAuthenticated
	}

	if err := svc.repo.MarkAllNotificationsRead(ctx, prof.ID); err != nil {
		svc.alert.Error("Failed to mark all notifications as read")
		svc.logger.Error("marking all notifications as read", err, *prof)
		return core.NewRemoteError("marking all notifications as read", err)
	}

	svc.mu.Lock()
	for i := range svc.items {
		svc.items[i].IsRead = true
	}
	svc.unreadCount = 0
	svc.mu.Unlock()

	svc.alert.Success("All notifications marked as read")
	return nil
}

// Create dispatches a notification to another recipient: insert, publish to
// the push feed, and best-effort email. It never touches the creator's own
// local state; the record belongs to a different recipient.
func (svc *Service) Create(ctx context.Context, nn NewNotification) (Notification, error) {
	prof := svc.session.Profile()
	if prof == nil {
		svc.alert.Error("You are not signed in")
		return Notification{}, core.ErrNotAuthenticated
	}

	n := Notification{
		UserID:    nn.UserID,
		Title:     nn.Title,
		Message:   nn.Message,
		Type:      nn.Type,
		CreatedAt: time.Now().UTC(),
	}
	if nn.RelatedID != "" {
		n.RelatedID.SetValid(nn.RelatedID)
	}
	if nn.RelatedType != "" {
		n.RelatedType.SetValid(nn.RelatedType)
	}

	created, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		svc.alert.Error("Failed to send notification")
		svc.logger.Error("creating notification", err, *prof)
		return Notification{}, core.NewRemoteError("creating notification", err)
	}

	if err = svc.feed.Publish(ctx, created); err != nil {
		// the record is persisted; the recipient catches up on their next fetch
		svc.logger.Warn("publishing notification", err)
	}

	svc.emailRecipient(ctx, created)
	return created, nil
}

// emailRecipient mirrors the notification to the recipient's inbox when the
// email stack is wired.
func (svc *Service) emailRecipient(ctx context.Context, n Notification) {
	if svc.mailSvc == nil || svc.profiles == nil {
		return
	}
	recipient, err := svc.profiles.GetProfileByID(ctx, n.UserID)
	if err != nil {
		svc.logger.Warn("looking up notification recipient", err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:          []mail.Address{{Name: recipient.FullName, Address: recipient.Email}},
		Subject:     n.Title,
		TextContent: n.Message,
	})
}
