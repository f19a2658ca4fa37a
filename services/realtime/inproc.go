package realtime

import (
	"context"
	"sync"

	"github.com/agridesk/portal/core/notification"
)

// inprocFeed is a single-process notification.Feed: pushes are dispatched
// synchronously to in-memory subscribers. Used in tests and debug runs
// without a NATS server.
type inprocFeed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(notification.Notification) // recipientID -> subID -> handler
}

var _ notification.Feed = (*inprocFeed)(nil) // interface compliance check

func NewInprocFeed() *inprocFeed {
	return &inprocFeed{subs: make(map[string]map[int]func(notification.Notification))}
}

func (feed *inprocFeed) Publish(_ context.Context, n notification.Notification) error {
	feed.mu.RLock()
	handlers := make([]func(notification.Notification), 0, len(feed.subs[n.UserID]))
	for _, handler := range feed.subs[n.UserID] {
		handlers = append(handlers, handler)
	}
	feed.mu.RUnlock()

	for _, handler := range handlers {
		handler(n)
	}
	return nil
}

func (feed *inprocFeed) Subscribe(_ context.Context, recipientID string, handler func(notification.Notification)) (notification.Subscription, error) {
	feed.mu.Lock()
	defer feed.mu.Unlock()

	feed.nextID++
	if feed.subs[recipientID] == nil {
		feed.subs[recipientID] = make(map[int]func(notification.Notification))
	}
	feed.subs[recipientID][feed.nextID] = handler
	return &inprocSubscription{feed: feed, recipientID: recipientID, id: feed.nextID}, nil
}

type inprocSubscription struct {
	feed        *inprocFeed
	recipientID string
	id          int
}

func (s *inprocSubscription) Close() error {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	delete(s.feed.subs[s.recipientID], s.id)
	return nil
}
