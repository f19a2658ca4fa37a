package realtime

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/notification"
)

const subjectPrefix = "portal.notifications."

// natsFeed delivers notification insert events over a NATS server so that
// every portal instance sees pushes regardless of which instance inserted.
type natsFeed struct {
	conn   *nats.Conn
	logger core.Logger
}

var _ notification.Feed = (*natsFeed)(nil) // interface compliance check

func NewNatsFeed(url string, logger core.Logger) (*natsFeed, error) {
	conn, err := nats.Connect(url, nats.RetryOnFailedConnect(true))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to NATS")
	}
	return &natsFeed{conn: conn, logger: logger}, nil
}

func (feed *natsFeed) Publish(_ context.Context, n notification.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "encoding notification")
	}
	if err = feed.conn.Publish(subjectPrefix+n.UserID, data); err != nil {
		return errors.Wrap(err, "publishing notification")
	}
	return nil
}

func (feed *natsFeed) Subscribe(_ context.Context, recipientID string, handler func(notification.Notification)) (notification.Subscription, error) {
	sub, err := feed.conn.Subscribe(subjectPrefix+recipientID, func(msg *nats.Msg) {
		var n notification.Notification
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			feed.logger.Error("decoding pushed notification", err)
			return
		}
		handler(n)
	})
	if err != nil {
		return nil, errors.Wrap(err, "subscribing to notifications")
	}
	return &natsSubscription{sub: sub}, nil
}

func (feed *natsFeed) Close() {
	feed.conn.Close()
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Close() error {
	return s.sub.Unsubscribe()
}
