package main

import (
	"context"
	"fmt"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/notification"
	"github.com/agridesk/portal/core/profile"
)

// notify inserts a notification for a recipient and pushes it to any live
// subscribers.
func (cli *commandLine) notify(userID, title, message, typ string) error {
	ctx := context.Background()
	typ = core.CleanString(typ, true /* lower */)

	valid := false
	for _, t := range notification.AllTypes {
		if typ == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown notification type %q", typ)
	}

	if _, err := cli.profSvc.GetByID(ctx, userID); err != nil {
		if err == profile.ErrNotFound {
			return fmt.Errorf("no profile %q", userID)
		}
		return err
	}

	n, err := cli.notifRepo.CreateNotification(ctx, notification.Notification{
		UserID:  userID,
		Title:   core.CleanString(title),
		Message: core.CleanString(message),
		Type:    typ,
	})
	if err != nil {
		return err
	}
	if err = cli.feed.Publish(ctx, n); err != nil {
		logger.Printf("push failed (notification saved): %v\n", err)
	}
	return nil
}
