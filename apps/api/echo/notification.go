package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/agridesk/portal/core/notification"
)

type notificationApi struct {
	portalApi
}

// NotificationList is the notification feed payload: the items plus the
// derived unread count the UI badges on.
type NotificationList struct {
	Items       []notification.Notification `json:"items"`
	UnreadCount int                         `json:"unread_count"`
}

func registerNotificationAPI(g *echo.Group, p portalApi, mw ...echo.MiddlewareFunc) {
	api := notificationApi{portalApi: p}

	ng := g.Group("/notifications", mw...)
	ng.GET("", api.query)
	ng.POST("", api.create)
	ng.POST("/:id/read", api.markRead)
	ng.POST("/read-all", api.markAllRead)
}

func (api *notificationApi) query(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	if err = hooks.Notifications.Refetch(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "refetching notifications")
	}
	return ctx.JSON(http.StatusOK, NotificationList{
		Items:       hooks.Notifications.Items(),
		UnreadCount: hooks.Notifications.UnreadCount(),
	})
}

func (api *notificationApi) create(ctx echo.Context) error {
	var data notification.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	n, err := hooks.Notifications.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	if err = hooks.Notifications.MarkAsRead(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, NotificationList{
		Items:       hooks.Notifications.Items(),
		UnreadCount: hooks.Notifications.UnreadCount(),
	})
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	if err = hooks.Notifications.MarkAllAsRead(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "marking all notifications read")
	}
	return ctx.JSON(http.StatusOK, NotificationList{
		Items:       hooks.Notifications.Items(),
		UnreadCount: hooks.Notifications.UnreadCount(),
	})
}
