package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/agridesk/portal/core/leave"
)

type leaveApi struct {
	portalApi
}

// RejectRequest carries the optional reason for a leave rejection.
type RejectRequest struct {
	Reason string `json:"reason"`
}

func registerLeaveAPI(g *echo.Group, p portalApi, mw ...echo.MiddlewareFunc) {
	api := leaveApi{portalApi: p}

	lg := g.Group("/leave-requests", mw...)
	lg.GET("", api.query)
	lg.POST("", api.create)
	lg.PUT("/:id", api.update)
	lg.POST("/:id/approve", api.approve)
	lg.POST("/:id/reject", api.reject)
	lg.DELETE("/:id", api.destroy)
}

func (api *leaveApi) query(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	if err = hooks.Leaves.Refetch(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "refetching leave requests")
	}
	return ctx.JSON(http.StatusOK, hooks.Leaves.Items())
}

func (api *leaveApi) create(ctx echo.Context) error {
	var data leave.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	req, err := hooks.Leaves.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating leave request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *leaveApi) update(ctx echo.Context) error {
	var data leave.UpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	req, err := hooks.Leaves.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating leave request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *leaveApi) approve(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	req, err := hooks.Leaves.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving leave request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *leaveApi) reject(ctx echo.Context) error {
	var data RejectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RejectRequest")
	}

	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	req, err := hooks.Leaves.Reject(ctx.Request().Context(), ctx.Param("id"), data.Reason)
	if err != nil {
		return errors.Wrap(err, "rejecting leave request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *leaveApi) destroy(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	if err = hooks.Leaves.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting leave request")
	}
	return ctx.NoContent(http.StatusNoContent)
}
