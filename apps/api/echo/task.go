package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/agridesk/portal/core/task"
)

type taskApi struct {
	portalApi
}

func registerTaskAPI(g *echo.Group, p portalApi, mw ...echo.MiddlewareFunc) {
	api := taskApi{portalApi: p}

	tg := g.Group("/tasks", mw...)
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.PUT("/:id", api.update)
	tg.POST("/:id/complete", api.complete)
	tg.DELETE("/:id", api.destroy)
}

func (api *taskApi) query(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	if err = hooks.Tasks.Refetch(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "refetching tasks")
	}
	return ctx.JSON(http.StatusOK, hooks.Tasks.Items())
}

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	tsk, err := hooks.Tasks.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, tsk)
}

func (api *taskApi) update(ctx echo.Context) error {
	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	tsk, err := hooks.Tasks.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) complete(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	tsk, err := hooks.Tasks.Complete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing task")
	}
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	if err = hooks.Tasks.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}
