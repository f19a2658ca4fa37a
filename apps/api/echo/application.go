package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/agridesk/portal/core/application"
)

type applicationApi struct {
	portalApi
}

func registerApplicationAPI(g *echo.Group, p portalApi, mw ...echo.MiddlewareFunc) {
	api := applicationApi{portalApi: p}

	ag := g.Group("/applications", mw...)
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

func (api *applicationApi) query(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	if err = hooks.Applications.Refetch(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "refetching applications")
	}
	return ctx.JSON(http.StatusOK, hooks.Applications.Items())
}

func (api *applicationApi) create(ctx echo.Context) error {
	var data application.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	app, err := hooks.Applications.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating application")
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *applicationApi) update(ctx echo.Context) error {
	var data application.UpdateApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateApplication")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	app, err := hooks.Applications.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating application")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) destroy(ctx echo.Context) error {
	hooks, err := getContextHooks(ctx)
	if err != nil {
		return err
	}
	if err = hooks.Applications.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting application")
	}
	return ctx.NoContent(http.StatusNoContent)
}
