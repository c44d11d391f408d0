package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/activity"
)

type activityApi struct {
	svc *activity.Service
}

func registerActivityAPI(g *echo.Group, deps ServerDeps) {
	api := activityApi{svc: deps.Activity}
	g.GET("/activity", api.query, adminOnly)
}

func (api *activityApi) query(ctx echo.Context) error {
	var filter activity.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(errHttpInvalidBody, err.Error())
	}
	filter.Clean()

	var page core.Page
	if err := echo.QueryParamsBinder(ctx).Int("page", &page.Number).Int("page_size", &page.Size).BindError(); err != nil {
		return errors.Wrap(errHttpInvalidBody, err.Error())
	}

	res, err := api.svc.Query(ctx.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
