package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/core/parent"
)

const parentEntity = "apoderado"

type parentApi struct {
	svc      *parent.Service
	activity *activity.Service
	validate *validator.Validate
}

func registerParentAPI(g *echo.Group, deps ServerDeps) {
	api := parentApi{svc: deps.Parents, activity: deps.Activity, validate: deps.Validate}

	pg := g.Group("/parents")
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.GET("/dni/:dni", api.retrieveByDNI)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
}

func (api *parentApi) query(ctx echo.Context) error {
	var filter parent.QueryFilter
	orderings, page, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	parents, err := api.svc.Query(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying parents")
	}
	start, end := page.Bounds(len(parents))
	return paged(ctx, page, len(parents), parents[start:end])
}

func (api *parentApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving parent")
	}
	return ctx.JSON(http.StatusOK, p)
}

// retrieveByDNI lets the enrollment form reuse an existing guardian.
func (api *parentApi) retrieveByDNI(ctx echo.Context) error {
	p, found, err := api.svc.GetByDNI(ctx.Request().Context(), ctx.Param("dni"))
	if err != nil {
		return errors.Wrap(err, "retrieving parent by DNI")
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *parentApi) create(ctx echo.Context) error {
	var data parent.NewParent
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating parent")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionCreate, parentEntity, p.ID, p.FullName())
	return mutated(ctx, http.StatusCreated, p, "Apoderado registrado correctamente")
}

func (api *parentApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data parent.UpdateParent
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	p, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating parent")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionUpdate, parentEntity, p.ID, p.FullName())
	return mutated(ctx, http.StatusOK, p, "Apoderado actualizado correctamente")
}

func (api *parentApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting parent")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionDelete, parentEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Apoderado eliminado correctamente")
}
