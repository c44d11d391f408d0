package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/core/role"
)

const roleEntity = "rol"

type roleApi struct {
	svc      *role.Service
	activity *activity.Service
	validate *validator.Validate
}

func registerRoleAPI(g *echo.Group, deps ServerDeps) {
	api := roleApi{svc: deps.Roles, activity: deps.Activity, validate: deps.Validate}

	rg := g.Group("/roles", adminOnly)
	rg.GET("", api.query)
	rg.POST("", api.create)
	rg.GET("/:id", api.retrieve)
	rg.PUT("/:id", api.update)
	rg.DELETE("/:id", api.destroy)
}

func (api *roleApi) query(ctx echo.Context) error {
	var filter role.QueryFilter
	orderings, page, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	roles, err := api.svc.Query(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying roles")
	}
	start, end := page.Bounds(len(roles))
	return paged(ctx, page, len(roles), roles[start:end])
}

func (api *roleApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	r, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving role")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *roleApi) create(ctx echo.Context) error {
	var data role.NewRole
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	r, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating role")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionCreate, roleEntity, r.ID, r.Name)
	return mutated(ctx, http.StatusCreated, r, "Rol creado correctamente")
}

func (api *roleApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data role.UpdateRole
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	r, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating role")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionUpdate, roleEntity, r.ID, r.Name)
	return mutated(ctx, http.StatusOK, r, "Rol actualizado correctamente")
}

func (api *roleApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting role")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionDelete, roleEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Rol eliminado correctamente")
}
