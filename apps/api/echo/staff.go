package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/core/course"
	"github.com/trezcool/colegio/core/staff"
)

const staffEntity = "trabajador"

type staffApi struct {
	svc      *staff.Service
	courses  *course.Service
	activity *activity.Service
	validate *validator.Validate
}

func registerStaffAPI(g *echo.Group, deps ServerDeps) {
	api := staffApi{svc: deps.Staff, courses: deps.Courses, activity: deps.Activity, validate: deps.Validate}

	// assignment forms list teachers for every role
	g.GET("/teachers", api.teachers)

	sg := g.Group("/staff", adminOnly)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.GET("/:id/assignments", api.assignments)
}

func (api *staffApi) query(ctx echo.Context) error {
	var filter staff.QueryFilter
	orderings, page, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	members, err := api.svc.Query(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	start, end := page.Bounds(len(members))
	return paged(ctx, page, len(members), members[start:end])
}

func (api *staffApi) teachers(ctx echo.Context) error {
	teachers, err := api.svc.Teachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	m, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving staff member")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *staffApi) assignments(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	assignments, err := api.courses.ByStaff(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying staff assignments")
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewStaff
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	m, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating staff member")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionCreate, staffEntity, m.ID, m.FullName())
	return mutated(ctx, http.StatusCreated, m, "Trabajador registrado correctamente")
}

func (api *staffApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data staff.UpdateStaff
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	m, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating staff member")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionUpdate, staffEntity, m.ID, m.FullName())
	return mutated(ctx, http.StatusOK, m, "Trabajador actualizado correctamente")
}

func (api *staffApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting staff member")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionDelete, staffEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Trabajador eliminado correctamente")
}
