package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/core/enrollment"
)

const enrollmentEntity = "matricula"

type enrollmentApi struct {
	svc      *enrollment.Service
	activity *activity.Service
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, deps ServerDeps) {
	api := enrollmentApi{svc: deps.Enrollments, activity: deps.Activity, validate: deps.Validate}

	eg := g.Group("/enrollments", adminOrSecretary)
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.POST("/wizard", api.wizard)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update)
	eg.DELETE("/:id", api.destroy)
}

func enrollmentSummary(e enrollment.Enrollment) string {
	return fmt.Sprintf("estudiante %d, año %d", e.StudentID, e.SchoolYear)
}

func (api *enrollmentApi) query(ctx echo.Context) error {
	var filter enrollment.QueryFilter
	orderings, page, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.Query(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	start, end := page.Bounds(len(enrollments))
	return paged(ctx, page, len(enrollments), enrollments[start:end])
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving enrollment")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) create(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating enrollment")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionCreate, enrollmentEntity, e.ID, enrollmentSummary(e))
	return mutated(ctx, http.StatusCreated, e, "Matrícula registrada correctamente")
}

// wizard enrolls a new student, and optionally a new guardian, in one request.
// When a step fails, the records created by the previous steps are returned with the error.
func (api *enrollmentApi) wizard(ctx echo.Context) error {
	var data enrollment.Wizard
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}

	res, err := api.svc.Enroll(ctx.Request().Context(), data)
	if res.Guardian != nil {
		api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionCreate, parentEntity, res.Guardian.ID, res.Guardian.FullName())
	}
	if res.Student != nil {
		api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionCreate, studentEntity, res.Student.ID, res.Student.FullName())
	}
	if err != nil {
		if res.Guardian != nil || res.Student != nil {
			return withData(errors.Wrap(err, "enrolling"), res)
		}
		return errors.Wrap(err, "enrolling")
	}

	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionEnroll, enrollmentEntity, res.Enrollment.ID,
		enrollmentSummary(*res.Enrollment))
	return mutated(ctx, http.StatusCreated, res, "Matrícula registrada correctamente")
}

func (api *enrollmentApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data enrollment.UpdateEnrollment
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	e, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating enrollment")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionUpdate, enrollmentEntity, e.ID, enrollmentSummary(e))
	return mutated(ctx, http.StatusOK, e, "Matrícula actualizada correctamente")
}

func (api *enrollmentApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionDelete, enrollmentEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Matrícula eliminada correctamente")
}
