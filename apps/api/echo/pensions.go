package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/core/pension"
	sheetsvc "github.com/trezcool/colegio/services/spreadsheet"
)

const pensionEntity = "pension"

type pensionApi struct {
	svc      *pension.Service
	activity *activity.Service
	validate *validator.Validate
}

func registerPensionAPI(g *echo.Group, deps ServerDeps) {
	api := pensionApi{svc: deps.Pensions, activity: deps.Activity, validate: deps.Validate}

	pg := g.Group("/pensions", adminOrSecretary)
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.GET("/export", api.export)
	pg.POST("/remind-overdue", api.remindOverdue)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
	pg.POST("/:id/pay", api.pay)
	pg.POST("/:id/remind", api.remind)
}

func (api *pensionApi) query(ctx echo.Context) error {
	var filter pension.QueryFilter
	orderings, page, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	pensions, err := api.svc.Query(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying pensions")
	}
	start, end := page.Bounds(len(pensions))
	return paged(ctx, page, len(pensions), pensions[start:end])
}

func (api *pensionApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving pension")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *pensionApi) export(ctx echo.Context) error {
	var filter pension.QueryFilter
	orderings, _, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	pensions, err := api.svc.Query(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying pensions")
	}

	setAttachment(ctx, "pensiones.xlsx")
	ctx.Response().WriteHeader(http.StatusOK)
	return errors.Wrap(sheetsvc.ExportPensions(ctx.Response(), pensions, core.Today()), "exporting pensions")
}

func (api *pensionApi) create(ctx echo.Context) error {
	var data pension.NewPension
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating pension")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionCreate, pensionEntity, p.ID, p.Period())
	return mutated(ctx, http.StatusCreated, p, "Pensión registrada correctamente")
}

func (api *pensionApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data pension.UpdatePension
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	p, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating pension")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionUpdate, pensionEntity, p.ID, p.Period())
	return mutated(ctx, http.StatusOK, p, "Pensión actualizada correctamente")
}

func (api *pensionApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting pension")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionDelete, pensionEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Pensión eliminada correctamente")
}

func (api *pensionApi) pay(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data pension.Payment
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	p, err := api.svc.Pay(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "paying pension")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionPay, pensionEntity, p.ID,
		fmt.Sprintf("%s, %s", p.Period(), data.PaymentMethod))
	return mutated(ctx, http.StatusOK, p, "Pago registrado correctamente")
}

func (api *pensionApi) remind(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Remind(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "sending pension reminder")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionRemind, pensionEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Recordatorio enviado")
}

type remindResponse struct {
	Sent int `json:"enviados"`
}

func (api *pensionApi) remindOverdue(ctx echo.Context) error {
	sent, err := api.svc.RemindOverdue(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "sending overdue reminders")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionRemind, pensionEntity, 0,
		fmt.Sprintf("%d recordatorios de pensiones vencidas", sent))
	return mutated(ctx, http.StatusOK, remindResponse{Sent: sent}, fmt.Sprintf("%d recordatorios enviados", sent))
}
