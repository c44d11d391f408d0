package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
)

var (
	orderingParam = "ordering"
	activeParam   = "estaActivo"
)

type (
	// filter is an entity QueryFilter.
	filter interface {
		Clean()
	}

	// input is a New*/Update* form.
	input interface {
		Validate(validate *validator.Validate) error
	}

	mutationResponse struct {
		Data   interface{} `json:"data,omitempty"`
		Notice core.Notice `json:"notice"`
	}
)

// bindList binds the filter, ordering and page of a table request.
// active receives ?estaActivo= (echo cannot bind query params to pointers).
func bindList(ctx echo.Context, f filter, active **bool) ([]core.Ordering, core.Page, error) {
	var page core.Page
	if err := ctx.Bind(f); err != nil {
		return nil, page, errors.Wrap(errHttpInvalidBody, err.Error())
	}
	f.Clean()

	if active != nil {
		if val := ctx.QueryParam(activeParam); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				return nil, page, core.NewValidationError(nil, core.FieldError{Field: activeParam, Error: "valor inválido"})
			}
			*active = &b
		}
	}

	if err := echo.QueryParamsBinder(ctx).Int("page", &page.Number).Int("page_size", &page.Size).BindError(); err != nil {
		return nil, page, errors.Wrap(errHttpInvalidBody, err.Error())
	}
	page.Clean()
	return core.ParseOrdering(ctx.QueryParam(orderingParam)), page, nil
}

// bindInput binds the request body into in and validates it.
func bindInput(ctx echo.Context, in input, validate *validator.Validate) error {
	if err := ctx.Bind(in); err != nil {
		return errors.Wrap(errHttpInvalidBody, err.Error())
	}
	return in.Validate(validate)
}

func idParam(ctx echo.Context, name ...string) (int, error) {
	param := "id"
	if len(name) > 0 {
		param = name[0]
	}
	id, err := strconv.Atoi(ctx.Param(param))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func paged(ctx echo.Context, page core.Page, count int, results interface{}) error {
	return ctx.JSON(http.StatusOK, core.Paged{Count: count, Page: page.Number, PageSize: page.Size, Results: results})
}

// mutated answers a successful mutation with its data and the toast to show.
func mutated(ctx echo.Context, code int, data interface{}, msg string) error {
	return ctx.JSON(code, mutationResponse{Data: data, Notice: core.SuccessNotice(msg)})
}
