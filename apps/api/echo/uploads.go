package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	mediasvc "github.com/trezcool/colegio/services/media"
)

var errHttpUploadsDisabled = echo.NewHTTPError(http.StatusServiceUnavailable, mediasvc.ErrNotConfigured.Error())

type uploadApi struct {
	uploader *mediasvc.Uploader
}

func registerUploadAPI(g *echo.Group, deps ServerDeps) {
	api := uploadApi{uploader: deps.Uploader}
	g.POST("/uploads", api.upload)
}

// upload stores a profile picture or a payment voucher and returns its URL.
func (api *uploadApi) upload(ctx echo.Context) error {
	if api.uploader == nil {
		return errHttpUploadsDisabled
	}
	fh, err := ctx.FormFile("archivo")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "archivo", Error: "seleccione un archivo"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	up, err := api.uploader.Upload(ctx.Request().Context(), fh.Filename, f)
	if err == mediasvc.ErrNotConfigured {
		return errHttpUploadsDisabled
	}
	if hostErr, ok := errors.Cause(err).(*mediasvc.HostError); ok {
		if hostErr.Rejected() {
			return echo.NewHTTPError(http.StatusBadRequest, hostErr.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, hostErr.Error())
	}
	if err != nil {
		return errors.Wrap(err, "uploading file")
	}
	return mutated(ctx, http.StatusCreated, up, "Archivo subido correctamente")
}
