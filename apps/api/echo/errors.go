package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
)

const loginPath = "/login"

var (
	errHttpForbidden   = echo.NewHTTPError(http.StatusForbidden, "no tiene permisos para realizar esta acción")
	errHttpNotFound    = echo.NewHTTPError(http.StatusNotFound, "registro no encontrado")
	errHttpInvalidBody = echo.NewHTTPError(http.StatusBadRequest, "los datos enviados no son válidos")

	invalidFormMessage = "revise los datos del formulario"
)

// partialError carries the records a multi-step operation created before failing.
type partialError struct {
	err  error
	data interface{}
}

func (pe *partialError) Error() string { return pe.err.Error() }

func withData(err error, data interface{}) error {
	return &partialError{err: err, data: data}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(
	conf *core.Config,
	logger core.Logger,
	translator ut.Translator,
	signalShutdown func(),
) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var data interface{}
		if pe, ok := err.(*partialError); ok {
			err, data = pe.err, pe.data
		}

		code := http.StatusInternalServerError
		body := echo.Map{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body["error"] = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			body["error"] = invalidFormMessage
			body["fields"] = core.TranslateErrors(origErr, translator)
		case *core.ValidationError:
			code = http.StatusBadRequest
			body["error"] = origErr.Error()
			if len(origErr.Fields) > 0 {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				body["fields"] = fldErrs
				if origErr.Err == nil {
					body["error"] = invalidFormMessage
				}
			}
		case *core.APIError:
			switch {
			case core.IsUnauthorized(origErr):
				code = http.StatusUnauthorized
				body["error"] = core.ErrUnauthorized.Error()
			case origErr.Status >= 400 && origErr.Status < 500:
				code = origErr.Status
				body["error"] = origErr.Message
			default: // upstream failure
				code = http.StatusBadGateway
				body["error"] = origErr.Message
				logger.Error("upstream API error", errors.Wrap(err, "upstream API error"), sessionClaims(ctx))
			}
		default:
			switch {
			case core.IsUnauthorized(err):
				code = http.StatusUnauthorized
				body["error"] = core.ErrUnauthorized.Error()
			case core.IsNotFound(err):
				code = http.StatusNotFound
				body["error"] = errHttpNotFound.Message
			default: // any other error is a server error
				body["error"] = core.GenericErrorMessage
				logger.Error(http.StatusText(code), errors.Wrap(err, http.StatusText(code)), sessionClaims(ctx))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if code == http.StatusUnauthorized {
			expireSessionCookie(ctx, conf)
			body["redirect"] = loginPath
		}
		if data != nil {
			body["data"] = data
		}
		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			body["debug"] = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
