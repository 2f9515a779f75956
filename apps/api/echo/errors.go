package echoapi

import (
	stderrors "errors"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/quiz"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errEmailNotConfirmed    = echo.NewHTTPError(http.StatusBadRequest, "email not confirmed")
	errEmailExists          = echo.NewHTTPError(http.StatusBadRequest, "email already registered")
	errHTTPNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errBackendNotConfigured = echo.NewHTTPError(http.StatusServiceUnavailable, "backend not configured")
	errBackendUnavailable   = echo.NewHTTPError(http.StatusServiceUnavailable, "backend unavailable")
)

// asHTTPError maps domain errors to their HTTP counterparts; it returns nil
// for errors that have no mapping.
func asHTTPError(err error) *echo.HTTPError {
	var authErr *backend.AuthError
	if stderrors.As(err, &authErr) {
		switch authErr.Reason {
		case backend.ReasonNotConfigured:
			return errBackendNotConfigured
		case backend.ReasonEmailNotConfirmed:
			return errEmailNotConfirmed
		case backend.ReasonEmailExists:
			return errEmailExists
		default:
			return errAuthenticationFailed
		}
	}
	switch {
	case stderrors.Is(err, backend.ErrNotConfigured):
		return errBackendNotConfigured
	case backend.IsTransient(err):
		return errBackendUnavailable
	case stderrors.Is(err, backend.ErrNotFound),
		stderrors.Is(err, backend.ErrMultipleRows),
		stderrors.Is(err, course.ErrNotFound),
		stderrors.Is(err, course.ErrContentNotFound),
		stderrors.Is(err, quiz.ErrNotFound):
		return errHTTPNotFound
	}
	return nil
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how
// to handle our errors. signalShutdown is called in order to gracefully
// shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		if herr := asHTTPError(err); herr != nil {
			code = herr.Code
			message = herr.Message
		} else {
			switch origErr := errors.Cause(err).(type) {
			case *echo.HTTPError:
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					fldErrs[vErr.Field()] = vErr.Translate(translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				if st := getContextState(ctx); st.Profile != nil {
					logger.Error(msg, errors.Wrap(err, msg), *st.Profile)
				} else {
					logger.Error(msg, errors.Wrap(err, msg))
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
