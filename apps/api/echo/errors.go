package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/core/identity"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/services/auth"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errTokenRevoked  = echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// domainErrors maps the sentinel errors of the core packages to their HTTP response.
var domainErrors = []struct {
	err  error
	herr *echo.HTTPError
}{
	{identity.ErrUnauthenticated, errUnauthorized},
	{auth.ErrInvalidToken, errUnauthorized},
	{auth.ErrRefreshExpired, echo.NewHTTPError(http.StatusForbidden, auth.ErrRefreshExpired.Error())},
	{account.ErrAuthenticationFailed, echo.NewHTTPError(http.StatusBadRequest, account.ErrAuthenticationFailed.Error())},
	{account.ErrAccountDeactivated, echo.NewHTTPError(http.StatusForbidden, account.ErrAccountDeactivated.Error())},
	{account.ErrNotFound, errHttpNotFound},
	{planner.ErrNotFound, errHttpNotFound},
	{planner.ErrPlanExists, echo.NewHTTPError(http.StatusConflict, planner.ErrPlanExists.Error())},
}

// httpErrorFor returns the HTTP response of a sentinel error.
func httpErrorFor(cause error) (*echo.HTTPError, bool) {
	for _, de := range domainErrors {
		if cause == de.err {
			return de.herr, true
		}
	}
	return nil, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if herr, ok := httpErrorFor(cause); ok {
			cause = herr
		}

		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
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

			usr, _ := identity.UserFromContext(ctx.Request().Context())
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
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
