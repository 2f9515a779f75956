package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/session"
)

var (
	contextStateKey = "sessionState"

	// defaultRedirectPath is where requests land when the caller is
	// authenticated but lacks the required role.
	defaultRedirectPath = "/"
)

// sessionMiddleware resolves the caller's session state from the bearer token,
// if any, and stores it on the request context. It never fails the request
// itself; access decisions belong to requireRoles.
func sessionMiddleware(client backend.Client, logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			st := session.State{BackendReady: client.Configured()}

			if token := bearerToken(ctx.Request()); token != "" {
				sess, err := client.SessionFromToken(ctx.Request().Context(), token)
				if err == nil {
					st.Session = sess
					st.Profile, st.Roles = session.DeriveProfile(ctx.Request().Context(), client, logger, sess)
				} else if !backend.IsAuthError(err) {
					return err
				}
			}

			ctx.Set(contextStateKey, st)
			return next(ctx)
		}
	}
}

// requireRoles guards a route group. An anonymous caller gets 401; an
// authenticated caller missing every required role is silently redirected to
// the default page.
func requireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			st := getContextState(ctx)
			switch session.Authorize(st, roles...) {
			case session.DecisionAllow:
				return next(ctx)
			case session.DecisionSignIn:
				return errUnauthorized
			case session.DecisionRedirect:
				return ctx.Redirect(http.StatusSeeOther, defaultRedirectPath)
			default:
				return errBackendUnavailable
			}
		}
	}
}

func getContextState(ctx echo.Context) session.State {
	st, _ := ctx.Get(contextStateKey).(session.State)
	return st
}

// getContextSession returns the caller's session or errUnauthorized.
func getContextSession(ctx echo.Context) (*backend.Session, error) {
	st := getContextState(ctx)
	if st.Session == nil {
		return nil, errUnauthorized
	}
	return st.Session, nil
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}
