package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/session"
)

type authAPI struct {
	client backend.Client
}

func registerAuthAPI(g *echo.Group, sess echo.MiddlewareFunc, client backend.Client) {
	api := authAPI{client: client}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/register", api.register)

	// authed endpoints
	sg := ag.Group("", sess)
	sg.POST("/logout", api.logout)
	sg.GET("/me", api.me)
}

func (api *authAPI) login(ctx echo.Context) error {
	data := new(LoginRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if data.Email == "" || data.Password == "" {
		return errAuthenticationFailed
	}

	s, err := api.client.SignIn(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(s))
}

func (api *authAPI) register(ctx echo.Context) error {
	data := new(RegisterRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.FullName = core.CleanString(data.FullName)
	data.Email = core.CleanString(data.Email, true /* lower */)
	if data.FullName == "" || data.Email == "" || data.Password == "" {
		return core.NewValidationError(nil,
			core.FieldError{Field: "full_name", Error: "full_name, email and password are required"})
	}

	s, err := api.client.SignUp(ctx.Request().Context(), data.Email, data.Password, data.FullName)
	if err != nil {
		return err
	}
	if s == nil { // email confirmation pending
		return ctx.JSON(http.StatusAccepted, echo.Map{"detail": "confirmation email sent"})
	}
	return ctx.JSON(http.StatusCreated, newSessionResponse(s))
}

func (api *authAPI) logout(ctx echo.Context) error {
	if _, err := getContextSession(ctx); err != nil {
		return err
	}
	api.client.SignOut(ctx.Request().Context())
	return ctx.NoContent(http.StatusNoContent)
}

// me returns the caller's session state: identity, profile and roles.
func (api *authAPI) me(ctx echo.Context) error {
	st := getContextState(ctx)
	if st.Session == nil {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, MeResponse{
		UserID:  st.Session.UserID,
		Email:   st.Session.Email,
		Profile: st.Profile,
		Roles:   st.Roles,
	})
}

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	RegisterRequest struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	SessionResponse struct {
		Token     string `json:"token"`
		UserID    string `json:"user_id"`
		Email     string `json:"email"`
		ExpiresAt int64  `json:"expires_at"`
	}

	MeResponse struct {
		UserID  string           `json:"user_id"`
		Email   string           `json:"email"`
		Profile *session.Profile `json:"profile"`
		Roles   []string         `json:"roles"`
	}
)

func newSessionResponse(s *backend.Session) SessionResponse {
	return SessionResponse{
		Token:     s.AccessToken,
		UserID:    s.UserID,
		Email:     s.Email,
		ExpiresAt: s.ExpiresAt.Unix(),
	}
}
