package echoapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/backend"
)

func Test_AuthAPI_login(t *testing.T) {
	app, client := setup(t)
	signUpUser(t, client, "awa@test.cd", "student")

	t.Run("ok", func(t *testing.T) {
		body := marshalObj(t, LoginRequest{Email: "  AWA@test.cd ", Password: "Passw0rd!"})
		req, rec := newRequest(http.MethodPost, "/v1/auth/login", body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp SessionResponse
		require.NoError(t, unmarshalBody(rec, &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "awa@test.cd", resp.Email)
		assert.NotZero(t, resp.ExpiresAt)
	})

	tests := []httpTest{
		{
			name:     "wrong password",
			body:     marshalObj(t, LoginRequest{Email: "awa@test.cd", Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, errAuthFailed),
		},
		{
			name:     "unknown email",
			body:     marshalObj(t, LoginRequest{Email: "ghost@test.cd", Password: "Passw0rd!"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, errAuthFailed),
		},
		{
			name:     "empty credentials",
			body:     marshalObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, errAuthFailed),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_AuthAPI_register(t *testing.T) {
	app, _ := setup(t)

	t.Run("ok", func(t *testing.T) {
		body := marshalObj(t, RegisterRequest{FullName: "Awa Ndiaye", Email: "awa@test.cd", Password: "Passw0rd!"})
		req, rec := newRequest(http.MethodPost, "/v1/auth/register", body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp SessionResponse
		require.NoError(t, unmarshalBody(rec, &resp))
		assert.NotEmpty(t, resp.Token)
		assert.NotEmpty(t, resp.UserID)
	})

	tests := []httpTest{
		{
			name:     "duplicate email",
			body:     marshalObj(t, RegisterRequest{FullName: "Awa Again", Email: "Awa@test.cd", Password: "Passw0rd!"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "email already registered"}),
		},
		{
			name:     "missing fields",
			body:     marshalObj(t, RegisterRequest{Email: "x@test.cd"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"full_name": "full_name, email and password are required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/register", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_AuthAPI_registerConfirmationPending(t *testing.T) {
	app, client := setup(t)
	client.RequireConfirmation()

	body := marshalObj(t, RegisterRequest{FullName: "Awa Ndiaye", Email: "awa@test.cd", Password: "Passw0rd!"})
	req, rec := newRequest(http.MethodPost, "/v1/auth/register", body)
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "confirmation email sent")

	// signing in before confirming fails
	loginBody := marshalObj(t, LoginRequest{Email: "awa@test.cd", Password: "Passw0rd!"})
	req, rec = newRequest(http.MethodPost, "/v1/auth/login", loginBody)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marshalObj(t, httpErr{Error: "email not confirmed"}),
	}, rec)

	client.ConfirmAccount("awa@test.cd")
	req, rec = newRequest(http.MethodPost, "/v1/auth/login", loginBody)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func Test_AuthAPI_me(t *testing.T) {
	app, client := setup(t)
	token, userID := signUpUser(t, client, "awa@test.cd", "trainer")

	t.Run("anonymous", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/auth/me")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errNotAuthenticated),
		}, rec)
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", token)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp MeResponse
		require.NoError(t, unmarshalBody(rec, &resp))
		assert.Equal(t, userID, resp.UserID)
		assert.Equal(t, "awa@test.cd", resp.Email)
		require.NotNil(t, resp.Profile)
		assert.Equal(t, "trainer", resp.Profile.Role)
		assert.Equal(t, []string{"trainer"}, resp.Roles)
	})

	t.Run("profile lookup failure leaves the caller role-less", func(t *testing.T) {
		client.InsertHook = func(table string, row backend.Row) error {
			if table == backend.ProfileTable {
				return errors.New("row-level policy violation")
			}
			return nil
		}
		defer func() { client.InsertHook = nil }()

		sess, err := client.SignUp(context.Background(), "noprofile@test.cd", "Passw0rd!", "No Profile")
		require.NoError(t, err)
		client.SignOut(context.Background())

		req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", sess.AccessToken)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp MeResponse
		require.NoError(t, unmarshalBody(rec, &resp))
		assert.Equal(t, sess.UserID, resp.UserID)
		assert.Nil(t, resp.Profile)
		assert.Equal(t, []string{}, resp.Roles, "role set is empty, not absent")
	})

	t.Run("garbage token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", "not.a.token")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_AuthAPI_logout(t *testing.T) {
	app, client := setup(t)
	token, _ := signUpUser(t, client, "awa@test.cd", "student")

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/logout", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newRequest(http.MethodPost, "/v1/auth/logout")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_Home(t *testing.T) {
	app, _ := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
}
