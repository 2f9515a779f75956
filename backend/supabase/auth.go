package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

type (
	authUser struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}

	authResponse struct {
		AccessToken string    `json:"access_token"`
		ExpiresIn   int       `json:"expires_in"`
		User        *authUser `json:"user"`

		// signup without auto-confirm returns the bare user object instead
		ID    string `json:"id"`
		Email string `json:"email"`
	}
)

func (c *Client) GetSession(ctx context.Context) *backend.Session {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.session == nil || time.Now().After(c.session.ExpiresAt) {
		return nil
	}
	sess := *c.session
	return &sess
}

func (c *Client) SessionFromToken(ctx context.Context, token string) (*backend.Session, error) {
	hdr := make(http.Header)
	hdr.Set("Authorization", "Bearer "+token)

	var usr authUser
	if err := c.requestJSON(ctx, http.MethodGet, "/auth/v1/user", nil, nil, &usr, hdr); err != nil {
		if apiErr, ok := err.(*apiError); ok && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return nil, backend.NewAuthError(backend.ReasonInvalidCredentials)
		}
		return nil, err
	}
	return &backend.Session{UserID: usr.ID, Email: usr.Email, AccessToken: token}, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	q := make(url.Values)
	q.Set("grant_type", "password")
	body := map[string]string{"email": core.CleanString(email, true /* lower */), "password": password}

	var res authResponse
	if err := c.requestJSON(ctx, http.MethodPost, "/auth/v1/token", q, body, &res, nil); err != nil {
		return nil, asAuthError(err)
	}
	sess := res.toSession()
	c.setSession(sess)
	c.notify(sess)
	cp := *sess
	return &cp, nil
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*backend.Session, error) {
	email = core.CleanString(email, true /* lower */)
	displayName = core.CleanString(displayName)
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": displayName},
	}

	var res authResponse
	if err := c.requestJSON(ctx, http.MethodPost, "/auth/v1/signup", nil, body, &res, nil); err != nil {
		return nil, asAuthError(err)
	}

	userID := res.ID
	if res.User != nil {
		userID = res.User.ID
	}
	// best-effort companion profile row; access policies may reject it until
	// the email is confirmed, which never fails the signup itself
	if userID != "" {
		if _, err := c.Insert(ctx, backend.ProfileTable, backend.Row{
			"id":        userID,
			"email":     email,
			"full_name": displayName,
			"role":      backend.DefaultRole,
		}); err != nil {
			c.logger.Warn("profile row creation failed, continuing signup", err)
		}
	}

	if res.AccessToken == "" {
		return nil, nil // confirmation pending
	}
	sess := res.toSession()
	c.setSession(sess)
	c.notify(sess)
	cp := *sess
	return &cp, nil
}

func (c *Client) SignOut(ctx context.Context) {
	c.mutex.RLock()
	sess := c.session
	c.mutex.RUnlock()

	// local state goes first; a failing remote round-trip is only logged
	c.setSession(nil)

	if sess != nil {
		hdr := make(http.Header)
		hdr.Set("Authorization", "Bearer "+sess.AccessToken)
		if err := c.requestJSON(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil, hdr); err != nil {
			c.logger.Warn("remote sign-out failed", err)
		}
	}
	c.notify(nil)
}

func (c *Client) OnSessionChange(h backend.SessionHandler) backend.Unsubscribe {
	return c.hub.Subscribe(h)
}

func (c *Client) setSession(sess *backend.Session) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.session = sess
}

func (c *Client) notify(sess *backend.Session) {
	c.hub.Broadcast(sess)
}

func (res *authResponse) toSession() *backend.Session {
	sess := &backend.Session{
		AccessToken: res.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(res.ExpiresIn) * time.Second).UTC(),
	}
	if res.User != nil {
		sess.UserID = res.User.ID
		sess.Email = res.User.Email
	} else {
		sess.UserID = res.ID
		sess.Email = res.Email
	}
	return sess
}

// asAuthError maps service auth failures onto the AuthError taxonomy;
// configuration and transport failures pass through unchanged.
func asAuthError(err error) error {
	if err == backend.ErrNotConfigured {
		return backend.NewAuthError(backend.ReasonNotConfigured)
	}
	apiErr, ok := err.(*apiError)
	if !ok {
		return err
	}
	msg := strings.ToLower(apiErr.Error())
	switch {
	case strings.Contains(msg, "invalid login credentials"), strings.Contains(msg, "invalid_grant"):
		return backend.NewAuthError(backend.ReasonInvalidCredentials)
	case strings.Contains(msg, "not confirmed"):
		return backend.NewAuthError(backend.ReasonEmailNotConfirmed)
	case strings.Contains(msg, "already registered"), strings.Contains(msg, "already exists"):
		return backend.NewAuthError(backend.ReasonEmailExists)
	}
	return backend.NewAuthError(apiErr.Error())
}
