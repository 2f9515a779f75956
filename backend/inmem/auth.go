package inmem

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
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
	return backend.ParseSessionToken(c.secret, token)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	email = core.CleanString(email, true /* lower */)

	c.mutex.RLock()
	acc, ok := c.accounts[email]
	c.mutex.RUnlock()
	if !ok {
		return nil, backend.NewAuthError(backend.ReasonInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return nil, backend.NewAuthError(backend.ReasonInvalidCredentials)
	}
	if !acc.confirmed {
		return nil, backend.NewAuthError(backend.ReasonEmailNotConfirmed)
	}

	sess, err := backend.MintSession(c.secret, acc.id, acc.email, c.tokenDelta)
	if err != nil {
		return nil, err
	}
	c.mutex.Lock()
	c.session = sess
	c.mutex.Unlock()

	c.hub.Broadcast(sess)
	cp := *sess
	return &cp, nil
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*backend.Session, error) {
	email = core.CleanString(email, true /* lower */)
	displayName = core.CleanString(displayName)

	c.mutex.Lock()
	if _, ok := c.accounts[email]; ok {
		c.mutex.Unlock()
		return nil, backend.NewAuthError(backend.ReasonEmailExists)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		c.mutex.Unlock()
		return nil, errors.Wrap(err, "hashing password")
	}
	acc := &account{
		id:           uuid.New().String(),
		email:        email,
		name:         displayName,
		passwordHash: hash,
		confirmed:    c.autoConfirm,
	}
	c.accounts[email] = acc

	// best-effort companion profile row; its failure never fails the signup
	if _, err = c.insert(backend.ProfileTable, backend.Row{
		"id":        acc.id,
		"email":     acc.email,
		"full_name": acc.name,
		"role":      backend.DefaultRole,
	}); err != nil {
		c.logger.Warn("profile row creation failed, continuing signup", err)
	}
	c.mutex.Unlock()

	if !acc.confirmed {
		return nil, nil // confirmation pending
	}

	sess, err := backend.MintSession(c.secret, acc.id, acc.email, c.tokenDelta)
	if err != nil {
		return nil, err
	}
	c.mutex.Lock()
	c.session = sess
	c.mutex.Unlock()

	c.hub.Broadcast(sess)
	cp := *sess
	return &cp, nil
}

func (c *Client) SignOut(ctx context.Context) {
	c.mutex.Lock()
	c.session = nil
	c.mutex.Unlock()
	c.hub.Broadcast(nil)
}

func (c *Client) OnSessionChange(h backend.SessionHandler) backend.Unsubscribe {
	return c.hub.Subscribe(h)
}
