package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

// In self-hosted mode the profile table doubles as the account store; the
// password hash lives alongside the profile columns and is never selected by
// profile queries.

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

	var acc struct {
		ID           string `db:"id"`
		PasswordHash []byte `db:"password_hash"`
	}
	err := c.db.GetContext(ctx, &acc,
		"SELECT id, password_hash FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, backend.NewAuthError(backend.ReasonInvalidCredentials)
	}
	if err != nil {
		return nil, backend.NewTransientError("finding account", err)
	}
	if err = bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return nil, backend.NewAuthError(backend.ReasonInvalidCredentials)
	}

	sess, err := backend.MintSession(c.secret, acc.ID, email, c.tokenDelta)
	if err != nil {
		return nil, err
	}
	c.setSession(sess)
	c.hub.Broadcast(sess)
	cp := *sess
	return &cp, nil
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*backend.Session, error) {
	email = core.CleanString(email, true /* lower */)
	displayName = core.CleanString(displayName)

	var exists bool
	err := c.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)", email)
	if err != nil {
		return nil, backend.NewTransientError("checking account", err)
	}
	if exists {
		return nil, backend.NewAuthError(backend.ReasonEmailExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}
	id := uuid.New().String()
	_, err = c.db.ExecContext(ctx,
		"INSERT INTO users (id, email, full_name, role, password_hash) VALUES ($1, $2, $3, $4, $5)",
		id, email, displayName, backend.DefaultRole, hash)
	if err != nil {
		return nil, backend.NewTransientError("creating account", err)
	}

	sess, err := backend.MintSession(c.secret, id, email, c.tokenDelta)
	if err != nil {
		return nil, err
	}
	c.setSession(sess)
	c.hub.Broadcast(sess)
	cp := *sess
	return &cp, nil
}

func (c *Client) SignOut(ctx context.Context) {
	c.setSession(nil)
	c.hub.Broadcast(nil)
}

func (c *Client) OnSessionChange(h backend.SessionHandler) backend.Unsubscribe {
	return c.hub.Subscribe(h)
}

func (c *Client) setSession(sess *backend.Session) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.session = sess
}
