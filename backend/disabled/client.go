// Package disabled implements backend.Client for the unconfigured case: the
// full API shape with no network I/O, so the rest of the app degrades to a
// read-only anonymous state instead of crashing.
package disabled

import (
	"context"
	"time"

	"github.com/trezcool/elimu/backend"
)

type Client struct{}

var _ backend.Client = (*Client)(nil)

func Open() *Client { return &Client{} }

func (c *Client) Configured() bool { return false }

func (c *Client) GetSession(ctx context.Context) *backend.Session { return nil }

func (c *Client) SessionFromToken(ctx context.Context, token string) (*backend.Session, error) {
	return nil, backend.ErrNotConfigured
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	return nil, backend.NewAuthError(backend.ReasonNotConfigured)
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*backend.Session, error) {
	return nil, backend.NewAuthError(backend.ReasonNotConfigured)
}

func (c *Client) SignOut(ctx context.Context) {}

func (c *Client) OnSessionChange(h backend.SessionHandler) backend.Unsubscribe {
	return func() {}
}

func (c *Client) Select(ctx context.Context, q backend.Query) ([]backend.Row, error) {
	return []backend.Row{}, backend.ErrNotConfigured
}

func (c *Client) SelectOne(ctx context.Context, q backend.Query) (backend.Row, error) {
	return nil, backend.ErrNotConfigured
}

func (c *Client) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	return nil, backend.ErrNotConfigured
}

func (c *Client) Update(ctx context.Context, table string, patch backend.Row, filters ...backend.Filter) error {
	return backend.ErrNotConfigured
}

func (c *Client) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	return backend.ErrNotConfigured
}

func (c *Client) SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	return "", backend.ErrNotConfigured
}
