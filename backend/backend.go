// Package backend abstracts the hosted service the app delegates auth,
// tabular data and file storage to, behind one stable Client interface.
// Implementations are selected once at start-up: a connected client
// (backend/supabase), a self-hosted client (backend/postgres), a validating
// disabled stub (backend/disabled) and an in-memory client (backend/inmem).
package backend

import (
	"context"
	"time"
)

// Profile storage constants shared by client implementations. Every account
// gets a companion row in ProfileTable holding its display name and role.
const (
	ProfileTable = "users"
	DefaultRole  = "student"
)

type (
	// Row is a single tabular record as returned by the backend.
	Row map[string]interface{}

	// Session is the live authenticated identity bound to this app instance.
	Session struct {
		UserID      string
		Email       string
		AccessToken string
		ExpiresAt   time.Time // UTC
	}

	// SessionHandler is invoked once per session transition; sess is nil
	// after a sign-out.
	SessionHandler func(sess *Session)

	// Unsubscribe disposes a session-change subscription. It is idempotent.
	Unsubscribe func()

	AuthClient interface {
		// GetSession returns the current session if any. It fails soft: any
		// error (including a missing configuration) yields nil.
		GetSession(ctx context.Context) *Session
		// SessionFromToken resolves a session from a bearer access token
		// without establishing it as the current session.
		SessionFromToken(ctx context.Context, token string) (*Session, error)
		SignIn(ctx context.Context, email, password string) (*Session, error)
		// SignUp registers a new account and best-effort creates the
		// companion profile row with the default role. A profile-creation
		// failure is logged and swallowed; the signup still succeeds.
		// The returned session is nil while email confirmation is pending.
		SignUp(ctx context.Context, email, password, displayName string) (*Session, error)
		// SignOut clears the local session unconditionally; a failing remote
		// round-trip is logged, never surfaced.
		SignOut(ctx context.Context)
		// OnSessionChange registers a handler invoked synchronously on every
		// external session transition.
		OnSessionChange(h SessionHandler) Unsubscribe
	}

	TableClient interface {
		Select(ctx context.Context, q Query) ([]Row, error)
		// SelectOne expects the query to match exactly one row;
		// ErrNotFound and ErrMultipleRows otherwise.
		SelectOne(ctx context.Context, q Query) (Row, error)
		// Insert creates a row and returns it as stored. One attempt, no retries.
		Insert(ctx context.Context, table string, row Row) (Row, error)
		// Update applies patch to all rows matching the equality filters.
		Update(ctx context.Context, table string, patch Row, filters ...Filter) error
	}

	BlobClient interface {
		Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
		// SignedURL issues a time-limited read URL for a stored object.
		// It errors when the object does not exist or storage is unreachable;
		// it never silently returns a malformed URL.
		SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
	}

	Client interface {
		// Configured performs structural validation only (credentials present,
		// endpoint well-formed); it never touches the network.
		Configured() bool

		AuthClient
		TableClient
		BlobClient
	}
)
