// Package session owns the current authenticated identity: it restores an
// existing session at start-up, derives the profile and role set, listens for
// backend session transitions and is the only component allowed to mutate any
// of it. Consumers read State snapshots and subscribe to changes.
package session

import (
	"context"
	"sync"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

type Store struct {
	client backend.Client
	logger core.Logger

	mutex       sync.RWMutex
	state       State
	unsubscribe backend.Unsubscribe
	subscribers map[int]func(State)
	nextSub     int
}

func NewStore(client backend.Client, logger core.Logger) *Store {
	return &Store{
		client:      client,
		logger:      logger,
		state:       State{Loading: true},
		subscribers: make(map[int]func(State)),
	}
}

// Init transitions the store from initializing to ready. When the backend is
// structurally unconfigured it settles on ready(anonymous) with
// BackendReady=false and performs no network call at all. Re-initialization
// first disposes the previous session-change subscription so events are never
// delivered twice.
func (s *Store) Init(ctx context.Context) {
	s.mutex.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.mutex.Unlock()

	if !s.client.Configured() {
		s.setState(State{})
		return
	}

	sess := s.client.GetSession(ctx)
	profile, roles := s.deriveProfile(ctx, sess)

	unsub := s.client.OnSessionChange(func(sess *backend.Session) {
		s.applySession(context.Background(), sess)
	})
	s.mutex.Lock()
	s.unsubscribe = unsub
	s.mutex.Unlock()

	s.setState(State{Session: sess, Profile: profile, Roles: roles, BackendReady: true})
}

// Close disposes the session-change subscription. Safe to call repeatedly.
func (s *Store) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// State returns the current combined snapshot.
func (s *Store) State() State {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

// Subscribe registers fn to be invoked synchronously on every state change.
// The returned disposer is idempotent.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		delete(s.subscribers, id)
	}
}

// SignIn authenticates with the backend. Empty credentials fail with an
// AuthError before any backend call. State updates arrive through the
// session-change subscription.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	email = core.CleanString(email, true /* lower */)
	if email == "" || password == "" {
		return backend.NewAuthError("email and password are required")
	}
	_, err := s.client.SignIn(ctx, email, password)
	return err
}

// SignUp registers a new account. A nil session with a nil error means email
// confirmation is pending.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) (*backend.Session, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" || password == "" {
		return nil, backend.NewAuthError("email and password are required")
	}
	return s.client.SignUp(ctx, email, password, displayName)
}

// SignOut clears the local session and profile first, so the store settles on
// ready(anonymous) within one synchronous update regardless of how the remote
// round-trip goes.
func (s *Store) SignOut(ctx context.Context) {
	s.setState(State{BackendReady: s.State().BackendReady})
	s.client.SignOut(ctx)
}

// RefreshProfile re-derives the profile and role set for the current session.
func (s *Store) RefreshProfile(ctx context.Context) {
	s.applySession(ctx, s.State().Session)
}

func (s *Store) applySession(ctx context.Context, sess *backend.Session) {
	profile, roles := s.deriveProfile(ctx, sess)
	backendReady := s.State().BackendReady
	s.setState(State{Session: sess, Profile: profile, Roles: roles, BackendReady: backendReady})
}

// deriveProfile fetches the profile record for a session. Any failure is
// treated as "no role": the user stays authenticated and only loses
// privileged access.
func (s *Store) deriveProfile(ctx context.Context, sess *backend.Session) (*Profile, []string) {
	return DeriveProfile(ctx, s.client, s.logger, sess)
}

// FetchProfile loads the stored profile record for a user.
func FetchProfile(ctx context.Context, client backend.TableClient, userID string) (*Profile, error) {
	row, err := client.SelectOne(ctx, backend.NewQuery(backend.ProfileTable, profileColumns...).Eq("id", userID))
	if err != nil {
		return nil, err
	}
	return profileFromRow(row), nil
}

// DeriveProfile resolves the profile and role set for a session. Any failure
// is logged and yields a role-less authenticated state, never an error.
func DeriveProfile(ctx context.Context, client backend.TableClient, logger core.Logger, sess *backend.Session) (*Profile, []string) {
	if sess == nil {
		return nil, []string{}
	}
	profile, err := FetchProfile(ctx, client, sess.UserID)
	if err != nil {
		logger.Warn("profile lookup failed; treating session as role-less", err)
		return nil, []string{}
	}
	if profile.Role == "" {
		return profile, []string{}
	}
	return profile, []string{profile.Role}
}

func (s *Store) setState(st State) {
	st.Loading = false

	s.mutex.Lock()
	s.state = st
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mutex.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
