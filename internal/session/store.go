// Package session holds the process-wide authentication state and the only
// operations allowed to change it.
//
// A Store is created once by the composition root and shared by reference.
// Its fields are guarded by a mutex for memory safety, but overlapping
// operations are not serialized: when two run at once the last write wins.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/logging"
)

// EditPermissionChecker decides whether user may edit a poem. It is
// implemented by the catalogue service.
type EditPermissionChecker interface {
	CanEdit(ctx context.Context, user *auth.Identity, poemID string) (bool, error)
}

var errNoSession = errors.New("backend reported no session after sign-in")

type Store struct {
	backend  auth.Backend
	logger   logging.Logger
	editPerm EditPermissionChecker
	onChange func(Snapshot)

	mu       sync.Mutex
	state    State
	user     *auth.Identity
	loading  bool
	inflight int
	idle     chan struct{}
}

type Option func(*Store)

func WithEditPermissionChecker(c EditPermissionChecker) Option {
	return func(s *Store) { s.editPerm = c }
}

// WithOnChange registers fn to receive a snapshot after every transition.
// fn runs synchronously on the goroutine that caused the change.
func WithOnChange(fn func(Snapshot)) Option {
	return func(s *Store) { s.onChange = fn }
}

// NewStore returns a store in the Unknown state. Call Start to run the
// initial check.
func NewStore(backend auth.Backend, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger.With("component", "session"),
		state:   Unknown,
		loading: true,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start moves the store to Checking and resolves it in the background. The
// returned channel is closed once the check has settled.
func (s *Store) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	s.begin()
	go func() {
		defer close(done)
		var user *auth.Identity
		defer func() { s.settle(user) }()
		user = s.fetch(ctx)
	}()
	return done
}

// CheckAuth re-derives the state from the backend and returns the resolved
// identity, or nil. It never fails: backend errors are logged and the store
// becomes Anonymous.
func (s *Store) CheckAuth(ctx context.Context) *auth.Identity {
	s.begin()
	var user *auth.Identity
	defer func() { s.settle(user) }()

	user = s.fetch(ctx)
	return user.Clone()
}

// Login signs in and re-checks the session. Any failure leaves the store
// Anonymous and is returned to the caller.
func (s *Store) Login(ctx context.Context, email, password string) (*auth.Identity, error) {
	s.begin()
	var user *auth.Identity
	defer func() { s.settle(user) }()

	if _, err := s.backend.SignIn(ctx, email, password); err != nil {
		s.logger.Info(ctx, "login failed", "error", err)
		return nil, err
	}

	user = s.fetch(ctx)
	if user == nil {
		return nil, auth.Unavailable("login", errNoSession)
	}
	s.logger.Info(ctx, "logged in", "user_id", user.ID, "role", user.Role)
	return user.Clone(), nil
}

// Register creates an account. Backend errors are returned unchanged. For
// backends that sign the new account in, the session is re-checked;
// otherwise the previous state is restored.
func (s *Store) Register(ctx context.Context, email, password, displayName string, role auth.Role) error {
	prevState, prevUser := s.begin()
	restore := true
	var user *auth.Identity
	defer func() {
		if restore && (prevState == Authenticated || prevState == Anonymous) {
			s.settleTo(prevState, prevUser)
			return
		}
		if restore {
			user = prevUser
		}
		s.settle(user)
	}()

	if _, err := s.backend.SignUp(ctx, email, password, displayName, role); err != nil {
		return err
	}
	s.logger.Info(ctx, "account registered", "email", email, "auto_sign_in", s.backend.AutoSignIn())

	if s.backend.AutoSignIn() {
		restore = false
		user = s.fetch(ctx)
	}
	return nil
}

// Logout always leaves the store Anonymous. A backend sign-out failure is
// returned for information only; the local state is already cleared.
func (s *Store) Logout(ctx context.Context) error {
	s.begin()
	defer s.settle(nil)

	if err := s.backend.SignOut(ctx); err != nil {
		s.logger.Error(ctx, "backend sign-out failed", "error", err)
		return fmt.Errorf("logout: backend sign-out failed: %w", err)
	}
	s.logger.Info(ctx, "logged out")
	return nil
}

// CanEditPoem reports whether the current user may edit poemID. Checker
// failures are logged and count as no.
func (s *Store) CanEditPoem(ctx context.Context, poemID string) bool {
	snap := s.Snapshot()
	if !snap.IsAuthenticated() || s.editPerm == nil {
		return false
	}

	ok, err := s.editPerm.CanEdit(ctx, snap.User, poemID)
	if err != nil {
		s.logger.Error(ctx, "edit permission check failed", "poem_id", poemID, "error", err)
		return false
	}
	return ok
}

// WaitIdle blocks until no operation is in flight or ctx is done.
func (s *Store) WaitIdle(ctx context.Context) error {
	for {
		s.mu.Lock()
		ch := s.idle
		s.mu.Unlock()
		if ch == nil {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) State() State { return s.Snapshot().State }
func (s *Store) User() *auth.Identity { return s.Snapshot().User }
func (s *Store) IsLoading() bool { return s.Snapshot().IsLoading }
func (s *Store) IsAuthenticated() bool { return s.Snapshot().IsAuthenticated() }
func (s *Store) IsAdmin() bool { return s.Snapshot().IsAdmin() }
func (s *Store) DisplayName() string { return s.Snapshot().User.Name() }
func (s *Store) Backend() auth.Backend { return s.backend }

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, IsLoading: s.loading}
	if s.state == Authenticated {
		snap.User = s.user.Clone()
	}
	return snap
}

// fetch asks the backend for the current user, downgrading errors to nil.
func (s *Store) fetch(ctx context.Context) *auth.Identity {
	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		s.logger.Error(ctx, "auth check failed", "error", err)
		return nil
	}
	return user
}

func (s *Store) begin() (State, *auth.Identity) {
	s.mu.Lock()
	prevState, prevUser := s.state, s.user
	s.state = Checking
	s.loading = true
	s.inflight++
	if s.idle == nil {
		s.idle = make(chan struct{})
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return prevState, prevUser
}

func (s *Store) settle(user *auth.Identity) {
	if user == nil {
		s.settleTo(Anonymous, nil)
		return
	}
	s.settleTo(Authenticated, user)
}

func (s *Store) settleTo(state State, user *auth.Identity) {
	s.mu.Lock()
	s.state = state
	s.user = user.Clone()
	if state != Authenticated {
		s.user = nil
	}
	s.loading = false
	if s.inflight > 0 {
		s.inflight--
	}
	if s.inflight == 0 && s.idle != nil {
		close(s.idle)
		s.idle = nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug(context.Background(), "session state", "state", snap.State, "loading", snap.IsLoading)
	s.notify(snap)
}

func (s *Store) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
