package hosted

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/logging"
	"github.com/dmitrijs2005/shiciyaji/internal/repositories/metadata"
)

const keySession = "hosted_session"

type Backend struct {
	provider Provider
	repo     metadata.Repository
	logger   logging.Logger
	now      func() time.Time
}

type Option func(*Backend)

func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

func New(provider Provider, repo metadata.Repository, logger logging.Logger, opts ...Option) *Backend {
	b := &Backend{
		provider: provider,
		repo:     repo,
		logger:   logger.With("backend", "hosted"),
		now:      time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func identityFrom(u *ProviderUser) *auth.Identity {
	if u == nil {
		return nil
	}
	return &auth.Identity{
		ID:          u.ID,
		Email:       u.Email,
		Role:        auth.ParseRole(u.Metadata.Role),
		DisplayName: u.Metadata.DisplayName,
	}
}

// SignUp registers with the provider. A provider that wants the address
// confirmed first yields auth.ErrVerificationRequired. When the email is
// already registered the same credentials are tried against it:
// auth.ErrDuplicateAccount means they are valid and the caller should sign
// in, auth.ErrRegistrationRequiresCredentials means they are not.
func (b *Backend) SignUp(ctx context.Context, email, password, displayName string, role auth.Role) (*auth.Identity, error) {
	if role == "" {
		role = auth.RoleUser
	}
	meta := UserMetadata{DisplayName: displayName, Role: string(role)}

	user, sess, err := b.provider.SignUp(ctx, email, password, meta)
	if err != nil {
		cerr := Classify(err)
		if !errors.Is(cerr, auth.ErrDuplicateAccount) {
			return nil, cerr
		}
		return nil, b.probeExisting(ctx, email, password)
	}

	if sess == nil || sess.AccessToken == "" {
		b.logger.Info(ctx, "sign-up awaits email confirmation", "email", email)
		return nil, auth.ErrVerificationRequired
	}
	if sess.User == nil {
		sess.User = user
	}
	if err := b.saveSession(ctx, sess); err != nil {
		return nil, err
	}
	return identityFrom(sess.User), nil
}

// probeExisting signs in with the sign-up credentials to tell a repeated
// registration apart from a stranger's address. A session obtained here is
// released, not kept.
func (b *Backend) probeExisting(ctx context.Context, email, password string) error {
	sess, err := b.provider.SignInWithPassword(ctx, email, password)
	if err == nil {
		if sess == nil {
			return auth.ErrDuplicateAccount
		}
		if err := b.provider.SignOut(ctx, sess.AccessToken); err != nil {
			b.logger.Warn(ctx, "release probe session", "error", err)
		}
		return auth.ErrDuplicateAccount
	}

	cerr := Classify(err)
	if errors.Is(cerr, auth.ErrInvalidCredentials) {
		return fmt.Errorf("%w: %w", auth.ErrRegistrationRequiresCredentials, err)
	}
	return cerr
}

func (b *Backend) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	sess, err := b.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, Classify(err)
	}

	if sess.User == nil {
		u, err := b.provider.GetUser(ctx, sess.AccessToken)
		if err != nil {
			return nil, Classify(err)
		}
		sess.User = u
	}

	if err := b.saveSession(ctx, sess); err != nil {
		return nil, err
	}
	return identityFrom(sess.User), nil
}

// SignOut drops the stored session and then revokes it upstream. Revocation
// failures are reported but the local session is already gone.
func (b *Backend) SignOut(ctx context.Context) error {
	sess, err := b.loadSession(ctx)
	if err != nil {
		b.logger.Warn(ctx, "unreadable stored session", "error", err)
	}
	if err := b.dropSession(ctx); err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	if err := b.provider.SignOut(ctx, sess.AccessToken); err != nil && !isUnauthorized(err) {
		return fmt.Errorf("revoke session: %w", Classify(err))
	}
	return nil
}

// CurrentUser resolves the stored session, refreshing an expired access
// token first. A session the provider rejects is dropped and reported as
// no session. Transient provider failures keep the session for a retry.
func (b *Backend) CurrentUser(ctx context.Context) (*auth.Identity, error) {
	sess, err := b.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	if sess.expired(b.now()) {
		sess, err = b.refresh(ctx, sess)
		if err != nil || sess == nil {
			return nil, err
		}
	}

	user, err := b.provider.GetUser(ctx, sess.AccessToken)
	if err != nil {
		if isUnauthorized(err) {
			b.logger.Info(ctx, "stored session rejected", "error", err)
			return nil, b.dropSession(ctx)
		}
		return nil, Classify(err)
	}

	if sess.User == nil || *identityFrom(sess.User) != *identityFrom(user) {
		sess.User = user
		if err := b.saveSession(ctx, sess); err != nil {
			return nil, err
		}
	}
	return identityFrom(user), nil
}

func (b *Backend) refresh(ctx context.Context, sess *ProviderSession) (*ProviderSession, error) {
	if sess.RefreshToken == "" {
		return nil, b.dropSession(ctx)
	}

	fresh, err := b.provider.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		cerr := Classify(err)
		if errors.Is(cerr, auth.ErrBackendUnavailable) {
			return nil, cerr
		}
		b.logger.Info(ctx, "refresh rejected, dropping session", "error", err)
		return nil, b.dropSession(ctx)
	}

	if fresh.User == nil {
		fresh.User = sess.User
	}
	if err := b.saveSession(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (b *Backend) AutoSignIn() bool { return false }

func (b *Backend) loadSession(ctx context.Context) (*ProviderSession, error) {
	raw, err := b.repo.Get(ctx, keySession)
	if err != nil {
		return nil, auth.Unavailable("load session", err)
	}
	if raw == nil {
		return nil, nil
	}
	var s ProviderSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, auth.Unavailable("decode session", err)
	}
	return &s, nil
}

func (b *Backend) saveSession(ctx context.Context, s *ProviderSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := b.repo.Set(ctx, keySession, raw); err != nil {
		return auth.Unavailable("save session", err)
	}
	return nil
}

func (b *Backend) dropSession(ctx context.Context) error {
	if err := b.repo.Delete(ctx, keySession); err != nil {
		return auth.Unavailable("drop session", err)
	}
	return nil
}

var _ auth.Backend = (*Backend)(nil)
