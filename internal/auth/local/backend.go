package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/dbx"
	"github.com/dmitrijs2005/shiciyaji/internal/logging"
	"github.com/dmitrijs2005/shiciyaji/internal/repositories/metadata"
)

type Backend struct {
	db     *sql.DB
	repo   metadata.Repository
	logger logging.Logger

	now        func() time.Time
	newID      func() string
	bcryptCost int
}

type Option func(*Backend)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithIDGenerator overrides the account id source.
func WithIDGenerator(gen func() string) Option {
	return func(b *Backend) { b.newID = gen }
}

// WithBcryptCost sets the hashing cost for new passwords.
func WithBcryptCost(cost int) Option {
	return func(b *Backend) { b.bcryptCost = cost }
}

// New binds the backend to an already migrated local database
// (see metadata.OpenSQLite).
func New(db *sql.DB, logger logging.Logger, opts ...Option) *Backend {
	b := &Backend{
		db:         db,
		repo:       metadata.NewSQLiteRepository(db),
		logger:     logger.With("backend", "local"),
		now:        time.Now,
		newID:      uuid.NewString,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// SignUp stores a new account and signs it in. The account list and the
// current user are written in one transaction. An existing email fails with
// auth.ErrDuplicateAccount and leaves storage untouched.
func (b *Backend) SignUp(ctx context.Context, email, password, displayName string, role auth.Role) (*auth.Identity, error) {
	if displayName == "" {
		displayName = defaultDisplayName(email)
	}
	if role == "" {
		role = auth.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("sign up: %w", auth.ErrInvalidPassword)
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := storedAccount{
		ID:          b.newID(),
		Email:       email,
		Password:    string(hash),
		DisplayName: displayName,
		Role:        role,
		CreatedAt:   b.now().UTC().Format(time.RFC3339),
	}

	err = dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		accounts, err := loadAccounts(ctx, repo)
		if err != nil {
			return auth.Unavailable("load accounts", err)
		}
		if _, exists := findByEmail(accounts, email); exists {
			return auth.ErrDuplicateAccount
		}

		if err := saveAccounts(ctx, repo, append(accounts, account)); err != nil {
			return auth.Unavailable("save accounts", err)
		}
		if err := saveCurrent(ctx, repo, account); err != nil {
			return auth.Unavailable("save current user", err)
		}
		return nil
	})
	if err != nil {
		if auth.Kind(err) == nil {
			err = auth.Unavailable("sign up", err)
		}
		return nil, err
	}

	b.logger.Info(ctx, "account created", "user_id", account.ID, "role", account.Role)
	return account.identity(), nil
}

// SignIn makes the account matching email and password current.
func (b *Backend) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	accounts, err := loadAccounts(ctx, b.repo)
	if err != nil {
		return nil, auth.Unavailable("load accounts", err)
	}

	account, ok := findByEmail(accounts, email)
	if !ok || bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)) != nil {
		return nil, auth.ErrInvalidCredentials
	}

	if err := saveCurrent(ctx, b.repo, account); err != nil {
		return nil, auth.Unavailable("save current user", err)
	}
	return account.identity(), nil
}

// SignOut forgets the current user. Calling it without a session is fine.
func (b *Backend) SignOut(ctx context.Context) error {
	if err := b.repo.Delete(ctx, keyCurrentUser); err != nil {
		return auth.Unavailable("clear current user", err)
	}
	return nil
}

// CurrentUser returns the signed-in identity, or nil when nobody is.
func (b *Backend) CurrentUser(ctx context.Context) (*auth.Identity, error) {
	raw, err := b.repo.Get(ctx, keyCurrentUser)
	if err != nil {
		return nil, auth.Unavailable("load current user", err)
	}
	if raw == nil {
		return nil, nil
	}

	var account storedAccount
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, auth.Unavailable("decode current user", err)
	}
	return account.identity(), nil
}

func (b *Backend) AutoSignIn() bool { return true }

var _ auth.Backend = (*Backend)(nil)
