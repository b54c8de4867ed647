package local

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
)

// TestUserPassword is the password of both fixture accounts.
const TestUserPassword = "123456"

var fixtureAccounts = []storedAccount{
	{ID: "test-user-001", Email: "test@example.com", DisplayName: "测试用户", Role: auth.RoleUser},
	{ID: "test-admin-001", Email: "admin@example.com", DisplayName: "测试管理员", Role: auth.RoleAdmin},
}

// SeedTestUsers writes the fixture accounts when no account list exists yet.
// It reports whether anything was written; an existing list, even an empty
// one, is never touched.
func (b *Backend) SeedTestUsers(ctx context.Context) (bool, error) {
	raw, err := b.repo.Get(ctx, keyUsers)
	if err != nil {
		return false, auth.Unavailable("load accounts", err)
	}
	if raw != nil {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(TestUserPassword), b.bcryptCost)
	if err != nil {
		return false, err
	}

	created := b.now().UTC().Format(time.RFC3339)
	accounts := make([]storedAccount, 0, len(fixtureAccounts))
	for _, a := range fixtureAccounts {
		a.Password = string(hash)
		a.CreatedAt = created
		accounts = append(accounts, a)
	}

	if err := saveAccounts(ctx, b.repo, accounts); err != nil {
		return false, auth.Unavailable("save accounts", err)
	}
	b.logger.Info(ctx, "test users initialised", "count", len(accounts))
	return true, nil
}
