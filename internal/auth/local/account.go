package local

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/repositories/metadata"
)

const (
	keyUsers       = "local_users"
	keyCurrentUser = "current_user"
)

// storedAccount is the persisted account record. Password holds a bcrypt
// hash and is never copied into current_user.
type storedAccount struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Password    string    `json:"password,omitempty"`
	DisplayName string    `json:"displayName"`
	Role        auth.Role `json:"role"`
	CreatedAt   string    `json:"createdAt"`
}

func (a storedAccount) identity() *auth.Identity {
	return &auth.Identity{
		ID:          a.ID,
		Email:       a.Email,
		Role:        auth.ParseRole(string(a.Role)),
		DisplayName: a.DisplayName,
	}
}

func loadAccounts(ctx context.Context, repo metadata.Repository) ([]storedAccount, error) {
	raw, err := repo.Get(ctx, keyUsers)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var accounts []storedAccount
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyUsers, err)
	}
	return accounts, nil
}

func saveAccounts(ctx context.Context, repo metadata.Repository, accounts []storedAccount) error {
	raw, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode %s: %w", keyUsers, err)
	}
	return repo.Set(ctx, keyUsers, raw)
}

func saveCurrent(ctx context.Context, repo metadata.Repository, a storedAccount) error {
	a.Password = ""
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode %s: %w", keyCurrentUser, err)
	}
	return repo.Set(ctx, keyCurrentUser, raw)
}

func findByEmail(accounts []storedAccount, email string) (storedAccount, bool) {
	for _, a := range accounts {
		if a.Email == email {
			return a, true
		}
	}
	return storedAccount{}, false
}

// defaultDisplayName is the part of email before the first "@".
func defaultDisplayName(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
