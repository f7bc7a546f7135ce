package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"syncauth/internal/auth/models"
)

// AccountStore is where seeded accounts are written.
type AccountStore interface {
	Save(ctx context.Context, account *models.Account) error
}

// Seeder populates the account registry for local development.
type Seeder struct {
	accounts AccountStore
	logger   *slog.Logger
}

func New(accounts AccountStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		accounts: accounts,
		logger:   logger,
	}
}

type seedAccount struct {
	UID        string `json:"uid"`
	Alias      string `json:"alias"`
	HashedKey  string `json:"hashed_key"`
	IsBanned   bool   `json:"is_banned"`
	MarkForBan bool   `json:"mark_for_ban"`
	PrimaryUID string `json:"primary_uid"`
}

// SeedFile loads a JSON array of accounts. Primaries must precede the
// secondaries that link to them.
func (s *Seeder) SeedFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var entries []seedAccount
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	accounts := make([]*models.Account, 0, len(entries))
	for _, e := range entries {
		accounts = append(accounts, &models.Account{
			UID:        e.UID,
			Alias:      e.Alias,
			HashedKey:  e.HashedKey,
			IsBanned:   e.IsBanned,
			MarkForBan: e.MarkForBan,
			PrimaryUID: e.PrimaryUID,
		})
	}
	return s.save(ctx, accounts)
}

// SeedDemo writes a primary with one secondary, plus a banned primary with a
// secondary, so both the clean and the propagated-ban paths can be exercised.
func (s *Seeder) SeedDemo(ctx context.Context) (int, error) {
	return s.save(ctx, []*models.Account{
		{UID: "demo-primary", Alias: "demo", HashedKey: "demo-primary-key"},
		{UID: "demo-secondary", Alias: "demo-alt", HashedKey: "demo-secondary-key", PrimaryUID: "demo-primary"},
		{UID: "demo-banned", Alias: "banned", HashedKey: "demo-banned-key", IsBanned: true},
		{UID: "demo-banned-alt", Alias: "banned-alt", HashedKey: "demo-banned-alt-key", PrimaryUID: "demo-banned"},
	})
}

func (s *Seeder) save(ctx context.Context, accounts []*models.Account) (int, error) {
	for i, account := range accounts {
		if account.UID == "" || account.HashedKey == "" {
			return i, fmt.Errorf("seed account %d: uid and hashed_key are required", i)
		}
		if err := s.accounts.Save(ctx, account); err != nil {
			return i, fmt.Errorf("seed account %s: %w", account.UID, err)
		}
	}
	s.logger.InfoContext(ctx, "seeded accounts", "count", len(accounts))
	return len(accounts), nil
}
