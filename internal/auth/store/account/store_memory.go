package account

import (
	"context"
	"fmt"
	"sync"

	"syncauth/internal/auth/models"
	"syncauth/pkg/platform/sentinel"
)

// Error Contract:
// - Find methods return a wrapped sentinel.ErrNotFound when no account matches
// - Infrastructure failures are returned wrapped with context

// InMemoryAccountStore keeps accounts in memory for tests and local runs.
type InMemoryAccountStore struct {
	mu    sync.RWMutex
	byUID map[string]models.Account
	byKey map[string]string
}

func New() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		byUID: make(map[string]models.Account),
		byKey: make(map[string]string),
	}
}

// Save inserts or replaces an account.
func (s *InMemoryAccountStore) Save(_ context.Context, account *models.Account) error {
	if account == nil || account.UID == "" {
		return fmt.Errorf("account uid is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byUID[account.UID]; ok && existing.HashedKey != "" {
		delete(s.byKey, existing.HashedKey)
	}
	if account.HashedKey != "" {
		if owner, ok := s.byKey[account.HashedKey]; ok && owner != account.UID {
			return fmt.Errorf("hashed key already assigned to %s", owner)
		}
		s.byKey[account.HashedKey] = account.UID
	}
	s.byUID[account.UID] = *account
	return nil
}

func (s *InMemoryAccountStore) FindByCredentialHash(_ context.Context, hashedKey string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uid, ok := s.byKey[hashedKey]; ok {
		account := s.byUID[uid]
		return &account, nil
	}
	return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryAccountStore) FindByUID(_ context.Context, uid string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if account, ok := s.byUID[uid]; ok {
		return &account, nil
	}
	return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}
