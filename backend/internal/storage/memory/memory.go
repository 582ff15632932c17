// Package memory is an in process account store for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ecomm-dev/accounts/shared/domain"
	"github.com/ecomm-dev/accounts/shared/errors"
	"github.com/google/uuid"
)

type Storage struct {
	mu       sync.RWMutex
	accounts map[domain.AccountId]domain.Account
	byEmail  map[domain.Email]domain.AccountId
}

func New() *Storage {
	return &Storage{
		accounts: make(map[domain.AccountId]domain.Account),
		byEmail:  make(map[domain.Email]domain.AccountId),
	}
}

func (s *Storage) CreateAccount(ctx context.Context, account domain.Account) (domain.AccountId, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[account.Email]; ok {
		return "", fmt.Errorf("email %q: %w", account.Email, errors.ErrDuplicate)
	}
	account.Id = uuid.NewString()
	s.accounts[account.Id] = clone(account)
	s.byEmail[account.Email] = account.Id
	return account.Id, nil
}

func (s *Storage) AccountByEmail(ctx context.Context, email domain.Email) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return domain.Account{}, fmt.Errorf("account with email %q: %w", email, errors.ErrNotFound)
	}
	return clone(s.accounts[id]), nil
}

func (s *Storage) AccountByID(ctx context.Context, id domain.AccountId) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, fmt.Errorf("account %s: %w", id, errors.ErrNotFound)
	}
	return clone(account), nil
}

// Count supports the email field only, the one field with a unique constraint.
func (s *Storage) Count(ctx context.Context, field, value string) (int64, error) {
	if field != "email" {
		return 0, fmt.Errorf("count by %q is not supported", field)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byEmail[value]; ok {
		return 1, nil
	}
	return 0, nil
}

// DeleteAccount removes an account, used to simulate accounts removed out of band.
func (s *Storage) DeleteAccount(ctx context.Context, id domain.AccountId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, errors.ErrNotFound)
	}
	delete(s.byEmail, account.Email)
	delete(s.accounts, id)
	return nil
}

func (s *Storage) ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

func (s *Storage) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Storage) Close(ctx context.Context) error { return nil }

// clone detaches slices and the address so callers cannot mutate stored state.
func clone(a domain.Account) domain.Account {
	if a.Phone != nil {
		a.Phone = append([]int64(nil), a.Phone...)
	}
	if a.Orders != nil {
		a.Orders = append([]string(nil), a.Orders...)
	}
	if a.Address != nil {
		address := *a.Address
		a.Address = &address
	}
	return a
}
