package accounts

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/server/models"
	"github.com/google/uuid"
)

type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]models.Account
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{accounts: map[uuid.UUID]models.Account{}}
}

func (r *InMemoryRepository) Create(ctx context.Context, a *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[a.UID]; ok {
		return fmt.Errorf("account %s: %w", a.UID, common.ErrorAlreadyExists)
	}
	r.accounts[a.UID] = copyAccount(*a)
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, uid uuid.UUID) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[uid]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", uid, common.ErrorNotFound)
	}
	a = copyAccount(a)
	return &a, nil
}

func (r *InMemoryRepository) SetProfile(ctx context.Context, uid uuid.UUID, p models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[uid]
	if !ok {
		return fmt.Errorf("account %s: %w", uid, common.ErrorNotFound)
	}
	p.Name = append([]byte(nil), p.Name...)
	a.Profile = &p
	r.accounts[uid] = a
	return nil
}

func copyAccount(a models.Account) models.Account {
	a.Salt = append([]byte(nil), a.Salt...)
	a.Verifier = append([]byte(nil), a.Verifier...)
	if a.Profile != nil {
		p := *a.Profile
		p.Name = append([]byte(nil), p.Name...)
		a.Profile = &p
	}
	return a
}
