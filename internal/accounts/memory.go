package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/peckin/peckin/backend/go-services/internal/models"
)

// MemoryRepository keeps accounts in process memory. Used when MongoDB is not
// configured and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Account
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]*models.Account{}, byEmail: map[string]string{}}
}

func (m *MemoryRepository) Create(ctx context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[a.Email]; ok {
		return ErrDuplicateEmail
	}
	stamp(a)
	cp := *a
	m.byID[a.ID] = &cp
	m.byEmail[a.Email] = a.ID
	return nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryRepository) UpsertBySubject(ctx context.Context, a *models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, cur := range m.byID {
		if cur.Subject == a.Subject {
			if cur.Email != a.Email {
				if _, taken := m.byEmail[a.Email]; taken {
					return nil, ErrDuplicateEmail
				}
				delete(m.byEmail, cur.Email)
				m.byEmail[a.Email] = cur.ID
			}
			cur.Email = a.Email
			cur.DisplayName = a.DisplayName
			cur.UpdatedAt = now
			cp := *cur
			return &cp, nil
		}
	}
	if _, taken := m.byEmail[a.Email]; taken {
		return nil, ErrDuplicateEmail
	}
	n := &models.Account{
		ID:          uuid.NewString(),
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Subject:     a.Subject,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.byID[n.ID] = n
	m.byEmail[n.Email] = n.ID
	cp := *n
	return &cp, nil
}
