package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/go-link-gate/internal/models"
)

var _ Store = (*MemoryStorage)(nil)

// MemoryStorage keeps everything in process memory. Links are appended in
// creation order, so a forward scan meets the oldest link first.
type MemoryStorage struct {
	mu       sync.RWMutex
	links    []*models.Link
	byID     map[string]int
	byOwner  map[string]int
	accounts map[string]*models.Account
	visits   []models.Visit
	now      func() time.Time
}

func CreateMemoryStorage() (*MemoryStorage, error) {
	return &MemoryStorage{
		byID:     make(map[string]int),
		byOwner:  make(map[string]int),
		accounts: make(map[string]*models.Account),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func ownerKey(owner, code string) string {
	return owner + "\x00" + code
}

func (m *MemoryStorage) CreateLink(_ context.Context, owner, code, destination string) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ownerKey(owner, code)
	if _, exists := m.byOwner[key]; exists {
		return nil, ErrDuplicate
	}

	l := &models.Link{
		ID:          uuid.NewString(),
		Owner:       owner,
		Code:        code,
		Destination: destination,
		Created:     m.now(),
	}
	m.links = append(m.links, l)
	m.byID[l.ID] = len(m.links) - 1
	m.byOwner[key] = len(m.links) - 1

	res := *l
	return &res, nil
}

func (m *MemoryStorage) FindByCode(_ context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.links {
		if l.Code == code {
			res := *l
			return &res, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStorage) FindByOwnerAndCode(_ context.Context, owner, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, exists := m.byOwner[ownerKey(owner, code)]
	if !exists {
		return nil, ErrNotFound
	}
	res := *m.links[idx]
	return &res, nil
}

func (m *MemoryStorage) IncrementClicks(_ context.Context, linkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, exists := m.byID[linkID]
	if !exists {
		return ErrNotFound
	}
	m.links[idx].Clicks++
	return nil
}

func (m *MemoryStorage) ListByOwner(_ context.Context, owner string) ([]models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]models.Link, 0)
	for i := len(m.links) - 1; i >= 0; i-- {
		if m.links[i].Owner == owner {
			res = append(res, *m.links[i])
		}
	}
	return res, nil
}

func (m *MemoryStorage) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.links {
		if l.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStorage) CreateAccount(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[a.Name]; exists {
		return ErrDuplicate
	}
	acc := *a
	if acc.Created.IsZero() {
		acc.Created = m.now()
	}
	m.accounts[a.Name] = &acc
	return nil
}

func (m *MemoryStorage) FindByName(_ context.Context, name string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, exists := m.accounts[name]
	if !exists {
		return nil, ErrNotFound
	}
	res := *a
	return &res, nil
}

// ListAccounts returns all accounts, oldest first.
func (m *MemoryStorage) ListAccounts(_ context.Context) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		res = append(res, *a)
	}
	sortAccounts(res)
	return res, nil
}

func (m *MemoryStorage) SetApproved(_ context.Context, name string, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, exists := m.accounts[name]
	if !exists {
		return ErrNotFound
	}
	a.Approved = approved
	return nil
}

func (m *MemoryStorage) SetPlan(_ context.Context, name string, plan models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, exists := m.accounts[name]
	if !exists {
		return ErrNotFound
	}
	a.Plan = plan
	return nil
}

func (m *MemoryStorage) DeleteAccount(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[name]; !exists {
		return ErrNotFound
	}
	delete(m.accounts, name)
	return nil
}

func (m *MemoryStorage) SaveVisits(_ context.Context, visits []models.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.visits = append(m.visits, visits...)
	return nil
}

// Visits returns a copy of the journal.
func (m *MemoryStorage) Visits() []models.Visit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]models.Visit(nil), m.visits...)
}

func (m *MemoryStorage) PingContext(_ context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
