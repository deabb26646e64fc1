package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/radiusdt/dsp-console/internal/models"
)

// InMemoryUserRepo stores accounts in a map keyed by id.
type InMemoryUserRepo struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*models.User
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{users: make(map[int64]*models.User)}
}

func (r *InMemoryUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) || strings.EqualFold(existing.Username, u.Username) {
			return fmt.Errorf("user %q already exists: %w", u.Username, models.ErrConflict)
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *InMemoryUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *InMemoryUserRepo) GetByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", login, models.ErrNotFound)
}

func (r *InMemoryUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	u.PasswordHash = hash
	return nil
}

func (r *InMemoryUserRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[u.ID]
	if !ok {
		return fmt.Errorf("user %d: %w", u.ID, models.ErrNotFound)
	}
	for id, existing := range r.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("email %q already in use: %w", u.Email, models.ErrConflict)
		}
	}
	cp := *u
	cp.Username = current.Username
	cp.PasswordHash = current.PasswordHash
	cp.Manager = current.Manager
	cp.CreatedAt = current.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = &cp
	u.UpdatedAt = cp.UpdatedAt
	return nil
}

func (r *InMemoryUserRepo) List(_ context.Context, page, pageSize int) ([]*models.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*models.User{}, len(all), nil
	}
	end := min(start+pageSize, len(all))
	return all[start:end], len(all), nil
}
