// Package repofake provides in-memory repository implementations for tests.
package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/autoescola/admin-service/internal/domain"
)

// FakeUserRepo is a map-backed directory store. Missing records surface as
// pgx.ErrNoRows, matching the Postgres implementation.
type FakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.UserRecord
}

// NewUserRepo returns an empty fake.
func NewUserRepo() *FakeUserRepo {
	return &FakeUserRepo{users: make(map[string]*domain.UserRecord)}
}

// Seed inserts a record directly, bypassing timestamps already set.
func (f *FakeUserRepo) Seed(user *domain.UserRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *user
	f.users[user.ID] = &copy
}

func (f *FakeUserRepo) GetByID(_ context.Context, id string) (*domain.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *user
	return &copy, nil
}

func (f *FakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *FakeUserRepo) List(_ context.Context) ([]*domain.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.UserRecord, 0, len(f.users))
	for _, user := range f.users {
		copy := *user
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeUserRepo) Create(_ context.Context, user *domain.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	copy := *user
	f.users[user.ID] = &copy
	return nil
}

func (f *FakeUserRepo) Update(_ context.Context, id string, patch domain.UserPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Active != nil {
		user.Active = *patch.Active
	}
	if patch.Unit != nil {
		user.Unit = *patch.Unit
	}
	if patch.Permissions != nil {
		user.Permissions = append([]string(nil), (*patch.Permissions)...)
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (f *FakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

// Count reports how many records exist.
func (f *FakeUserRepo) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}
