// Package identityfake provides an in-memory identity.Provider for tests.
package identityfake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autoescola/admin-service/internal/identity"
)

type account struct {
	ident    identity.Identity
	password string
	claims   identity.Claims
}

// FakeProvider is a map-backed identity.Provider.
type FakeProvider struct {
	mu          sync.Mutex
	byID        map[string]*account
	CreateCalls int
}

// New returns an empty fake provider.
func New() *FakeProvider {
	return &FakeProvider{byID: make(map[string]*account)}
}

func (f *FakeProvider) Create(_ context.Context, email, password, displayName string) (*identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	for _, acc := range f.byID {
		if acc.ident.Email == email {
			return nil, identity.ErrEmailTaken
		}
	}
	acc := &account{
		ident: identity.Identity{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: displayName,
			CreatedAt:   time.Now(),
		},
		password: password,
	}
	f.byID[acc.ident.ID] = acc
	ident := acc.ident
	return &ident, nil
}

func (f *FakeProvider) FindByEmail(_ context.Context, email string) (*identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.byID {
		if acc.ident.Email == email {
			ident := acc.ident
			return &ident, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (f *FakeProvider) GetByID(_ context.Context, id string) (*identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.byID[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	ident := acc.ident
	return &ident, nil
}

func (f *FakeProvider) UpdateDisplayName(_ context.Context, id, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.byID[id]
	if !ok {
		return identity.ErrNotFound
	}
	acc.ident.DisplayName = displayName
	return nil
}

func (f *FakeProvider) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return identity.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *FakeProvider) SetClaims(_ context.Context, id string, claims identity.Claims) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.byID[id]
	if !ok {
		return identity.ErrNotFound
	}
	acc.claims = claims
	return nil
}

func (f *FakeProvider) VerifyPassword(_ context.Context, email, password string) (*identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.byID {
		if acc.ident.Email == email {
			if acc.password != password {
				return nil, identity.ErrBadCredentials
			}
			ident := acc.ident
			return &ident, nil
		}
	}
	return nil, identity.ErrBadCredentials
}

// Claims returns the stored claims bundle for assertions.
func (f *FakeProvider) Claims(id string) identity.Claims {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.byID[id]; ok {
		return acc.claims
	}
	return nil
}

// Count reports how many identities exist.
func (f *FakeProvider) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}
