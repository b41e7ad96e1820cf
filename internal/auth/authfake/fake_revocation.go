// Package authfake provides in-memory auth collaborators for tests.
package authfake

import (
	"context"
	"strings"
	"sync"
)

// FakeRevocationList is a map-backed auth.RevocationList.
type FakeRevocationList struct {
	mu      sync.Mutex
	revoked map[string]bool
}

// NewRevocationList returns an empty fake.
func NewRevocationList() *FakeRevocationList {
	return &FakeRevocationList{revoked: make(map[string]bool)}
}

func (f *FakeRevocationList) Revoke(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// callers may hand over request-scoped strings; keep an owned copy
	f.revoked[strings.Clone(userID)] = true
	return nil
}

func (f *FakeRevocationList) Unrevoke(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.revoked, userID)
	return nil
}

func (f *FakeRevocationList) IsRevoked(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[userID], nil
}
