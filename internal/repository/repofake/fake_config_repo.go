package repofake

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/autoescola/admin-service/internal/domain"
)

// FakeConfigRepo is an in-memory ConfigRepository.
type FakeConfigRepo struct {
	mu        sync.Mutex
	cfg       *domain.SystemConfig
	SaveCalls int
}

// NewConfigRepo returns an empty fake.
func NewConfigRepo() *FakeConfigRepo {
	return &FakeConfigRepo{}
}

func (f *FakeConfigRepo) GetSystemConfig(_ context.Context) (*domain.SystemConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg == nil {
		return nil, pgx.ErrNoRows
	}
	copy := *f.cfg
	return &copy, nil
}

func (f *FakeConfigRepo) SaveSystemConfig(_ context.Context, cfg *domain.SystemConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SaveCalls++
	copy := *cfg
	if copy.ConfiguredAt.IsZero() {
		copy.ConfiguredAt = time.Now()
	}
	copy.UpdatedAt = time.Now()
	f.cfg = &copy
	return nil
}
