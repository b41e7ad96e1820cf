package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autoescola/admin-service/internal/domain"
)

const systemConfigKey = "sistema"

// ConfigRepository stores seed configuration documents.
type ConfigRepository interface {
	GetSystemConfig(ctx context.Context) (*domain.SystemConfig, error)
	SaveSystemConfig(ctx context.Context, cfg *domain.SystemConfig) error
}

type configRepository struct {
	pool *pgxpool.Pool
}

// NewConfigRepository returns a Postgres-backed implementation.
func NewConfigRepository(pool *pgxpool.Pool) ConfigRepository {
	return &configRepository{pool: pool}
}

type systemConfigDoc struct {
	CompanyName   string `json:"nome_empresa"`
	SystemVersion string `json:"versao_sistema"`
	KeepLogs      bool   `json:"manter_logs"`
	AutoBackup    bool   `json:"backup_automatico"`
}

func (r *configRepository) GetSystemConfig(ctx context.Context) (*domain.SystemConfig, error) {
	const query = `SELECT data, created_at, updated_at FROM system_config WHERE key=$1`

	var (
		payload []byte
		cfg     domain.SystemConfig
	)
	if err := r.pool.QueryRow(ctx, query, systemConfigKey).Scan(&payload, &cfg.ConfiguredAt, &cfg.UpdatedAt); err != nil {
		return nil, err
	}

	var doc systemConfigDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	cfg.CompanyName = doc.CompanyName
	cfg.SystemVersion = doc.SystemVersion
	cfg.KeepLogs = doc.KeepLogs
	cfg.AutoBackup = doc.AutoBackup
	return &cfg, nil
}

func (r *configRepository) SaveSystemConfig(ctx context.Context, cfg *domain.SystemConfig) error {
	payload, err := json.Marshal(systemConfigDoc{
		CompanyName:   cfg.CompanyName,
		SystemVersion: cfg.SystemVersion,
		KeepLogs:      cfg.KeepLogs,
		AutoBackup:    cfg.AutoBackup,
	})
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO system_config (key, data)
        VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET data=EXCLUDED.data, updated_at=NOW()`

	_, err = r.pool.Exec(ctx, query, systemConfigKey, payload)
	return err
}
