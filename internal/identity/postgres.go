package identity

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// pgProvider stores identities in Postgres.
type pgProvider struct {
	pool       *pgxpool.Pool
	bcryptCost int
}

// NewPostgresProvider returns a Postgres-backed identity provider.
func NewPostgresProvider(pool *pgxpool.Pool, bcryptCost int) Provider {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &pgProvider{pool: pool, bcryptCost: bcryptCost}
}

func (p *pgProvider) Create(ctx context.Context, email, password, displayName string) (*Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, err
	}

	const query = `
        INSERT INTO identities (id, email, display_name, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	ident := &Identity{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
	}
	if err := p.pool.QueryRow(ctx, query, ident.ID, email, displayName, string(hash)).Scan(&ident.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return ident, nil
}

func (p *pgProvider) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	const query = `
        SELECT id, email, display_name, created_at
        FROM identities WHERE email=$1`

	var ident Identity
	if err := p.pool.QueryRow(ctx, query, email).Scan(
		&ident.ID, &ident.Email, &ident.DisplayName, &ident.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ident, nil
}

func (p *pgProvider) GetByID(ctx context.Context, id string) (*Identity, error) {
	const query = `
        SELECT id, email, display_name, created_at
        FROM identities WHERE id=$1`

	var ident Identity
	if err := p.pool.QueryRow(ctx, query, id).Scan(
		&ident.ID, &ident.Email, &ident.DisplayName, &ident.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ident, nil
}

func (p *pgProvider) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	const query = `UPDATE identities SET display_name=$1 WHERE id=$2`

	cmd, err := p.pool.Exec(ctx, query, displayName, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgProvider) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM identities WHERE id=$1`

	cmd, err := p.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgProvider) SetClaims(ctx context.Context, id string, claims Claims) error {
	payload, err := json.Marshal(claims)
	if err != nil {
		return err
	}

	const query = `UPDATE identities SET claims=$1 WHERE id=$2`

	cmd, err := p.pool.Exec(ctx, query, payload, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgProvider) VerifyPassword(ctx context.Context, email, password string) (*Identity, error) {
	const query = `
        SELECT id, email, display_name, password_hash, created_at
        FROM identities WHERE email=$1`

	var (
		ident Identity
		hash  string
	)
	if err := p.pool.QueryRow(ctx, query, email).Scan(
		&ident.ID, &ident.Email, &ident.DisplayName, &hash, &ident.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &ident, nil
}
