package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autoescola/admin-service/internal/domain"
)

// UserRepository defines the directory store holding one record per user.
// Records are only ever looked up by id or email.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.UserRecord, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error)
	// List returns every record. The target population is small and internal;
	// callers accept an unbounded result set.
	List(ctx context.Context) ([]*domain.UserRecord, error)
	Create(ctx context.Context, user *domain.UserRecord) error
	// Update merges only the set fields of the patch and always refreshes
	// updated_at. Returns pgx.ErrNoRows when the record is absent.
	Update(ctx context.Context, id string, patch domain.UserPatch) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, name, role, active, unit, permissions, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.UserRecord, error) {
	var user domain.UserRecord
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.Active,
		&user.Unit,
		&user.Permissions,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context) ([]*domain.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.UserRecord
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) Create(ctx context.Context, user *domain.UserRecord) error {
	const query = `
        INSERT INTO users (id, email, name, role, active, unit, permissions)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Role,
		user.Active,
		user.Unit,
		user.Permissions,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, id string, patch domain.UserPatch) error {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Name != nil {
		appendSet("name", *patch.Name)
	}
	if patch.Role != nil {
		appendSet("role", *patch.Role)
	}
	if patch.Active != nil {
		appendSet("active", *patch.Active)
	}
	if patch.Unit != nil {
		appendSet("unit", *patch.Unit)
	}
	if patch.Permissions != nil {
		appendSet("permissions", *patch.Permissions)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
