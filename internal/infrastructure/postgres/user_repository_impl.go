package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
	"github.com/oksasatya/go-entra-users/internal/domain/repository"
)

// DBTX is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it too.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, name, email, password_hash, created_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(ctx context.Context, u *entity.User) error {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, u.Name(), u.Email(), u.PasswordHash(), u.CreatedAt()).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.AssignID(id)
	return nil
}

// Update writes name, email and password hash. created_at is never touched.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3
		WHERE id = $4
	`, u.Name(), u.Email(), u.PasswordHash(), u.ID())
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID(), err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		id        int64
		name      string
		email     string
		hash      string
		createdAt time.Time
	)
	if err := row.Scan(&id, &name, &email, &hash, &createdAt); err != nil {
		return nil, err
	}
	return entity.RestoreUser(id, name, email, hash, createdAt), nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
