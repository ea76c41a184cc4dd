package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
)

// ErrNotFound is returned when no row matches the given id.
var ErrNotFound = errors.New("not found")

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Insert(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
}
