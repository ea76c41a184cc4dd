package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
	"github.com/oksasatya/go-entra-users/internal/domain/repository"
)

var ErrUserNotFound = errors.New("user not found")

type InsertUserCommand struct {
	Name     string
	Email    string
	Password string
}

// EditUserCommand carries a full replacement of name and email. Password is not editable here.
type EditUserCommand struct {
	ID    int64
	Name  string
	Email string
}

// UserService holds the domain rules around the User aggregate.
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Insert(ctx context.Context, cmd InsertUserCommand) (*entity.User, error) {
	u, err := entity.NewUser(cmd.Name, cmd.Email, cmd.Password)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Edit(ctx context.Context, cmd EditUserCommand) (*entity.User, error) {
	u, err := s.Get(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := u.SetName(cmd.Name); err != nil {
		return nil, err
	}
	if err := u.SetEmail(cmd.Email); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		// row vanished between the lookup and the write
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, cmd.ID)
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrUserNotFound, id)
		}
		return err
	}
	return nil
}

// Get loads a user and fails with ErrUserNotFound when the id is absent.
func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]*entity.User, error) {
	return s.repo.List(ctx)
}
