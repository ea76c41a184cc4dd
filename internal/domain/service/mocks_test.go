package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Insert(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepository) Update(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*entity.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]*entity.User, error) {
	args := m.Called(ctx)
	if us, ok := args.Get(0).([]*entity.User); ok {
		return us, args.Error(1)
	}
	return nil, args.Error(1)
}
