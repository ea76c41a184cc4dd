package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	userapp "github.com/oksasatya/go-entra-users/internal/application"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Insert(ctx context.Context, req userapp.InsertUserRequest) (userapp.UserResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(userapp.UserResponse), args.Error(1)
}

func (m *mockUserService) Edit(ctx context.Context, req userapp.EditUserRequest) (userapp.UserResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(userapp.UserResponse), args.Error(1)
}

func (m *mockUserService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserService) Get(ctx context.Context, id int64) (userapp.UserResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(userapp.UserResponse), args.Error(1)
}

func (m *mockUserService) List(ctx context.Context) ([]userapp.UserResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]userapp.UserResponse), args.Error(1)
}

func (m *mockUserService) Search(ctx context.Context, q string, size int) ([]userapp.UserResponse, error) {
	args := m.Called(ctx, q, size)
	return args.Get(0).([]userapp.UserResponse), args.Error(1)
}
