package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
	"github.com/oksasatya/go-entra-users/internal/domain/repository"
)

func TestUserService_Insert(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo)

	repo.On("Insert", mock.Anything, mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*entity.User).AssignID(10) }).
		Return(nil)

	u, err := svc.Insert(context.Background(), InsertUserCommand{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), u.ID())
	assert.True(t, u.CheckPassword("secret1"))
	repo.AssertExpectations(t)
}

func TestUserService_Insert_InvalidNeverReachesRepository(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo)

	_, err := svc.Insert(context.Background(), InsertUserCommand{Name: "Al", Email: "al@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, entity.ErrInvalidName)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestUserService_Edit(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo)
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	stored := entity.RestoreUser(1, "Ana", "ana@example.com", "hash", created)

	repo.On("GetByID", mock.Anything, int64(1)).Return(stored, nil)
	repo.On("Update", mock.Anything, stored).Return(nil)

	u, err := svc.Edit(context.Background(), EditUserCommand{ID: 1, Name: "Ana Paula", Email: "ana.paula@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Paula", u.Name())
	assert.Equal(t, "ana.paula@example.com", u.Email())
	assert.Equal(t, created, u.CreatedAt())
	assert.Equal(t, "hash", u.PasswordHash())
	repo.AssertExpectations(t)
}

func TestUserService_Edit_NotFound(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo)

	repo.On("GetByID", mock.Anything, int64(404)).Return(nil, repository.ErrNotFound)

	_, err := svc.Edit(context.Background(), EditUserCommand{ID: 404, Name: "Ana", Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_Edit_InvalidEmail(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo)
	repo.On("GetByID", mock.Anything, int64(1)).
		Return(entity.RestoreUser(1, "Ana", "ana@example.com", "hash", time.Now()), nil)

	_, err := svc.Edit(context.Background(), EditUserCommand{ID: 1, Name: "Ana", Email: "invalid"})
	assert.ErrorIs(t, err, entity.ErrInvalidEmail)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_Delete(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo)

	repo.On("GetByID", mock.Anything, int64(2)).
		Return(entity.RestoreUser(2, "Bruno", "bruno@example.com", "hash", time.Now()), nil)
	repo.On("Delete", mock.Anything, int64(2)).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), 2))
	repo.AssertExpectations(t)
}

func TestUserService_Delete_NotFound(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo)
	repo.On("GetByID", mock.Anything, int64(3)).Return(nil, repository.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), 3), ErrUserNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUserService_Get_PropagatesStoreErrors(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo)
	boom := errors.New("db down")
	repo.On("GetByID", mock.Anything, int64(1)).Return(nil, boom)

	_, err := svc.Get(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
