package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
	"github.com/oksasatya/go-entra-users/internal/domain/service"
	"github.com/oksasatya/go-entra-users/internal/infrastructure/search"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	return NewService(service.NewUserService(repo), nil, nil, nil, 0, quietLogger()), repo
}

func TestService_InsertThenGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Insert(ctx, InsertUserRequest{Nome: "Ana", Email: "ana@example.com", Senha: "secret1"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Nome)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, created.DataCriacao, got.DataCriacao)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "senha")
	assert.NotContains(t, string(b), "secret1")
}

func TestService_InsertValidation(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Insert(context.Background(), InsertUserRequest{Nome: "Ana", Email: "ana", Senha: "secret1"})
	assert.True(t, entity.IsValidation(err))
	assert.Empty(t, repo.rows)
}

func TestService_EditMissing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Edit(context.Background(), EditUserRequest{ID: 77, Nome: "Ana", Email: "ana@example.com"})
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestService_DeleteThenList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Insert(ctx, InsertUserRequest{Nome: "Ana", Email: "ana@example.com", Senha: "secret1"})
	require.NoError(t, err)
	b, err := svc.Insert(ctx, InsertUserRequest{Nome: "Bruno", Email: "bruno@example.com", Senha: "secret2"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), service.ErrUserNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestService_SideEffectsAreBestEffort(t *testing.T) {
	repo := newMemRepo()
	idx := new(mockIndexer)
	notifier := new(mockNotifier)
	svc := NewService(service.NewUserService(repo), idx, notifier, nil, 0, quietLogger())
	ctx := context.Background()

	idx.On("Index", mock.Anything, mock.AnythingOfType("*entity.User")).Return(errors.New("es down"))
	idx.On("Remove", mock.Anything, int64(1)).Return(errors.New("es down"))
	notifier.On("UserCreated", mock.Anything, mock.AnythingOfType("*entity.User")).Return(errors.New("amqp down"))

	created, err := svc.Insert(ctx, InsertUserRequest{Nome: "Ana", Email: "ana@example.com", Senha: "secret1"})
	require.NoError(t, err)

	_, err = svc.Edit(ctx, EditUserRequest{ID: created.ID, Nome: "Ana Maria", Email: "ana@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	idx.AssertNumberOfCalls(t, "Index", 2)
	idx.AssertCalled(t, "Remove", mock.Anything, int64(1))
	notifier.AssertNumberOfCalls(t, "UserCreated", 1)
}

func TestService_Search(t *testing.T) {
	repo := newMemRepo()
	idx := new(mockIndexer)
	svc := NewService(service.NewUserService(repo), idx, nil, nil, 0, quietLogger())

	idx.On("Search", mock.Anything, "ana", 5).Return([]search.Document{
		{ID: 1, Nome: "Ana", Email: "ana@example.com", DataCriacao: "2024-01-01T00:00:00Z"},
	}, nil)

	res, err := svc.Search(context.Background(), "ana", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Ana", res[0].Nome)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), res[0].DataCriacao.UTC())

	noIndex, _ := newTestService(t)
	empty, err := noIndex.Search(context.Background(), "ana", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestService_GetUsesCacheAndEditEvicts(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := newMemRepo()
	svc := NewService(service.NewUserService(repo), nil, nil, rdb, time.Minute, quietLogger())
	ctx := context.Background()

	created, err := svc.Insert(ctx, InsertUserRequest{Nome: "Ana", Email: "ana@example.com", Senha: "secret1"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets)
	assert.True(t, mr.Exists(cacheKey(created.ID)))

	_, err = svc.Edit(ctx, EditUserRequest{ID: created.ID, Nome: "Ana Maria", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cacheKey(created.ID)))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Nome)
}
