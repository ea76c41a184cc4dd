package application

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
	"github.com/oksasatya/go-entra-users/internal/domain/repository"
	"github.com/oksasatya/go-entra-users/internal/infrastructure/search"
)

// memRepo is an in-memory UserRepository.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*entity.User
	gets   int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[int64]*entity.User{}}
}

func (r *memRepo) Insert(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.AssignID(r.nextID)
	r.rows[u.ID()] = u
	return nil
}

func (r *memRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[u.ID()]; !ok {
		return repository.ErrNotFound
	}
	r.rows[u.ID()] = u
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	u, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return entity.RestoreUser(u.ID(), u.Name(), u.Email(), u.PasswordHash(), u.CreatedAt()), nil
}

func (r *memRepo) List(_ context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.User, 0, len(r.rows))
	for _, u := range r.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

type mockIndexer struct {
	mock.Mock
}

func (m *mockIndexer) Index(ctx context.Context, u *entity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockIndexer) Remove(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockIndexer) Search(ctx context.Context, q string, size int) ([]search.Document, error) {
	args := m.Called(ctx, q, size)
	if docs, ok := args.Get(0).([]search.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) UserCreated(ctx context.Context, u *entity.User) error {
	return m.Called(ctx, u).Error(0)
}
