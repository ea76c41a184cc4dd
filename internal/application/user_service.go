package application

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
	"github.com/oksasatya/go-entra-users/internal/domain/service"
	"github.com/oksasatya/go-entra-users/internal/infrastructure/search"
	"github.com/oksasatya/go-entra-users/pkg/helpers"
	"github.com/oksasatya/go-entra-users/pkg/metrics"
)

// Indexer keeps the search copy of users in sync.
type Indexer interface {
	Index(ctx context.Context, u *entity.User) error
	Remove(ctx context.Context, id int64) error
	Search(ctx context.Context, q string, size int) ([]search.Document, error)
}

// Notifier is told about newly created users.
type Notifier interface {
	UserCreated(ctx context.Context, u *entity.User) error
}

// Service is the use-case layer behind the /api/usuarios handlers.
// Index, Notifier and Redis are optional; their failures are logged and never fail a call.
type Service struct {
	Users    *service.UserService
	Index    Indexer
	Notifier Notifier
	Redis    *redis.Client
	CacheTTL time.Duration
	Logger   *logrus.Logger
}

func NewService(users *service.UserService, index Indexer, notifier Notifier, rdb *redis.Client, cacheTTL time.Duration, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		Users:    users,
		Index:    index,
		Notifier: notifier,
		Redis:    rdb,
		CacheTTL: cacheTTL,
		Logger:   logger,
	}
}

func cacheKey(id int64) string {
	return "usuario:" + strconv.FormatInt(id, 10)
}

func (s *Service) Insert(ctx context.Context, req InsertUserRequest) (UserResponse, error) {
	u, err := s.Users.Insert(ctx, ToInsertCommand(req))
	metrics.ObserveUserOp("insert", err)
	if err != nil {
		return UserResponse{}, err
	}
	s.Logger.WithField("user_id", u.ID()).Info("user created")

	s.index(ctx, u)
	if s.Notifier != nil {
		if nErr := s.Notifier.UserCreated(ctx, u); nErr != nil {
			s.Logger.WithError(nErr).WithField("user_id", u.ID()).Warn("welcome notification failed")
		}
	}
	return ToUserResponse(u), nil
}

func (s *Service) Edit(ctx context.Context, req EditUserRequest) (UserResponse, error) {
	u, err := s.Users.Edit(ctx, ToEditCommand(req))
	metrics.ObserveUserOp("edit", err)
	if err != nil {
		return UserResponse{}, err
	}
	s.Logger.WithField("user_id", u.ID()).Info("user updated")

	s.evict(ctx, u.ID())
	s.index(ctx, u)
	return ToUserResponse(u), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.Users.Delete(ctx, id)
	metrics.ObserveUserOp("delete", err)
	if err != nil {
		return err
	}
	s.Logger.WithField("user_id", id).Info("user deleted")

	s.evict(ctx, id)
	if s.Index != nil {
		if iErr := s.Index.Remove(ctx, id); iErr != nil {
			s.Logger.WithError(iErr).WithField("user_id", id).Warn("search index remove failed")
		}
	}
	return nil
}

// Get reads through the Redis cache when one is configured.
func (s *Service) Get(ctx context.Context, id int64) (UserResponse, error) {
	if s.Redis != nil {
		var cached UserResponse
		ok, err := helpers.RedisGetJSON(ctx, s.Redis, cacheKey(id), &cached)
		if err != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("user cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	u, err := s.Users.Get(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}
	resp := ToUserResponse(u)

	if s.Redis != nil && s.CacheTTL > 0 {
		if err := helpers.RedisSetJSON(ctx, s.Redis, cacheKey(id), resp, s.CacheTTL); err != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("user cache write failed")
		}
	}
	return resp, nil
}

func (s *Service) List(ctx context.Context) ([]UserResponse, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	return ToUserResponses(users), nil
}

// Search queries the search index. Without an index it returns an empty slice.
func (s *Service) Search(ctx context.Context, q string, size int) ([]UserResponse, error) {
	if s.Index == nil {
		return []UserResponse{}, nil
	}
	docs, err := s.Index.Search(ctx, q, size)
	if err != nil {
		return nil, err
	}
	out := make([]UserResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDocument(d))
	}
	return out, nil
}

func (s *Service) index(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID()).Warn("search index failed")
	}
}

func (s *Service) evict(ctx context.Context, id int64) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, cacheKey(id)); err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("user cache evict failed")
	}
}
