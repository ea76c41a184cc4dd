package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-entra-users/config"
	"github.com/oksasatya/go-entra-users/internal/domain/service"
	pginfra "github.com/oksasatya/go-entra-users/internal/infrastructure/postgres"
	"github.com/oksasatya/go-entra-users/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{DSN: cfg.PostgresDSN(), MaxConns: 2, AppName: cfg.AppName + "-seed"})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := service.NewUserService(pginfra.NewUserRepository(pool))

	demo := []service.InsertUserCommand{
		{Name: "Usuario Demo", Email: "demo@example.com", Password: "password123"},
		{Name: "Ana Souza", Email: "ana.souza@example.com", Password: "password123"},
	}
	for _, cmd := range demo {
		u, err := users.Insert(ctx, cmd)
		if err != nil {
			log.Fatalf("failed to seed %s: %v", cmd.Email, err)
		}
		logger.WithField("id", u.ID()).WithField("email", u.Email()).Info("seeded user")
	}
}
