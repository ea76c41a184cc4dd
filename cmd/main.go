package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/go-entra-users/config"
	"github.com/oksasatya/go-entra-users/internal/container"
	pginfra "github.com/oksasatya/go-entra-users/internal/infrastructure/postgres"
	"github.com/oksasatya/go-entra-users/internal/infrastructure/search"
	"github.com/oksasatya/go-entra-users/internal/interface/middleware"
	"github.com/oksasatya/go-entra-users/internal/router"
	"github.com/oksasatya/go-entra-users/pkg/entra"
	"github.com/oksasatya/go-entra-users/pkg/helpers"
	"github.com/oksasatya/go-entra-users/pkg/metrics"
	"github.com/oksasatya/go-entra-users/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	metrics.Init()
	validation.Init()

	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	// Postgres
	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
		DSN:         cfg.PostgresDSN(),
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnLife: cfg.DBMaxConnLife,
		AppName:     cfg.AppName,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// Redis is optional: without it rate limits fall back to in-process buckets and the user cache is off.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		client := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable; continuing without it")
			_ = client.Close()
		} else {
			rdb = client
			defer func() { _ = client.Close() }()
		}
	}

	// RabbitMQ publisher for welcome emails
	var pub *helpers.RabbitPublisher
	if cfg.MailSendEnabled {
		pub, err = helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, cfg.AppName)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; welcome emails disabled")
		} else {
			defer pub.Close()
		}
	}

	// Elasticsearch
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(ctx, addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; search disabled")
		} else if err := search.NewUserIndex(es, cfg.ESUsersIndex).EnsureIndex(ctx); err != nil {
			logger.WithError(err).Warn("elasticsearch index not ready; search disabled")
		} else {
			container.SetES(es)
		}
	}

	// Entra ID token validation; keys refresh in the background until shutdown.
	validator, err := entra.NewValidator(ctx, entra.Config{
		Instance:  cfg.EntraInstance,
		TenantID:  cfg.EntraTenantID,
		ClientID:  cfg.EntraClientID,
		Audiences: cfg.Audiences(),
		Leeway:    cfg.EntraClockSkew,
	})
	if err != nil {
		if cfg.ProtectUserRoutes {
			log.Fatalf("failed to init entra validator: %v", err)
		}
		logger.WithError(err).Warn("entra validator unavailable; every bearer request will be rejected")
		validator = nil
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetValidator(validator)
	if pub != nil {
		container.SetRabbitPub(pub)
	}

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "Location", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if cfg.CORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins()
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Metrics())
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()
	logger.WithField("modules", reg.Names()).Info("routes registered")

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
