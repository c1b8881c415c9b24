package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mergington-high/activities-api/internal/adapters/httpapi"
	memactivityrepo "github.com/mergington-high/activities-api/internal/adapters/memory/activityrepo"
	postgres "github.com/mergington-high/activities-api/internal/adapters/postgres"
	pgactivityrepo "github.com/mergington-high/activities-api/internal/adapters/postgres/activityrepo"
	redisactivityrepo "github.com/mergington-high/activities-api/internal/adapters/redis/activityrepo"
	"github.com/mergington-high/activities-api/internal/app/roster"
	platformclock "github.com/mergington-high/activities-api/internal/platform/clock"
	"github.com/mergington-high/activities-api/internal/platform/config"
	"github.com/mergington-high/activities-api/internal/platform/metrics"
	activityrepoport "github.com/mergington-high/activities-api/internal/ports/out/activityrepo"
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	var (
		repo    activityrepoport.Repository
		cleanup func()
	)

	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL, postgres.PoolOptions{
			MaxConns:        cfg.DatabaseMaxConns,
			MaxConnIdleTime: cfg.DatabaseMaxConnIdleTime,
			PingTimeout:     cfg.DatabasePingTimeout,
		})
		if err != nil {
			log.Fatalf("invalid postgres config: %v", err)
		}
		cleanup = pool.Close
		if err := postgres.Migrate(context.Background(), pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		repo = pgactivityrepo.NewRepo(pool)
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("redis ping %s: %v", cfg.RedisAddr, err)
		}
		cleanup = func() { _ = rdb.Close() }
		repo = redisactivityrepo.NewRepo(rdb, cfg.RedisPrefix)
	default:
		repo = memactivityrepo.NewRepo()
	}

	if cleanup != nil {
		defer cleanup()
	}

	rosterSvc := roster.NewService(repo, platformclock.NewSystemClock())
	if cfg.SeedRoster {
		if err := rosterSvc.SeedDefaults(context.Background()); err != nil {
			log.Fatalf("%v", err)
		}
	}

	api := httpapi.NewServer(rosterSvc, metrics.NewRecorder())
	handler := httpapi.NewRouter(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("api listening on :%s (storage=%s)", cfg.Port, cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
