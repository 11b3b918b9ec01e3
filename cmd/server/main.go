package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/app"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/config"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/database"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/httpserver"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/hub"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/logging"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/relay"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *goredis.Client {
	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", "error", err)
		os.Exit(1)
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	return client
}

func runGracefulShutdown(srv *httpserver.Server, eventHub *hub.Hub, eventRelay *relay.Relay) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if eventRelay != nil {
			eventRelay.Stop()
		}
		eventHub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	projectRepo := database.NewProjectRepo(pool, cfg.LockTimeout)
	teamRepo := database.NewTeamRepo(pool)
	milestoneRepo := database.NewMilestoneRepo(pool)
	auditRepo := database.NewAuditRepo(pool)

	eventHub := hub.New(cfg.SubscriberInboxCapacity, clock)

	healthChecks := []httpserver.HealthCheck{
		{Name: "database", Check: pool.Ping},
	}
	publishers := []domain.EventPublisher{eventHub}

	// Redis is optional: without it events stay instance-local.
	var eventRelay *relay.Relay
	if cfg.RedisURL != "" {
		redisClient := setupRedis(cfg)
		defer func() { _ = redisClient.Close() }()

		eventRelay = relay.New(redisClient, eventHub)
		eventRelay.Start(context.Background())

		publishers = append(publishers, eventRelay)
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	} else {
		slog.Info("REDIS_URL not set, running without cross-instance event relay")
	}

	appSvc := app.NewService(projectRepo, teamRepo, milestoneRepo, auditRepo, clock, publishers...)

	srv := httpserver.NewServer(cfg, appSvc, eventHub, healthChecks)

	done := runGracefulShutdown(srv, eventHub, eventRelay)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
