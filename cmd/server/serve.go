package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/api"
	"github.com/honeynil/CoinLedgerService/internal/config"
	"github.com/honeynil/CoinLedgerService/internal/handler"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/kafka"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/redis"
	"github.com/honeynil/CoinLedgerService/internal/observability"
	"github.com/honeynil/CoinLedgerService/internal/repository"
	"github.com/honeynil/CoinLedgerService/internal/repository/memory"
	"github.com/honeynil/CoinLedgerService/internal/repository/postgres"
	service "github.com/honeynil/CoinLedgerService/internal/services"
	"golang.org/x/sync/errgroup"
)

type repositories struct {
	users         repository.UserRepository
	transactions  repository.TransactionRepository
	rules         repository.RuleRepository
	alerts        repository.AlertRepository
	notifications repository.NotificationRepository
	goals         repository.GoalRepository
	analytics     repository.AnalyticsRepository
	close         func() error
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.StorageDriver == config.DriverMemory {
		store := memory.NewStore()
		slog.Warn("using in-memory storage, data is lost on restart")
		return &repositories{
			users:         store.Users(),
			transactions:  store.Transactions(),
			rules:         store.Rules(),
			alerts:        store.Alerts(),
			notifications: store.Notifications(),
			goals:         store.Goals(),
			analytics:     store.Analytics(),
			close:         func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return postgresRepositories(db), nil
}

func postgresRepositories(db *sql.DB) *repositories {
	return &repositories{
		users:         postgres.NewUserRepository(db),
		transactions:  postgres.NewTransactionRepository(db),
		rules:         postgres.NewRuleRepository(db),
		alerts:        postgres.NewAlertRepository(db),
		notifications: postgres.NewNotificationRepository(db),
		goals:         postgres.NewGoalRepository(db),
		analytics:     postgres.NewAnalyticsRepository(db),
		close:         db.Close,
	}
}

func openRedis(ctx context.Context, cfg *config.Config) (redis.RedisClient, error) {
	if cfg.StorageDriver == config.DriverMemory {
		return redis.NewMemoryClient(), nil
	}
	client, err := redis.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	shutdownTracing := observability.Setup(serviceName, cfg.LogLevel, cfg.OTLPEndpoint)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Error("failed to shut down tracing", "error", err)
		}
	}()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var producer kafka.KafkaProducer
	if cfg.KafkaEnabled {
		p := kafka.NewProducer(cfg.KafkaBrokers)
		defer p.Close()
		producer = p
	}

	ledger := service.NewLedgerService(repos.transactions, producer, cfg.KafkaLedgerTopic)
	engine := service.NewRuleEngine(repos.rules, ledger, redisClient)
	users := service.NewUserService(repos.users, engine, redisClient)
	if err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	h := handler.NewHandler(handler.Services{
		Ledger:    ledger,
		Rules:     engine,
		Dashboard: service.NewDashboardService(repos.analytics, repos.goals, redisClient, cfg.StatsCacheTTL),
		Alerts: service.NewAlertService(repos.analytics, repos.alerts, service.AlertConfig{
			Limit:           cfg.AlertLimit,
			AwardSpike:      cfg.AlertAwardSpike,
			SignupMilestone: cfg.AlertSignupMilestone,
		}),
		Users:         users,
		Auth:          service.NewAuthService(repos.users, redisClient, engine, cfg.JWTSecret, cfg.TokenTTL),
		Notifications: service.NewNotificationService(repos.notifications),
		Profile:       service.NewProfileService(repos.users, engine),
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.SetupRouter(h, redisClient, cfg.JWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	eg, groupCtx := errgroup.WithContext(sigCtx)

	eg.Go(func() error {
		slog.Info("starting server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.KafkaEnabled {
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaActionsTopic, serviceName, engine)
		defer consumer.Close()
		eg.Go(func() error {
			slog.Info("consuming action events", "topic", cfg.KafkaActionsTopic)
			return consumer.Consume(groupCtx)
		})
	}

	eg.Go(func() error {
		<-groupCtx.Done()
		slog.Info("server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func migrate(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()
	return postgres.Migrate(ctx, db)
}
