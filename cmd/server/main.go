package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/recruit-portal/internal/account"
	"github.com/hongminglow/recruit-portal/internal/auth"
	"github.com/hongminglow/recruit-portal/internal/config"
	"github.com/hongminglow/recruit-portal/internal/logger"
	"github.com/hongminglow/recruit-portal/internal/metrics"
	"github.com/hongminglow/recruit-portal/internal/records"
	"github.com/hongminglow/recruit-portal/internal/requests"
	"github.com/hongminglow/recruit-portal/internal/server"
	"github.com/hongminglow/recruit-portal/internal/storage"
	"github.com/hongminglow/recruit-portal/internal/storage/memory"
	"github.com/hongminglow/recruit-portal/internal/storage/postgres"
	redisstore "github.com/hongminglow/recruit-portal/internal/storage/redis"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closeKV, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer closeKV()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(reg)

	store := records.New(kv,
		records.WithMaxAttempts(cfg.StoreMaxAttempts),
		records.WithConflictHook(recorder.RecordStoreConflict),
	)

	hasher, err := auth.NewPasswordHasher(cfg.PasswordStorage)
	if err != nil {
		return err
	}
	if cfg.PasswordStorage == auth.PasswordPlaintext {
		log.Warn("passwords are stored in plaintext; set PASSWORD_STORAGE=bcrypt outside of migrations")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	accounts := account.NewService(store, tokens, hasher,
		account.WithPolicy(cfg.Policy()),
		account.WithMetrics(recorder),
		account.WithLogger(log),
	)
	reqs := requests.NewService(store, accounts,
		requests.WithMetrics(recorder),
		requests.WithLogger(log),
	)

	srv := server.New(cfg, server.Deps{
		Accounts: accounts,
		Requests: reqs,
		Metrics:  recorder.Handler(),
		Logger:   log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("recruitment portal listening",
			slog.String("addr", cfg.HTTPAddress()),
			slog.String("storage", cfg.StorageBackend),
		)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		log.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// openStore selects the key-value backend and returns its cleanup func.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		s, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendRedis:
		s, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; relying on existing environment")
	}
}
