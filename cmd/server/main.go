package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chainplan/chainplan/internal/blob"
	"github.com/chainplan/chainplan/internal/config"
	"github.com/chainplan/chainplan/internal/domain/project"
	"github.com/chainplan/chainplan/internal/domain/result"
	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/metrics"
	"github.com/chainplan/chainplan/internal/postgres"
	"github.com/chainplan/chainplan/internal/repository"
	"github.com/chainplan/chainplan/internal/sqlite"
	"github.com/chainplan/chainplan/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.DB.Driver, "error", err)
		os.Exit(1)
	}
	defer closeDB()

	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		logger.Error("failed to open blob store", "driver", cfg.Blob.Driver, "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	reuse := cfg.ReusePolicy()

	projectSvc := project.NewService(repos.projects, logger,
		project.WithReusePolicy(reuse), project.WithMetrics(m))
	scenarioSvc := scenario.NewService(repos.scenarios, logger,
		scenario.WithReusePolicy(reuse), scenario.WithMetrics(m))
	resultSvc := result.NewService(repos.results, blobs, logger, result.WithMetrics(m))
	history := result.NewHistory()

	handler := transport.NewServer(transport.Config{
		Services: transport.Services{
			Projects:  projectSvc,
			Scenarios: scenarioSvc,
			Results:   resultSvc,
			History:   history,
		},
		Resolver: &apiKeyResolver{repo: repos.apiKeys},
		Metrics:  m,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr, "db", cfg.DB.Driver, "blob", string(blobs.Driver()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type repos struct {
	projects  project.Repository
	scenarios scenario.Repository
	results   result.Repository
	apiKeys   repository.APIKeyRepository
}

func openStore(ctx context.Context, cfg config.Config) (*repos, func(), error) {
	switch cfg.DB.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repos{
			projects:  postgres.NewProjectRepository(db),
			scenarios: postgres.NewScenarioRepository(db),
			results:   postgres.NewResultRepository(db),
			apiKeys:   postgres.NewAPIKeyRepository(db),
		}, func() { _ = db.Close() }, nil
	default:
		if err := ensureDBDir(cfg.DB.Path); err != nil {
			return nil, nil, err
		}
		db, err := sqlite.New(cfg.DB.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repos{
			projects:  sqlite.NewProjectRepository(db),
			scenarios: sqlite.NewScenarioRepository(db),
			results:   sqlite.NewResultRepository(db),
			apiKeys:   sqlite.NewAPIKeyRepository(db),
		}, func() { _ = db.Close() }, nil
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

type apiKeyResolver struct {
	repo repository.APIKeyRepository
}

func (r *apiKeyResolver) ResolveUser(ctx context.Context, key string) (string, error) {
	userID, err := r.repo.FindUserByHash(ctx, transport.HashKey(key))
	if err != nil || userID == "" {
		return "", transport.ErrUnauthorized
	}
	return userID, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
