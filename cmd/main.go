package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/ensemble/internal/agent"
	rediscache "github.com/davidbz/ensemble/internal/cache/redis"
	"github.com/davidbz/ensemble/internal/config"
	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/evaluator"
	"github.com/davidbz/ensemble/internal/http"
	"github.com/davidbz/ensemble/internal/http/middleware"
	"github.com/davidbz/ensemble/internal/model"
	"github.com/davidbz/ensemble/internal/observability"
	"github.com/davidbz/ensemble/internal/provider"
)

const shutdownTimeout = 10 * time.Second

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server, logger *zap.Logger) {
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil {
				log.Fatalf("Server failed to start: %v", err)
			}
		case sig := <-stop:
			logger.Info("shutdown signal received", zap.String("signal", sig.String()))

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				log.Fatalf("Server shutdown failed: %v", err)
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(func(logger *zap.Logger) domain.EventPublisher {
		return observability.NewEventBus(logger)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Model Manager
	if err := container.Provide(func(cfg *model.Config) *model.Manager {
		return model.NewManager(*cfg, provider.DefaultChains())
	}); err != nil {
		log.Fatalf("Failed to provide model manager: %v", err)
	}

	// Register provider families with the manager (invoked for side effects).
	// Families without credentials are skipped; the agent can still serve
	// requests against whichever backends did register.
	if err := container.Invoke(func(cfg *config.Config, mgr *model.Manager, _ *zap.Logger) {
		provider.RegisterAll(context.Background(), cfg, mgr)
	}); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	// Evaluator
	if err := container.Provide(func() domain.Evaluator {
		return evaluator.New(evaluator.DefaultWeights())
	}); err != nil {
		log.Fatalf("Failed to provide evaluator: %v", err)
	}

	// Response Cache (nil when disabled; the agent treats nil as no cache)
	if err := container.Provide(func(cfg *rediscache.Config, logger *zap.Logger) domain.ResponseCache {
		if !cfg.Enabled {
			return nil
		}
		cache := rediscache.New(*cfg)
		if err := cache.Ping(context.Background()); err != nil {
			logger.Warn("redis unreachable, cache lookups will miss", zap.Error(err))
		}
		return cache
	}); err != nil {
		log.Fatalf("Failed to provide response cache: %v", err)
	}

	// Agent
	if err := container.Provide(func(
		mgr *model.Manager,
		eval domain.Evaluator,
		cache domain.ResponseCache,
		events domain.EventPublisher,
		cfg *agent.Config,
	) *agent.Agent {
		return agent.New(mgr, eval, cache, events, *cfg)
	}); err != nil {
		log.Fatalf("Failed to provide agent: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
