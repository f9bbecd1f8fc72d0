package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/movies-backend/api"
	"github.com/angelmondragon/movies-backend/api/controllers"
	"github.com/angelmondragon/movies-backend/api/middleware"
	"github.com/angelmondragon/movies-backend/api/routes"
	"github.com/angelmondragon/movies-backend/internal/bootstrap"
	"github.com/angelmondragon/movies-backend/internal/movies"
	"github.com/angelmondragon/movies-backend/internal/uploads"
	"github.com/angelmondragon/movies-backend/pkg/config"
	"github.com/angelmondragon/movies-backend/pkg/instance"
	"github.com/angelmondragon/movies-backend/pkg/logger"
	"github.com/angelmondragon/movies-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenMovieStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close(context.Background()))
	}()

	dependencies := map[string]controllers.Pinger{"database": store.Pinger}

	var limiter middleware.RateLimiter
	if cfg.Redis.Enabled() {
		redisClient, redisErr := redis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		dependencies["redis"] = redisClient
		if cfg.RateLimit.Enabled() {
			limiter = middleware.NewRedisRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	} else if cfg.RateLimit.Enabled() {
		limiter = middleware.NewLocalRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	uploadStore, err := uploads.NewStore(uploads.Options{
		Dir:       cfg.Uploads.Dir,
		URLPrefix: cfg.Uploads.URLPrefix,
		Logger:    logg,
	})
	if err != nil {
		return err
	}
	if _, err := uploadStore.EnsureDir(ctx); err != nil {
		return err
	}

	movieService, err := movies.NewService(store.Repository, uploadStore, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := api.NewServer(cfg, routes.NewRouter(cfg, logg, movieService, uploadStore, limiter, registry, dependencies))

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     server.Addr,
		"driver":   cfg.DB.Driver,
		"instance": instance.GetID(),
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
