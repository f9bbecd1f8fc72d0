package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/movies-backend/internal/bootstrap"
	"github.com/angelmondragon/movies-backend/internal/cron"
	"github.com/angelmondragon/movies-backend/internal/uploads"
	"github.com/angelmondragon/movies-backend/pkg/config"
	"github.com/angelmondragon/movies-backend/pkg/instance"
	"github.com/angelmondragon/movies-backend/pkg/logger"
	"github.com/angelmondragon/movies-backend/pkg/metrics"
	"github.com/angelmondragon/movies-backend/pkg/redis"
)

const lockName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single sweep cycle and exit")
	metricsAddr := flag.String("metrics-addr", "", "optional listen address for /metrics")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg, *once, *metricsAddr); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "cron worker shutting down gracefully")
}

func run(cfg *config.Config, logg *logger.Logger, once bool, metricsAddr string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	store, err := bootstrap.OpenMovieStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close(context.Background()))
	}()

	var lock cron.Lock = cron.NewLocalLock()
	if cfg.Redis.Enabled() {
		redisClient, redisErr := redis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		redisLock, lockErr := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName+":"+cfg.App.Env), cfg.Cron.LockTTL)
		if lockErr != nil {
			return lockErr
		}
		lock = redisLock
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

	registry := prometheus.NewRegistry()
	cronMetrics := metrics.NewCronJobMetrics(registry)

	sweep, err := cron.NewOrphanUploadSweepJob(cron.OrphanUploadSweepJobParams{
		Logger:      logg,
		Files:       uploadStore,
		Images:      store.Repository,
		Metrics:     cronMetrics,
		GracePeriod: cfg.Uploads.SweepGracePeriod,
	})
	if err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweep),
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	if once {
		logg.Info(ctx, "running single cron cycle")
		return service.RunOnce(ctx)
	}

	if metricsAddr != "" {
		metricsServer := &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "metrics server stopped", err)
			}
		}()
		defer func() {
			_ = metricsServer.Close()
		}()
	}

	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}
