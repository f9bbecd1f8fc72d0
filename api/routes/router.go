package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/movies-backend/api/controllers"
	"github.com/angelmondragon/movies-backend/api/middleware"
	"github.com/angelmondragon/movies-backend/api/responses"
	"github.com/angelmondragon/movies-backend/internal/movies"
	"github.com/angelmondragon/movies-backend/internal/uploads"
	"github.com/angelmondragon/movies-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/movies-backend/pkg/errors"
	"github.com/angelmondragon/movies-backend/pkg/logger"
	"github.com/angelmondragon/movies-backend/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	movieService movies.Service,
	uploadStore *uploads.Store,
	limiter middleware.RateLimiter,
	registry *prometheus.Registry,
	dependencies map[string]controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()

	var httpMetrics *metrics.HTTPMetrics
	if registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(registry)
	}

	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.Recoverer(logg),
		middleware.CORS(),
		middleware.RateLimit(limiter, cfg.RateLimit.Window, logg),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dependencies, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Handle(uploadStore.URLPrefix()+"/*", uploadStore.Handler())

	upload := middleware.SingleUpload(uploadStore, middleware.UploadOptions{
		FieldName: cfg.Uploads.FieldName,
		MaxMemory: cfg.Uploads.MaxMemoryMB << 20,
		MaxBytes:  cfg.Uploads.MaxUploadMB << 20,
	}, logg)

	r.Route("/api/movies", func(r chi.Router) {
		r.With(upload).Post("/", controllers.CreateMovie(movieService, uploadStore, logg))
		r.Get("/", controllers.ListMovies(movieService, logg))
		r.Get("/{id}", controllers.GetMovie(movieService, logg))
		r.With(upload).Put("/{id}", controllers.UpdateMovie(movieService, uploadStore, logg))
		r.Delete("/{id}", controllers.DeleteMovie(movieService, logg))
	})

	return r
}
