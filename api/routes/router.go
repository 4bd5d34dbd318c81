package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/settlement-archiver/api/controllers"
	"github.com/angelmondragon/settlement-archiver/api/middleware"
	"github.com/angelmondragon/settlement-archiver/pkg/config"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
)

type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	Replayer     controllers.SettlementReplayer
	Dependencies []controllers.Dependency
	// Gatherer backs /metrics; the route is omitted when nil.
	Gatherer prometheus.Gatherer
	// Compare defaults to a constant-time comparison.
	Compare middleware.SecretComparer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Dependencies...))
	})

	if p.Gatherer != nil && cfg.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminBasicAuth(cfg.Admin.Secret, p.Compare, logg))
		r.Post("/settlements/replay", controllers.AdminReplaySettlements(p.Replayer, logg))
	})

	return r
}
