package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/events"
	"github.com/habbes/sandstorm/internal/process"
	"github.com/habbes/sandstorm/internal/sandbox"
)

// RouterConfig holds the dependencies needed to build the HTTP router,
// populated in main after all components are initialized.
type RouterConfig struct {
	Sandboxes *sandbox.Registry
	Processes *process.Service
	Events    *events.Hub // nil disables /api/events
	Logger    *zap.Logger
}

// NewRouter builds the fully configured Chi router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	sandboxHandler := NewSandboxHandler(cfg.Sandboxes, cfg.Logger)
	commandHandler := NewCommandHandler(cfg.Sandboxes, cfg.Processes, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sandboxes", func(r chi.Router) {
			r.Post("/", sandboxHandler.Create)
			r.Get("/", sandboxHandler.List)
			r.Get("/{id}", sandboxHandler.Get)
			r.Delete("/{id}", sandboxHandler.Delete)

			r.Route("/{id}/commands", func(r chi.Router) {
				r.Post("/", commandHandler.Submit)
				r.Get("/{pid}/status", commandHandler.Status)
				r.Get("/{pid}/logs", commandHandler.Logs)
				r.Delete("/{pid}", commandHandler.Terminate)
			})
		})

		if cfg.Events != nil {
			r.Get("/events", cfg.Events.ServeHTTP)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
