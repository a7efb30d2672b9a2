package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/provider-gateway/app"
	"github.com/upb/provider-gateway/handlers"
	"github.com/upb/provider-gateway/middleware"
)

// SetupRoutes configures all gateway routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware. The completion endpoint carries no router-level
	// timeout; upstream deadlines are owned by the provider adapters.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	var checker handlers.HealthChecker
	if deps.DB != nil {
		checker = deps.DB
	}
	healthHandler := handlers.NewHealthHandler(checker, deps.Logger)
	completionHandler := handlers.NewCompletionHandler(deps.Registry, deps.Metrics, deps.Logger)
	keysHandler := handlers.NewKeysHandler(deps.Guard, deps.Config.Guard.DefaultRateLimit, deps.Logger)

	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/healthz/ready", healthHandler.HandleReadiness)

	if deps.Config.Observability.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/chat/completions", func(r chi.Router) {
			r.Use(deps.GuardMiddleware.RequireAPIKey)
			r.Post("/", completionHandler.HandleChatCompletion)
		})

		r.Route("/keys", func(r chi.Router) {
			r.Use(deps.GuardMiddleware.RequireAdmin)
			r.Post("/", keysHandler.HandleIssueKey)
			r.Get("/", keysHandler.HandleListKeys)
			r.Delete("/{keyID}", keysHandler.HandleDeactivateKey)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
