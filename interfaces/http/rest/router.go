package rest

import (
	"net/http"

	"schemagraph/interfaces/http/rest/handlers"
	"schemagraph/interfaces/http/rest/middleware"
	"schemagraph/pkg/auth"
	apperrors "schemagraph/pkg/errors"
	"schemagraph/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the cross-cutting settings for the router
type RouterConfig struct {
	AllowedOrigins []string
	RateLimits     middleware.RateLimits
}

// Router creates and configures the HTTP router
type Router struct {
	config      RouterConfig
	auth        *handlers.AuthHandler
	dataSources *handlers.DataSourceHandler
	mappings    *handlers.MappingHandler
	queries     *handlers.QueryHandler
	health      *handlers.HealthHandler
	validator   *auth.JWTValidator
	tracer      *observability.Tracer
	errHandler  *apperrors.ErrorHandler
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	config RouterConfig,
	authHandler *handlers.AuthHandler,
	dataSourceHandler *handlers.DataSourceHandler,
	mappingHandler *handlers.MappingHandler,
	queryHandler *handlers.QueryHandler,
	healthHandler *handlers.HealthHandler,
	validator *auth.JWTValidator,
	tracer *observability.Tracer,
	errHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:      config,
		auth:        authHandler,
		dataSources: dataSourceHandler,
		mappings:    mappingHandler,
		queries:     queryHandler,
		health:      healthHandler,
		validator:   validator,
		tracer:      tracer,
		errHandler:  errHandler,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(rt.errHandler.Middleware)
	router.Use(rt.tracer.Middleware)

	origins := rt.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check
	router.Get("/health", rt.health.Health)
	router.Get("/ready", rt.health.Ready)

	router.Route("/api", func(r chi.Router) {
		r.Post("/register", rt.auth.Register)
		r.Post("/login", rt.auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.validator, rt.config.RateLimits, rt.errHandler, rt.logger))

			r.Route("/datasources", func(r chi.Router) {
				r.Post("/", rt.dataSources.Create)
				r.Get("/", rt.dataSources.List)
				r.Get("/{id}/schema", rt.dataSources.Schema)
			})

			r.Route("/mappings", func(r chi.Router) {
				r.Post("/", rt.mappings.Create)
				r.Get("/{datasourceId}", rt.mappings.List)
			})

			r.Post("/cypher", rt.queries.Execute)
			r.Post("/graph/project", rt.queries.Project)
		})
	})

	return router
}
