package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yegors/flightfinder/internal/config"
	"github.com/yegors/flightfinder/internal/observability"
	"github.com/yegors/flightfinder/internal/search"
	"github.com/yegors/flightfinder/internal/websocket"
	"github.com/yegors/flightfinder/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(searchService *search.Service, wsServer *websocket.Server, metrics *observability.Metrics, config *config.Config, clock clockwork.Clock, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(searchService, wsServer, config, clock, logger),
		middleware: NewMiddleware(metrics, logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.Metrics)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Query interpretation
		router.Get("/search", r.handler.Search)
		router.Get("/classify", r.handler.Classify)

		// Airport routes
		router.Get("/airports/search", r.handler.SearchAirports)
		router.Get("/airports/nearest", r.handler.NearestAirports)
		router.Get("/airports/{code}", r.handler.GetAirport)

		// Airline routes
		router.Get("/airlines/search", r.handler.SearchAirlines)
		router.Get("/airlines/{icao}", r.handler.GetAirline)
		router.Get("/callsigns/{callsign}", r.handler.GetCallsign)

		// Geodesy
		router.Get("/geo/distance", r.handler.GetDistance)

		// WebSocket route
		router.Get("/ws", r.handler.HandleWebSocket)

		// Health check
		router.Get("/health", r.handler.GetHealth)
	})

	if r.config.Metrics.Enabled {
		router.Handle(r.config.Metrics.Path, promhttp.Handler())
	}

	// Serve static files from the configured directory
	if r.config.Server.StaticFilesDir != "" {
		router.Handle("/*", NewStaticFileHandler(r.config.Server.StaticFilesDir, r.logger))
	}

	return router
}
