package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yegors/flightfinder/internal/api"
	"github.com/yegors/flightfinder/internal/config"
	"github.com/yegors/flightfinder/internal/observability"
	"github.com/yegors/flightfinder/internal/refdata"
	"github.com/yegors/flightfinder/internal/search"
	"github.com/yegors/flightfinder/internal/websocket"
	"github.com/yegors/flightfinder/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic. Without an explicit path the built-in
	// defaults are enough to serve the embedded catalogs.
	cfg, err := config.LoadWithFallback(*configPath)
	usingDefaults := false
	if err != nil {
		if *configPath != "" {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
		usingDefaults = true
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting flightfinder server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
		logger.Bool("using_defaults", usingDefaults),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	// Load reference catalogs
	loadStart := clock.Now()
	registry, err := refdata.Load(ctx, cfg.Reference, clock, log)
	if err != nil {
		log.Error("Failed to load reference data", logger.Error(err), logger.String("source", cfg.Reference.Source))
		os.Exit(1)
	}
	metrics.LoadDuration.Observe(clock.Since(loadStart).Seconds())
	metrics.SetCatalogSizes(registry.Airports.Len(), registry.Airlines.Len(), len(registry.Airports.Index()))

	// Create search service
	searchService, err := search.NewService(registry, cfg.Search, metrics, clock, log)
	if err != nil {
		log.Error("Failed to create search service", logger.Error(err))
		os.Exit(1)
	}

	// Create WebSocket server
	wsServer := websocket.NewServer(cfg.Server.CORSAllowedOrigins, log)
	wsServer.SetMessageHandler(search.NewWebSocketHandler(searchService, log))
	wsServer.SetClientObserver(func(count int) {
		metrics.WebSocketClients.Set(float64(count))
	})

	// Start WebSocket server
	go wsServer.Run(ctx)

	// Create API router
	router := api.NewRouter(searchService, wsServer, metrics, cfg, clock, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigCh:
		log.Info("Received signal", logger.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("HTTP server error on startup", logger.String("addr", addr), logger.Error(err))
		exitCode = 1
	}

	log.Info("Shutting down server...")

	// Tell connected search boxes before the hub goes away
	wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeShutdown,
		Data: map[string]interface{}{"reason": "server shutting down"},
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	log.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.String("addr", addr), logger.Error(err))
	} else {
		log.Info("HTTP server shutdown complete", logger.String("addr", addr))
	}

	// Stop the WebSocket hub and let it flush the shutdown notice
	cancel()
	select {
	case <-wsServer.Done():
		log.Info("WebSocket server stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timed out waiting for WebSocket server to stop")
	}

	log.Info("Server fully stopped")
	if exitCode != 0 {
		log.Sync()
		os.Exit(exitCode)
	}
}
