package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdfshelf/internal/handlers"
	"pdfshelf/internal/indexer"
	"pdfshelf/internal/logging"
	"pdfshelf/internal/middleware"
	"pdfshelf/internal/pdf"
	"pdfshelf/internal/startup"
	"pdfshelf/internal/store"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize metadata store
	storeStart := time.Now()
	st, err := store.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize metadata store: %v", err)
	}
	defer st.Close()
	startup.LogStoreInit(time.Since(storeStart))

	// Initialize cover rendering
	if err := pdf.InitVips(); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	defer pdf.ShutdownVips()
	covers := pdf.NewCoverRenderer(config.CoversDir, config.CoversEnabled)
	startup.LogCoversInit(covers.IsEnabled(), pdf.IsVipsAvailable())

	// Initialize indexer
	startup.LogIndexerInit(config.ScanDirs, config.ScanWorkers, config.ScanInterval)
	idx := indexer.New(st, pdf.NewLibraryOpener(), covers,
		config.ScanDirs, config.ScanWorkers, config.ScanInterval, config.VerifyCacheHits)

	// Start the initial scan in the background (non-blocking)
	idx.Start()
	startup.LogIndexerStarted()

	// Initialize handlers and router
	h := handlers.New(st, idx, covers)
	router := mux.NewRouter()
	h.RegisterRoutes(router, config.MetricsEnabled)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply metrics and logging middleware
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}
	handler = middleware.Logger(middleware.LoggingConfig{
		LogHealthChecks: config.LogHealthChecks,
	})(handler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, idx)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func handleShutdown(srv *http.Server, idx *indexer.Indexer) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
