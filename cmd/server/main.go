package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"coursehub/internal/auth"
	"coursehub/internal/config"
	"coursehub/internal/handler"
	"coursehub/internal/handler/sse"
	"coursehub/internal/middleware"
	"coursehub/internal/repository"
	"coursehub/internal/service/portal"
	"coursehub/internal/service/search"
	"coursehub/internal/service/upload"
	"coursehub/internal/service/upload/mediatypes"
	"coursehub/internal/service/workspace"
	"coursehub/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logger, logCloser, err := config.NewLogger(cfg, "server")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"hierarchy_backend", cfg.HierarchyBackend,
		"blob_backend", cfg.BlobBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, cfg.AllowedEmailDomains, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	identity := auth.NewGoTrueClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, auth.GoTrueOptions{
		AllowedDomains: cfg.AllowedEmailDomains,
		RedirectURL:    cfg.AuthRedirectURL,
	}, logger)

	// Hierarchy store and object storage
	backend, err := repository.SetupBackend(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open hierarchy store: %v", err)
	}
	defer func() { _ = backend.Close(context.Background()) }()

	blobs, err := storage.SetupBlobStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}
	defer func() { _ = blobs.Close() }()

	mediaTypes, err := mediatypes.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load media type registry: %v", err)
	}

	// Services
	hierarchyService := portal.NewHierarchyService(backend.Repositories, blobs, logger)
	searchService := search.NewService(backend.Repositories.Notes, logger)

	workspaces := workspace.NewRegistry(hierarchyService, backend.Repositories, blobs, mediaTypes, workspace.Options{
		GracePeriod:   cfg.DeleteGracePeriod,
		CommitTimeout: config.DefaultCommitTimeout,
		IdleExpiry:    cfg.WorkspaceIdleExpiry,
		Upload: upload.Options{
			MaxFileSize:  config.MaxUploadFileSize,
			ConfirmDelay: cfg.UploadConfirmDelay,
		},
	}, logger)
	go workspaces.Run(ctx)

	logger.Info("services initialized")

	// Handlers and routes
	mux := handler.NewRouter(handler.Handlers{
		Browse:    handler.NewBrowseHandler(hierarchyService, searchService, logger),
		Auth:      handler.NewAuthHandler(identity, logger),
		Hierarchy: handler.NewHierarchyHandler(hierarchyService, workspaces, logger),
		Dashboard: handler.NewDashboardHandler(workspaces, sse.DefaultConfig(), logger),
		Upload:    handler.NewUploadHandler(workspaces, logger),
	}, middleware.RequireAuth(jwtVerifier, logger))

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestLogger → Routes (auth is per route)
	httpHandler = middleware.RequestLogger(logger)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second, // Uploads extend their own read deadline
		WriteTimeout:      0,                // Disabled to allow long-lived SSE streams
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	if err := shutdown(server, workspaces, shutdownTimeout); err != nil {
		logger.Error("shutdown incomplete", "error", err)
	}
	logger.Info("server stopped")
}

// closer is the part of the workspace registry shutdown needs.
type closer interface {
	Close(ctx context.Context) error
}

// shutdown commits pending deletes before draining the server. Closing the
// workspaces also ends open countdown streams, which would otherwise hold
// Shutdown until its deadline. Each step gets its own timeout.
func shutdown(server *http.Server, workspaces closer, timeout time.Duration) error {
	var errs []error

	closeCtx, cancel := context.WithTimeout(context.Background(), timeout)
	if err := workspaces.Close(closeCtx); err != nil {
		errs = append(errs, fmt.Errorf("close workspaces: %w", err))
	}
	cancel()

	drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		errs = append(errs, fmt.Errorf("drain http server: %w", err))
	}
	return errors.Join(errs...)
}
