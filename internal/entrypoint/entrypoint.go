package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shelftrack/shelftrack/internal/auth"
	"github.com/shelftrack/shelftrack/internal/config"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/database/completed"
	"github.com/shelftrack/shelftrack/internal/database/imports"
	"github.com/shelftrack/shelftrack/internal/database/library"
	"github.com/shelftrack/shelftrack/internal/database/users"
	http_controllers "github.com/shelftrack/shelftrack/internal/http"
	"github.com/shelftrack/shelftrack/internal/importer"
	"github.com/shelftrack/shelftrack/internal/metadata"
	"github.com/shelftrack/shelftrack/internal/scheduler"
	"github.com/shelftrack/shelftrack/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown: wait for interrupt, then give in-flight requests
	// and background workers until the timeout to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// App bundles the wired components so the HTTP server and the headless
// import command can share one construction path.
type App struct {
	Config     *config.Config
	Database   *database.Database
	Library    *library.Repository
	Completed  *completed.Repository
	Imports    *imports.Repository
	Users      *users.Repository
	Provider   metadata.Provider
	Pipeline   *importer.Pipeline
	TaskClient *tasks.Client
}

// NewApp initializes storage, the metadata client, and the import
// pipeline. It does not start any background workers.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	libraryRepo := library.NewRepository(db.DB)
	completedRepo := completed.NewRepository(db.DB)
	importsRepo := imports.NewRepository(db.DB)
	usersRepo := users.NewRepository(db.DB)

	// Metadata lookups go through a TTL cache so re-parsing the same
	// file does not hammer OpenLibrary.
	openLibraryClient := metadata.NewOpenLibraryClient(
		cfg.Metadata.BaseURL,
		cfg.Metadata.LookupTimeout,
		cfg.Metadata.RateInterval,
	)
	provider := metadata.NewCachedProvider(openLibraryClient, cfg.Metadata.CacheTTL)

	classifier := importer.NewClassifier(provider, cfg.Metadata.LookupTimeout, cfg.Import.LookupConcurrency)
	engine := importer.NewCommitEngine(completedRepo, libraryRepo)
	pipeline := importer.NewPipeline(classifier, engine, completedRepo, libraryRepo, importsRepo)

	return &App{
		Config:    cfg,
		Database:  db,
		Library:   libraryRepo,
		Completed: completedRepo,
		Imports:   importsRepo,
		Users:     usersRepo,
		Provider:  provider,
		Pipeline:  pipeline,
	}, nil
}

// Close releases the app's database handles.
func (a *App) Close() {
	if a.TaskClient != nil {
		if err := a.TaskClient.Close(); err != nil {
			log.Printf("Error closing task client: %v", err)
		}
	}
	if err := a.Database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting shelftrack v%s", version)

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	// Initialize task queue if enabled
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		app.TaskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}

		app.TaskClient.Register(
			tasks.NewEnrichLibraryBookQueue(app.Library, app.Provider),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go app.TaskClient.Start(taskCtx)
	}

	// Start the metadata sync scheduler when both it and the task queue
	// are enabled; the sweep only enqueues tasks.
	var metadataSync *scheduler.MetadataSyncScheduler
	if cfg.MetadataSync.Enabled && app.TaskClient != nil {
		metadataSync = scheduler.NewMetadataSyncScheduler(app.Library, app.TaskClient, cfg.MetadataSync)
		if err := metadataSync.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start metadata sync scheduler: %v", err)
		}
	}

	// Initialize authentication if enabled
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(app.Users, cfg.Auth)

		// Get underlying SQL DB for the session store
		sqlDB, err := app.Database.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		// Generate or use configured CSRF secret
		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		needsSetup, _ := authService.NeedsSetup()
		if needsSetup {
			log.Printf("No users found. POST /api/auth/setup to create the first account.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:       app.Database,
		Pipeline:       app.Pipeline,
		LibraryStore:   app.Library,
		CompletedStore: app.Completed,
		ImportHistory:  app.Imports,
		MaxFileBytes:   cfg.Import.MaxFileBytes,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if metadataSync != nil {
			metadataSync.Stop()
		}
		if app.TaskClient != nil && taskCtxCancel != nil {
			app.TaskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
