package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtracker/internal/config"
	"github.com/mrlokans/readtracker/internal/covers"
	"github.com/mrlokans/readtracker/internal/database"
	"github.com/mrlokans/readtracker/internal/database/books"
	"github.com/mrlokans/readtracker/internal/database/quotes"
	"github.com/mrlokans/readtracker/internal/database/users"
	http_controllers "github.com/mrlokans/readtracker/internal/http"
	"github.com/mrlokans/readtracker/internal/scheduler"
	"github.com/mrlokans/readtracker/internal/tasks"
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

	// Wait for interrupt signal to gracefully shutdown the server
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

// OpenDatabase opens the database described by cfg and applies its schema.
func OpenDatabase(ctx context.Context, cfg config.Database) (*database.Database, error) {
	db, err := database.Open(cfg.Path,
		database.WithLogLevel(database.ParseLogLevel(cfg.LogLevel)),
		database.WithSchemaVersion(cfg.SchemaVersion),
	)
	if err != nil {
		return nil, err
	}

	// The connection is lazy; open it now so schema problems stop startup.
	if _, err := db.Conn(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Readtracker v%s", version)

	db, err := OpenDatabase(context.Background(), cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	booksRepo := books.NewRepository(db)
	quotesRepo := quotes.NewRepository(db)
	usersRepo := users.NewRepository(db)
	defer func() {
		booksRepo.Close()
		quotesRepo.Close()
		usersRepo.Close()
	}()

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.RegisterStreakQueues(usersRepo, usersRepo)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Initialize the daily streak check if enabled
	var streakScheduler *scheduler.StreakResetScheduler
	if cfg.StreakReset.Enabled {
		var enqueuer scheduler.TaskEnqueuer
		if taskClient != nil {
			enqueuer = taskClient
		}
		streakScheduler = scheduler.NewStreakResetScheduler(cfg.StreakReset.Schedule, usersRepo, enqueuer)
		if err := streakScheduler.Start(context.Background()); err != nil {
			log.Printf("WARNING: Failed to start streak reset scheduler: %v", err)
			streakScheduler = nil
		} else if err := streakScheduler.RunNow(context.Background()); err != nil {
			// The server may have been down over midnight.
			log.Printf("WARNING: Startup streak check failed: %v", err)
		}
	}

	// Create cover cache for locally caching book covers
	var coverCache *covers.Cache
	if cfg.Covers.Enabled {
		coverCacheDir := cfg.Covers.Dir
		if coverCacheDir == "" {
			coverCacheDir = filepath.Join(filepath.Dir(cfg.Database.Path), "covers")
		}
		coverCache, err = covers.NewCache(coverCacheDir)
		if err != nil {
			log.Printf("WARNING: Failed to initialize cover cache: %v", err)
		} else {
			log.Printf("Cover cache initialized at %s", coverCacheDir)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Books:    booksRepo,
		Quotes:   quotesRepo,
		Reading:  usersRepo,
		Database: db,
		Version:  version,
	}
	if taskClient != nil {
		routerCfg.Tasks = taskClient
	}
	if coverCache != nil {
		routerCfg.Covers = coverCache
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if streakScheduler != nil {
			streakScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
