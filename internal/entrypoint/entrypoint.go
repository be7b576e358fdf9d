// Package entrypoint wires the application together and runs the HTTP
// server with graceful shutdown.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cardbridge/internal/config"
	"github.com/mrlokans/cardbridge/internal/database"
	"github.com/mrlokans/cardbridge/internal/database/history"
	"github.com/mrlokans/cardbridge/internal/export"
	"github.com/mrlokans/cardbridge/internal/flashcards"
	"github.com/mrlokans/cardbridge/internal/flashcards/anki"
	"github.com/mrlokans/cardbridge/internal/flashcards/mochi"
	http_controllers "github.com/mrlokans/cardbridge/internal/http"
	"github.com/mrlokans/cardbridge/internal/images"
	"github.com/mrlokans/cardbridge/internal/scheduler"
	"github.com/mrlokans/cardbridge/internal/staging"
	"github.com/mrlokans/cardbridge/internal/tasks"
	"github.com/mrlokans/cardbridge/internal/telegram"
	"github.com/mrlokans/cardbridge/internal/translator"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// BuildBackend constructs the flashcard backend selected by name.
func BuildBackend(name config.BackendName, cfg *config.Config) (flashcards.Backend, error) {
	switch name {
	case config.BackendAnki:
		return anki.NewClient(cfg.Flashcards.AnkiURL), nil
	case config.BackendMochi:
		if cfg.Flashcards.MochiToken == "" {
			return nil, fmt.Errorf("MOCHI_TOKEN is required for the mochi backend")
		}
		return mochi.NewClient(cfg.Flashcards.MochiBaseURL, cfg.Flashcards.MochiToken), nil
	default:
		return nil, fmt.Errorf("unknown flashcards backend %q (expected anki or mochi)", name)
	}
}

// backendLabel is the user-facing name used in buttons and messages.
func backendLabel(name config.BackendName) string {
	switch name {
	case config.BackendMochi:
		return "Mochi"
	default:
		return "Anki"
	}
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown: wait for interrupt, then give in-flight requests
	// and tasks until the timeout to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Cardbridge v%s", version)

	if cfg.Telegram.Token == "" {
		log.Fatalf("Telegram token is not set. Set 'TELEGRAM_TOKEN' environment variable.")
	}
	if cfg.OpenAI.APIKey == "" {
		log.Printf("WARNING: OpenAI API key is not set. Translations will fail. Set 'OPENAI_API_KEY' environment variable.")
	}
	if cfg.Unsplash.AccessKey == "" {
		log.Printf("WARNING: Unsplash access key is not set. Cards will be created without images.")
	}
	if !cfg.Tasks.Enabled {
		log.Fatalf("Webhook processing requires the task queue. Set 'TASKS_ENABLED=true'.")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	historyRepo := history.NewRepository(db)

	// Flashcard backend
	backend, err := BuildBackend(cfg.Flashcards.Backend, cfg)
	if err != nil {
		log.Fatalf("Failed to build flashcards backend: %v", err)
	}

	checkCtx, checkCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if backend.CheckConnection(checkCtx) {
		log.Printf("Flashcards backend '%s' is reachable", backend.Name())
	} else {
		log.Printf("WARNING: flashcards backend '%s' is not reachable. Exports will fail until it comes up.", backend.Name())
	}
	checkCancel()

	// Collaborators
	store := staging.New()
	bot := telegram.NewClient("", cfg.Telegram.Token)
	translatorClient := translator.NewOpenAIClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	imagesClient := images.NewUnsplashClient("", cfg.Unsplash.AccessKey)
	orchestrator := export.NewOrchestrator(store, backend, export.NewImageFetcher())

	label := backendLabel(cfg.Flashcards.Backend)

	// Task queue
	taskClient, err := tasks.NewClient(cfg.Database.Path, tasks.Config{
		Workers:         cfg.Tasks.Workers,
		ReleaseAfter:    cfg.Tasks.ReleaseAfter,
		CleanupInterval: cfg.Tasks.CleanupInterval,
	})
	if err != nil {
		log.Fatalf("Failed to initialize task queue: %v", err)
	}
	defer func() {
		if err := taskClient.Close(); err != nil {
			log.Printf("Error closing task client: %v", err)
		}
	}()

	taskClient.Register(
		tasks.NewTranslateQueue(tasks.TranslateDeps{
			Bot:          bot,
			Translator:   translatorClient,
			Images:       imagesClient,
			Store:        store,
			BackendLabel: label,
		}),
		tasks.NewExportQueue(tasks.ExportDeps{
			Bot:          bot,
			Orchestrator: orchestrator,
			History:      historyRepo,
			Backend:      backend.Name(),
		}),
	)

	taskCtx, taskCtxCancel := context.WithCancel(context.Background())
	go taskClient.Start(taskCtx)

	// Staged cards that nobody exported are swept on a schedule
	cleanupScheduler := scheduler.NewStagingCleanupScheduler(store, scheduler.StagingCleanupConfig{
		Enabled:  cfg.Staging.CleanupEnabled,
		Schedule: cfg.Staging.CleanupSchedule,
		TTL:      cfg.Staging.TTL,
	})
	if err := cleanupScheduler.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start staging cleanup scheduler: %v", err)
	}

	// Point Telegram at our webhook endpoint
	if cfg.Telegram.WebhookURL != "" {
		webhookURL := strings.TrimRight(cfg.Telegram.WebhookURL, "/") + "/webhook/" + cfg.Telegram.Token
		hookCtx, hookCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := bot.SetWebhook(hookCtx, webhookURL); err != nil {
			log.Fatalf("Failed to register Telegram webhook: %v", err)
		}
		hookCancel()
		log.Printf("Telegram webhook registered")
	} else {
		log.Printf("WARNING: 'TELEGRAM_WEBHOOK_URL' is not set. Register the webhook manually to receive updates.")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:      db,
		Bot:           bot,
		TaskClient:    taskClient,
		Store:         store,
		History:       historyRepo,
		TelegramToken: cfg.Telegram.Token,
		WebhookURL:    cfg.Telegram.WebhookURL,
		BackendLabel:  label,
		Version:       version,
	})

	Serve(router, cfg, func(ctx context.Context) {
		cleanupScheduler.Stop()
		if !taskClient.Stop(ctx) {
			log.Printf("Task queue did not stop cleanly within timeout")
		}
		taskCtxCancel()
	})
}
