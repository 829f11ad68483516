package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/hrassist/internal/api/handlers"
	"github.com/cloo-solutions/hrassist/internal/config"
	"github.com/cloo-solutions/hrassist/internal/jobs"
	"github.com/cloo-solutions/hrassist/internal/server"
	"github.com/cloo-solutions/hrassist/internal/telemetry"
	"github.com/spf13/cobra"
)

// Version is stamped into /api/health.
var Version = "dev"

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Load the HR corpus, build the index and start the hrassist API server",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides HRASSIST_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("watch", false, "Rebuild the index when the corpus file changes (overrides HRASSIST_WATCH_CORPUS)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		cfg.WatchCorpus = true
	}
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")

	rt, err := NewRuntime(ctx, cfg, noMigrate)
	if err != nil {
		return err
	}
	defer rt.Close()

	// A missing corpus is reported by /api/health; the server still starts.
	if report, err := rt.Assistant.Ingest(ctx, false); err != nil {
		log.Printf("startup ingest failed: %v", err)
	} else if report.Warning != "" {
		log.Printf("startup ingest: %s", report.Warning)
	}

	refresher := jobs.NewIndexRefresher(rt.Assistant)

	var refreshWorker *jobs.Worker
	if cfg.RefreshInterval > 0 {
		refreshWorker = jobs.NewWorker("index refresh", refresher, cfg.RefreshInterval)
		go refreshWorker.Start(ctx)
	}

	var watcher *jobs.CorpusWatcher
	if cfg.WatchCorpus {
		watcher, err = jobs.NewCorpusWatcher(cfg.CorpusPath, refresher, jobs.DefaultDebounce)
		if err != nil {
			log.Printf("corpus watcher disabled: %v", err)
		} else {
			go watcher.Start(ctx)
		}
	}

	router := server.NewRouter(server.RouterConfig{
		AdminAPIKey:   cfg.AdminAPIKey,
		ChatHandler:   handlers.NewChatHandler(rt.Assistant),
		TicketHandler: handlers.NewTicketHandler(rt.Assistant),
		SystemHandler: handlers.NewSystemHandler(rt.Assistant, rt.Directory, Version),
	})
	if cfg.AdminAPIKey == "" {
		log.Println("HRASSIST_ADMIN_API_KEY not set: /api/ingest is open and /api/tickets is disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if refreshWorker != nil {
		refreshWorker.Stop()
	}
	if watcher != nil {
		watcher.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// initTelemetry starts Sentry when a DSN is configured. Sampling is 100% in
// development and 10% elsewhere.
func initTelemetry(cfg *config.Config) func() {
	if cfg.SentryDSN == "" {
		return func() {}
	}

	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          "hrassist@" + Version,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
		return func() {}
	}
	return shutdown
}
