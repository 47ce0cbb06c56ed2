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

	"github.com/cloo-solutions/aliasgen/internal/api/handlers"
	"github.com/cloo-solutions/aliasgen/internal/cli"
	"github.com/cloo-solutions/aliasgen/internal/config"
	"github.com/cloo-solutions/aliasgen/internal/host"
	"github.com/cloo-solutions/aliasgen/internal/jobs"
	"github.com/cloo-solutions/aliasgen/internal/server"
	"github.com/cloo-solutions/aliasgen/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the aliasgen API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().StringP("workspace", "w", "", "Workspace directory (overrides ALIASGEN_WORKSPACE)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}
	workspace, _ := cmd.Flags().GetString("workspace")
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")

	rt, err := cli.NewRuntime(ctx, cfg, cli.RuntimeOptions{
		Workspace: workspace,
		Notifier:  host.LogNotifier{},
		Migrate:   !noMigrate,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	routerCfg := server.RouterConfig{
		Token:        cfg.ServerToken,
		AliasHandler: handlers.NewAliasHandler(rt.Service),
	}
	var pruneWorker *jobs.Worker
	if rt.Runs != nil {
		routerCfg.RunHandler = handlers.NewRunHandler(rt.Runs)
		if cfg.HistoryRetention > 0 {
			pruneWorker = jobs.NewWorker("history", jobs.NewRunPruner(rt.Runs, cfg.HistoryRetention), time.Hour)
			go pruneWorker.Start(ctx)
		}
	} else {
		log.Println("run history disabled: ALIASGEN_DATABASE_URL not set")
	}
	if cfg.ServerToken == "" {
		log.Println("warning: ALIASGEN_SERVER_TOKEN not set, API is unauthenticated")
	}

	if s, err := rt.Settings.Current(); err != nil {
		log.Printf("settings: %v", err)
	} else if !s.HasAPIKey() {
		log.Printf("warning: no OpenAI API key configured (set ALIASGEN_OPENAI_API_KEY or api_key in %s)", rt.Settings.Path())
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(routerCfg),
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

	if pruneWorker != nil {
		pruneWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
