package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/cloo-solutions/aliasgen/internal/config"
	"github.com/cloo-solutions/aliasgen/internal/database"
	"github.com/cloo-solutions/aliasgen/internal/host"
	"github.com/cloo-solutions/aliasgen/internal/openai"
	"github.com/cloo-solutions/aliasgen/internal/repository"
	"github.com/cloo-solutions/aliasgen/internal/service"
	"github.com/cloo-solutions/aliasgen/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RuntimeOptions tune how NewRuntime assembles the pipeline.
type RuntimeOptions struct {
	// Workspace overrides the configured workspace directory.
	Workspace string
	Notifier  host.Notifier
	// Migrate applies pending migrations after connecting to the database.
	Migrate bool
	// MigrationsDir defaults to database.DefaultMigrationsDir.
	MigrationsDir string
}

// Runtime holds the wired alias pipeline shared by aliasgen and aliasgend.
type Runtime struct {
	Config    *config.Config
	Settings  *config.Store
	Store     storage.DocumentStore
	Workspace *host.Workspace
	Completer *openai.Client
	Runs      *repository.AliasRunRepository
	Service   *service.AliasService

	pool *pgxpool.Pool
}

// NewRuntime builds the document store, host, completion client and
// optional run history described by cfg.
func NewRuntime(ctx context.Context, cfg *config.Config, opts RuntimeOptions) (*Runtime, error) {
	settings, err := config.NewStore(cfg.SettingsPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to locate settings file: %w", err)
	}

	store, err := newDocumentStore(ctx, cfg, opts.Workspace)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:    cfg,
		Settings:  settings,
		Store:     store,
		Workspace: host.NewWorkspace(store, opts.Notifier),
		Completer: openai.NewClient(openai.Config{
			BaseURL:    cfg.BaseURL,
			HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		}),
	}

	var recorder service.RunRecorder
	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Println("connected to database")

		if opts.Migrate {
			dir := opts.MigrationsDir
			if dir == "" {
				dir = database.DefaultMigrationsDir
			}
			if err := database.Migrate(cfg.DatabaseURL, dir); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		rt.pool = pool
		rt.Runs = repository.NewAliasRunRepository(pool)
		recorder = rt.Runs
	}

	rt.Service = service.NewAliasService(rt.Workspace, rt.Completer, settings.Current, recorder)
	return rt, nil
}

// Close releases the database pool, if any.
func (rt *Runtime) Close() {
	if rt.pool != nil {
		rt.pool.Close()
	}
}

func newDocumentStore(ctx context.Context, cfg *config.Config, workspace string) (storage.DocumentStore, error) {
	if cfg.HasS3() {
		s3Store, err := storage.NewS3Store(ctx, storage.S3StoreConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 store: %w", err)
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("documents: S3 bucket '%s'", cfg.S3Bucket)
		return s3Store, nil
	}

	if workspace == "" {
		workspace = cfg.Workspace
	}
	fsStore, err := storage.NewFSStore(workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	return fsStore, nil
}
