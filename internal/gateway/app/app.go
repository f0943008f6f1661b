package app

import (
	"context"
	"fmt"
	"log"

	"github.com/mslanden/searchwizard/internal/gateway/config"
	"github.com/mslanden/searchwizard/internal/gateway/events"
	"github.com/mslanden/searchwizard/internal/gateway/handler"
	"github.com/mslanden/searchwizard/internal/gateway/repository/blob"
	"github.com/mslanden/searchwizard/internal/gateway/repository/entity"
	"github.com/mslanden/searchwizard/internal/gateway/server"
	"github.com/mslanden/searchwizard/internal/gendoc"
)

type App struct {
	server *server.Server
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	entityStore, projects, err := buildEntityStores(cfg)
	if err != nil {
		return nil, err
	}
	blobStore, err := buildBlobStore(cfg)
	if err != nil {
		return nil, err
	}

	model, err := gendoc.NewGeminiClient(ctx, cfg.GenDoc.Model)
	if err != nil {
		return nil, fmt.Errorf("init generation client: %w", err)
	}
	genSvc := gendoc.New(gendoc.WithRetry(model, cfg.GenDoc.RetryAttempts, 0), gendoc.NewRegistry())

	hub := events.NewHub()
	h := handler.New(projects, entityStore, blobStore, genSvc, hub)
	srv := server.New(cfg.Port, server.NewMux(h))

	return &App{server: srv}, nil
}

func buildEntityStores(cfg *config.Config) (entity.Store, entity.Projects, error) {
	if cfg.Postgres.DSN == "" {
		mem := entity.NewMemoryStore()
		return mem, mem, nil
	}
	pg, err := entity.NewPostgresStore(cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("init postgres entity store: %w", err)
	}
	return pg, pg, nil
}

func buildBlobStore(cfg *config.Config) (blob.Store, error) {
	var origin blob.Store
	if cfg.Blob.Enabled {
		s3, err := blob.NewS3Store(blob.S3Config{
			Endpoint:  cfg.Blob.Endpoint,
			Region:    cfg.Blob.Region,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: cfg.Blob.SecretKey,
			Bucket:    cfg.Blob.Bucket,
			UseSSL:    cfg.Blob.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 blob store: %w", err)
		}
		origin = s3
	} else {
		log.Printf("blob storage disabled, using in-memory store")
		origin = blob.NewMemoryStore()
	}
	return blob.NewCachedStore(origin, 0)
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
