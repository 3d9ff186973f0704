package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/fetch"
	v1 "github.com/jaennil/guide_helper/backend/tiledb/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/repository/catalog"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/usecase"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/config"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/telemetry"
)

func Run(cfg *config.Config) {
	// Initialize logger
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	l.Info("starting tiledb service",
		"port", cfg.HTTP.Server.Port,
		"tiles_directory", cfg.Tiles.Directory,
		"catalog_backend", cfg.Catalog.Backend,
		"download_concurrency", cfg.Download.Concurrency,
		"download_max_tiles", cfg.Download.MaxTiles,
	)

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize OpenTelemetry if enabled
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	validate := model.NewValidator()

	// Initialize catalog
	providers, err := catalog.New(cfg, l)
	if err != nil {
		l.Fatal("failed to open catalog", "backend", cfg.Catalog.Backend, "error", err)
	}
	defer providers.Close()

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	_, err = catalog.Seed(seedCtx, providers, validate, cfg.Catalog.SeedFile, l)
	cancelSeed()
	if err != nil {
		l.Fatal("failed to seed catalog", "path", cfg.Catalog.SeedFile, "error", err)
	}

	// Initialize tile storage. Without a directory the service still serves
	// the catalog and the relay.
	var (
		store  usecase.TileStore
		writer fetch.TileWriter
	)
	if cfg.Tiles.Directory == "" {
		l.Warn("TILES_DIRECTORY is not set, tile download and read endpoints are disabled")
	} else {
		fsCache, err := cache.NewFilesystemCache(cfg.Tiles.Directory)
		if err != nil {
			l.Fatal("failed to initialize tile storage", "path", cfg.Tiles.Directory, "error", err)
		}
		store, writer = fsCache, fsCache
		if cfg.Tiles.MemoryCacheSize > 0 {
			store = cache.NewMemoryCache(fsCache, cfg.Tiles.MemoryCacheSize)
		}
		l.Info("tile storage initialized", "path", fsCache.Root(), "memory_cache_size", cfg.Tiles.MemoryCacheSize)
	}

	// Initialize usecases
	client := upstream.NewClient(cfg.Upstream, cfg.Download.Concurrency, l)
	orchestrator := fetch.NewOrchestrator(client, writer, cfg.Download.Concurrency, l)

	downloadUseCase := usecase.NewDownloadUseCase(providers, store, orchestrator, cfg.Download.MaxTiles, cfg.Download.Timeout, l)
	tileUseCase := usecase.NewTileUseCase(providers, store, l)
	relayUseCase := usecase.NewRelayUseCase(client, l)
	providerUseCase := usecase.NewProviderUseCase(providers, validate, l)

	// Initialize handler
	h := handler.NewHandler(validate, downloadUseCase, tileUseCase, relayUseCase, providerUseCase)

	// Initialize router
	router := v1.NewRouter(h, l, cfg.HTTP.CORS, cfg.Telemetry.Enabled)

	// Initialize HTTP server
	server := http_server.NewServer(cfg.HTTP.Server, router, l)

	// Start server
	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Error("server forced to shutdown", "error", err)
	}

	l.Info("server stopped")
}
