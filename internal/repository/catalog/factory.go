package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaennil/guide_helper/backend/tiledb/pkg/config"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
)

// New opens the catalog backend selected by CATALOG_BACKEND.
func New(cfg *config.Config, l logger.Logger) (Repository, error) {
	switch cfg.Catalog.Backend {
	case config.CatalogBackendSQLite:
		l.Info("using sqlite catalog", "path", cfg.Catalog.SQLitePath)
		if dir := filepath.Dir(cfg.Catalog.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create catalog directory: %w", err)
			}
		}
		return NewSQLiteRepository(cfg.Catalog.SQLitePath, l)
	case config.CatalogBackendRedis:
		l.Info("using redis catalog", "addr", cfg.Redis.Addr)
		return NewRedisRepository(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		}, l)
	default:
		return nil, fmt.Errorf("unknown catalog backend: %s (supported: %s, %s)",
			cfg.Catalog.Backend, config.CatalogBackendSQLite, config.CatalogBackendRedis)
	}
}
