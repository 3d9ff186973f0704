package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/repository/catalog"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/metrics"
	"github.com/paulmach/orb/maptile"
)

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"gif":  "image/gif",
	"avif": "image/avif",
	"pbf":  "application/x-protobuf",
	"mvt":  "application/vnd.mapbox-vector-tile",
}

// CachedTile is a tile read back from storage.
type CachedTile struct {
	Data        []byte
	ContentType string
	ETag        string
}

type TileUseCase struct {
	catalog catalog.Repository
	store   TileStore
	logger  logger.Logger
}

func NewTileUseCase(providers catalog.Repository, store TileStore, l logger.Logger) *TileUseCase {
	return &TileUseCase{
		catalog: providers,
		store:   store,
		logger:  l,
	}
}

// GetCachedTile serves a previously downloaded tile. It never goes upstream.
func (uc *TileUseCase) GetCachedTile(ctx context.Context, mapID string, x, y, z int) (*CachedTile, error) {
	metrics.TilesRequests.Inc()

	if uc.store == nil {
		return nil, model.ErrConfigurationMissing
	}

	provider, err := uc.catalog.Get(ctx, mapID)
	if err != nil {
		return nil, err
	}

	state, err := uc.store.HasMap(provider.ID)
	switch state {
	case cache.NotFound:
		return nil, fmt.Errorf("%w: %s", model.ErrMapNotDownloaded, provider.ID)
	case cache.Unknown:
		uc.logger.Error("map directory check failed", "map_id", provider.ID, "error", err)
		return nil, err
	}

	if err := provider.CheckZoom(z); err != nil {
		return nil, err
	}

	n := 1 << z
	if x < 0 || x >= n || y < 0 || y >= n {
		return nil, fmt.Errorf("%w: tile x=%d y=%d outside grid [0, %d) at zoom %d", model.ErrValidation, x, y, n, z)
	}

	key := cache.TileCacheKey{
		MapID:     provider.ID,
		Tile:      maptile.New(uint32(x), uint32(y), maptile.Zoom(z)),
		Extension: provider.Extension,
	}

	uc.logger.Debug("cache lookup", "map_id", provider.ID, "z", z, "x", x, "y", y)

	data, err := uc.store.Get(key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			metrics.TilesCacheMisses.Inc()
			return nil, fmt.Errorf("%w: %s", err, key)
		}
		uc.logger.Error("cache lookup failed", "key", key.String(), "error", err)
		return nil, err
	}
	metrics.TilesCacheHits.Inc()

	return &CachedTile{
		Data:        data,
		ContentType: ContentType(provider.Extension, data),
		ETag:        ETag(data),
	}, nil
}

// Stats reports what is stored on disk for a map.
func (uc *TileUseCase) Stats(ctx context.Context, mapID string) (cache.MapStats, error) {
	if uc.store == nil {
		return cache.MapStats{}, model.ErrConfigurationMissing
	}

	provider, err := uc.catalog.Get(ctx, mapID)
	if err != nil {
		return cache.MapStats{}, err
	}

	state, err := uc.store.HasMap(provider.ID)
	switch state {
	case cache.NotFound:
		return cache.MapStats{}, fmt.Errorf("%w: %s", model.ErrMapNotDownloaded, provider.ID)
	case cache.Unknown:
		return cache.MapStats{}, err
	}

	return uc.store.Stats(provider.ID)
}

// ContentType maps a tile extension to its media type, sniffing data when the
// extension is not a known tile format.
func ContentType(extension string, data []byte) string {
	if ct, ok := contentTypes[strings.ToLower(extension)]; ok {
		return ct
	}
	return mimetype.Detect(data).String()
}

// ETag is a strong validator derived from the tile bytes.
func ETag(data []byte) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64(data))
}
