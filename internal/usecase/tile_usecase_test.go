package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestGetCachedTile(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	_, err := f.tiles.GetCachedTile(ctx, "osm", 15, 10, 5)
	assert.ErrorIs(t, err, model.ErrMapNotDownloaded)
	assert.ErrorIs(t, err, model.ErrNotFound)

	writeTile(t, filepath.Join(f.root, "osm", "5", "10", "5_10_15.png"), pngMagic)

	t.Run("hit", func(t *testing.T) {
		got, err := f.tiles.GetCachedTile(ctx, "osm", 15, 10, 5)
		require.NoError(t, err)
		assert.Equal(t, pngMagic, got.Data)
		assert.Equal(t, "image/png", got.ContentType)
		assert.Equal(t, ETag(pngMagic), got.ETag)
	})

	t.Run("tile not cached", func(t *testing.T) {
		_, err := f.tiles.GetCachedTile(ctx, "osm", 16, 10, 5)
		assert.ErrorIs(t, err, model.ErrTileNotFound)
	})

	t.Run("unknown map", func(t *testing.T) {
		_, err := f.tiles.GetCachedTile(ctx, "nope", 15, 10, 5)
		assert.ErrorIs(t, err, model.ErrUnknownMap)
	})

	t.Run("zoom bounds inclusive", func(t *testing.T) {
		_, err := f.tiles.GetCachedTile(ctx, "osm", 0, 0, 19)
		assert.ErrorIs(t, err, model.ErrTileNotFound)

		_, err = f.tiles.GetCachedTile(ctx, "osm", 0, 0, 20)
		assert.ErrorIs(t, err, model.ErrValidation)

		_, err = f.tiles.GetCachedTile(ctx, "osm", 0, 0, -1)
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("outside grid", func(t *testing.T) {
		_, err := f.tiles.GetCachedTile(ctx, "osm", 32, 0, 5)
		assert.ErrorIs(t, err, model.ErrValidation)

		_, err = f.tiles.GetCachedTile(ctx, "osm", 0, -1, 5)
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestGetCachedTile_NoStorage(t *testing.T) {
	f := newFixture(t, 10)
	uc := NewTileUseCase(f.catalog, nil, logger.NewNoOpLogger())

	_, err := uc.GetCachedTile(context.Background(), "osm", 0, 0, 0)
	assert.ErrorIs(t, err, model.ErrConfigurationMissing)

	_, err = uc.Stats(context.Background(), "osm")
	assert.ErrorIs(t, err, model.ErrConfigurationMissing)
}

func TestTileStats(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	_, err := f.tiles.Stats(ctx, "osm")
	assert.ErrorIs(t, err, model.ErrMapNotDownloaded)

	report, err := f.download.Download(ctx, "osm", londonRequest(5))
	require.NoError(t, err)
	require.Equal(t, 2, report.Written)

	stats, err := f.tiles.Stats(ctx, "osm")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TileCount)
	assert.Equal(t, map[string]int{"5": 2}, stats.TilesPerZoom)
	assert.Positive(t, stats.TotalSizeBytes)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("png", nil))
	assert.Equal(t, "image/jpeg", ContentType("JPG", nil))
	assert.Equal(t, "application/x-protobuf", ContentType("pbf", nil))
	assert.Equal(t, "image/png", ContentType("tile", pngMagic))
	assert.Equal(t, "application/octet-stream", ContentType("bin", []byte{0x00, 0x01, 0x02}))
}

func TestETag(t *testing.T) {
	assert.Equal(t, ETag([]byte("a")), ETag([]byte("a")))
	assert.NotEqual(t, ETag([]byte("a")), ETag([]byte("b")))
	assert.Regexp(t, `^"[0-9a-f]{16}"$`, ETag([]byte("a")))
}
