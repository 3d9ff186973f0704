package cache

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/paulmach/orb/maptile"
)

// TileCacheKey addresses one cached tile of one map.
type TileCacheKey struct {
	MapID     string
	Tile      maptile.Tile
	Extension string
}

func (k TileCacheKey) String() string {
	return fmt.Sprintf("%s/%d/%d/%d.%s", k.MapID, k.Tile.Z, k.Tile.X, k.Tile.Y, k.Extension)
}

type TileCacheValue []byte

// Existence is the outcome of a presence check.
type Existence uint8

const (
	NotFound Existence = iota
	Found
	Unknown
)

func (e Existence) String() string {
	switch e {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

type TileCache interface {
	Path(TileCacheKey) string
	Exists(TileCacheKey) (Existence, error)
	HasMap(mapID string) (Existence, error)
	Get(TileCacheKey) (TileCacheValue, error)
	Set(TileCacheKey, TileCacheValue) error
}

// Store is a TileCache that can also report per-map usage.
type Store interface {
	TileCache
	Stats(mapID string) (MapStats, error)
}

// Resolve builds root/mapID/z/y/{z}_{y}_{x}.{extension}.
func Resolve(root, mapID string, t maptile.Tile, extension string) string {
	z := strconv.FormatUint(uint64(t.Z), 10)
	y := strconv.FormatUint(uint64(t.Y), 10)
	name := fmt.Sprintf("%d_%d_%d.%s", t.Z, t.Y, t.X, extension)
	return filepath.Join(root, mapID, z, y, name)
}
