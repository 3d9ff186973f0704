package cache

import (
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
)

type MapStats struct {
	TileCount      int            `json:"tile_count"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	TotalSizeMB    float64        `json:"total_size_mb"`
	TilesPerZoom   map[string]int `json:"tiles_per_zoom"`
}

// Stats walks the map's subtree and counts cached tiles. Temp files of
// in-progress writes are skipped.
func (c *FilesystemCache) Stats(mapID string) (MapStats, error) {
	stats := MapStats{TilesPerZoom: make(map[string]int)}
	base := c.MapDir(mapID)

	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		zoom, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
		if _, err := strconv.Atoi(zoom); err != nil {
			return nil
		}

		stats.TileCount++
		stats.TotalSizeBytes += info.Size()
		stats.TilesPerZoom[zoom]++
		return nil
	})
	if err != nil {
		return MapStats{}, err
	}

	stats.TotalSizeMB = float64(stats.TotalSizeBytes) / (1024 * 1024)
	return stats, nil
}
