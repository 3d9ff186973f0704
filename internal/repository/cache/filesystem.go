package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FilesystemCache stores tiles as plain files under a root directory. A file
// at the resolved path is the cache entry; there is no other metadata.
type FilesystemCache struct {
	root string
}

var _ Store = (*FilesystemCache)(nil)

func NewFilesystemCache(root string) (*FilesystemCache, error) {
	if root == "" {
		return nil, model.ErrConfigurationMissing
	}

	if err := EnsureDir(root); err != nil {
		return nil, err
	}

	return &FilesystemCache{root: root}, nil
}

func (c *FilesystemCache) Root() string {
	return c.root
}

func (c *FilesystemCache) Path(k TileCacheKey) string {
	return Resolve(c.root, k.MapID, k.Tile, k.Extension)
}

// MapDir is the per-map subtree holding every tile of mapID.
func (c *FilesystemCache) MapDir(mapID string) string {
	return filepath.Join(c.root, mapID)
}

func (c *FilesystemCache) Exists(k TileCacheKey) (Existence, error) {
	return statRegular(c.Path(k))
}

func (c *FilesystemCache) HasMap(mapID string) (Existence, error) {
	info, err := os.Stat(c.MapDir(mapID))
	switch {
	case err == nil && info.IsDir():
		return Found, nil
	case err == nil, errors.Is(err, fs.ErrNotExist):
		return NotFound, nil
	default:
		return Unknown, err
	}
}

func (c *FilesystemCache) Get(k TileCacheKey) (TileCacheValue, error) {
	path := c.Path(k)

	existence, err := statRegular(path)
	if err != nil {
		return nil, err
	}
	if existence == NotFound {
		return nil, model.ErrTileNotFound
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return content, nil
}

// Set writes the tile through a temp file in the destination directory and
// links it into place, so a reader sees either no tile or the whole tile. A
// tile that is already present is left as it is.
func (c *FilesystemCache) Set(k TileCacheKey, v TileCacheValue) error {
	path := c.Path(k)
	dir := filepath.Dir(path)

	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrStorageWrite, k, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrStorageWrite, k, err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(v)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", model.ErrStorageWrite, k, err)
	}

	if err := os.Chmod(tmpPath, filePerm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", model.ErrStorageWrite, k, err)
	}

	linkErr := os.Link(tmpPath, path)
	os.Remove(tmpPath)
	if linkErr != nil && !errors.Is(linkErr, fs.ErrExist) {
		return fmt.Errorf("%w: %s: %v", model.ErrStorageWrite, k, linkErr)
	}

	return nil
}

// EnsureDir creates dir and its parents. A directory that already exists,
// including one created concurrently by another writer, is success.
func EnsureDir(dir string) error {
	err := os.MkdirAll(dir, dirPerm)
	if err == nil {
		return nil
	}

	if errors.Is(err, fs.ErrExist) {
		info, statErr := os.Stat(dir)
		if statErr == nil && info.IsDir() {
			return nil
		}
	}

	return err
}

func statRegular(path string) (Existence, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular():
		return Found, nil
	case err == nil, errors.Is(err, fs.ErrNotExist):
		return NotFound, nil
	default:
		return Unknown, err
	}
}
