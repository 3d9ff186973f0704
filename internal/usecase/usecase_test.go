package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/fetch"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/repository/catalog"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/config"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/stretchr/testify/require"
)

// fakeUpstream serves "tile:<path>" for every request and counts them.
type fakeUpstream struct {
	*httptest.Server
	hits atomic.Int64

	mu     sync.Mutex
	paths  []string
	failOn map[string]int
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{failOn: make(map[string]int)}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		status, fail := f.failOn[r.URL.Path]
		f.mu.Unlock()

		if fail {
			http.Error(w, "upstream error", status)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("tile:" + r.URL.Path))
	}))
	t.Cleanup(f.Close)
	return f
}

// fail makes path answer with status; 0 restores it.
func (f *fakeUpstream) fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.failOn, path)
		return
	}
	f.failOn[path] = status
}

func (f *fakeUpstream) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.paths...)
	sort.Strings(out)
	return out
}

type fixture struct {
	root     string
	store    *cache.FilesystemCache
	catalog  catalog.Repository
	upstream *fakeUpstream
	client   *upstream.Client
	download *DownloadUseCase
	tiles    *TileUseCase
}

func newFixture(t *testing.T, maxTiles int) *fixture {
	t.Helper()
	l := logger.NewNoOpLogger()

	root := t.TempDir()
	store, err := cache.NewFilesystemCache(root)
	require.NoError(t, err)

	repo, err := catalog.NewSQLiteRepository(filepath.Join(t.TempDir(), "catalog.db"), l)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	up := newFakeUpstream(t)
	require.NoError(t, repo.Add(context.Background(), model.MapProvider{
		ID:          "osm",
		DisplayName: "OpenStreetMap",
		MinZoom:     0,
		MaxZoom:     19,
		URLTemplate: up.URL + "/{z}/{x}/{y}.png",
		Extension:   "png",
	}))

	client := upstream.NewClient(config.Upstream{Timeout: 5 * time.Second, UserAgent: "tiledb-test"}, 8, l)
	orchestrator := fetch.NewOrchestrator(client, store, 8, l)

	return &fixture{
		root:     root,
		store:    store,
		catalog:  repo,
		upstream: up,
		client:   client,
		download: NewDownloadUseCase(repo, store, orchestrator, maxTiles, time.Minute, l),
		tiles:    NewTileUseCase(repo, store, l),
	}
}

func writeTile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
