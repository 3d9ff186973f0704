package usecase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/config"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelay(t *testing.T, handler http.HandlerFunc) (*RelayUseCase, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := upstream.NewClient(config.Upstream{Timeout: 2 * time.Second, UserAgent: "tiledb-test"}, 2, logger.NewNoOpLogger())
	return NewRelayUseCase(client, logger.NewNoOpLogger()), srv.URL
}

func TestRelay_PassesThrough(t *testing.T) {
	uc, base := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/2/3.jpg", r.URL.Path)
		assert.Equal(t, "key=abc", r.URL.RawQuery)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	})

	resp, err := uc.Relay(context.Background(), base+"/1/2/3.jpg?key=abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "image/jpeg", resp.ContentType)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), body)
}

func TestRelay_SniffsMissingContentType(t *testing.T) {
	uc, base := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write(pngMagic)
	})

	resp, err := uc.Relay(context.Background(), base+"/tile")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "image/png", resp.ContentType)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, pngMagic, body)
}

func TestRelay_UpstreamError(t *testing.T) {
	uc, base := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	_, err := uc.Relay(context.Background(), base+"/tile")
	assert.ErrorIs(t, err, model.ErrUpstreamFetch)
}

func TestRelay_RejectsBadURL(t *testing.T) {
	uc, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	})

	for _, raw := range []string{"", "tile.example/1/2/3.png", "ftp://tile.example/x", "http://", "::"} {
		_, err := uc.Relay(context.Background(), raw)
		assert.ErrorIs(t, err, model.ErrValidation, raw)
	}
}
