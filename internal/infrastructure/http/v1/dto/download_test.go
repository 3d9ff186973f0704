package dto

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/fetch"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/tile"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/usecase"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failures(n int) []fetch.TileFailure {
	out := make([]fetch.TileFailure, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fetch.TileFailure{
			Tile:  maptile.New(uint32(i), 3, 12),
			Stage: fetch.StageWrite,
			Err:   fmt.Errorf("%w: open /srv/tiles/osm/12/3: permission denied", model.ErrStorageWrite),
		})
	}
	return out
}

func TestNewBatchReportResponse_CapsFailures(t *testing.T) {
	report := &usecase.BatchReport{
		BatchID:   "b-1",
		MapID:     "osm",
		Requested: 500,
		Cached:    100,
		Attempted: 150,
		Written:   49,
		Failed:    101,
		Canceled:  true,
		Duration:  1500 * time.Millisecond,
		Failures:  failures(101),
	}

	resp := NewBatchReportResponse(report)

	assert.Len(t, resp.Failures, MaxReportedFailures)
	assert.True(t, resp.FailuresTruncated)
	assert.Equal(t, 101, resp.Failed)
	assert.EqualValues(t, 250, resp.NotStarted)
	assert.Equal(t, "1.5s", resp.Duration)
	assert.True(t, resp.Canceled)

	first := resp.Failures[0]
	assert.Equal(t, TileFailure{Z: 12, X: 0, Y: 3, Stage: "write", Error: "storage write failed"}, first)
	assert.EqualValues(t, 99, resp.Failures[99].X)
}

func TestNewBatchReportResponse_ExactlyAtCap(t *testing.T) {
	report := &usecase.BatchReport{
		Requested: 100,
		Attempted: 100,
		Failed:    100,
		Failures:  failures(MaxReportedFailures),
	}

	resp := NewBatchReportResponse(report)

	assert.Len(t, resp.Failures, MaxReportedFailures)
	assert.False(t, resp.FailuresTruncated)
	assert.Zero(t, resp.NotStarted)
}

func TestNewBatchReportResponse_NoFailures(t *testing.T) {
	resp := NewBatchReportResponse(&usecase.BatchReport{Requested: 4, Cached: 1, Attempted: 3, Written: 3})

	assert.NotNil(t, resp.Failures)
	assert.Empty(t, resp.Failures)
	assert.False(t, resp.FailuresTruncated)
	assert.Zero(t, resp.NotStarted)
}

func TestNewBatchReportResponse_HidesErrorDetail(t *testing.T) {
	report := &usecase.BatchReport{
		Requested: 1,
		Attempted: 1,
		Failed:    1,
		Failures: []fetch.TileFailure{{
			Tile:  maptile.New(15, 10, 5),
			Stage: fetch.StageCheck,
			Err:   errors.New("stat /srv/tiles/osm/5/10/5_10_15.png: not a directory"),
		}},
	}

	resp := NewBatchReportResponse(report)

	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "existence check failed", resp.Failures[0].Error)
	assert.Equal(t, "check", resp.Failures[0].Stage)
}

func TestZoomLevels_Range(t *testing.T) {
	intp := func(v int) *int { return &v }

	tests := []struct {
		name    string
		levels  ZoomLevels
		want    tile.ZoomRange
		wantErr bool
	}{
		{"single", ZoomLevels{At: intp(5)}, tile.SingleZoom(5), false},
		{"range", ZoomLevels{From: intp(3), To: intp(7)}, tile.ZoomRange{From: 3, To: 7}, false},
		{"both forms", ZoomLevels{At: intp(5), From: intp(3), To: intp(7)}, tile.ZoomRange{}, true},
		{"half range", ZoomLevels{From: intp(3)}, tile.ZoomRange{}, true},
		{"empty", ZoomLevels{}, tile.ZoomRange{}, true},
		{"negative", ZoomLevels{At: intp(-1)}, tile.ZoomRange{}, true},
		{"too deep", ZoomLevels{From: intp(0), To: intp(31)}, tile.ZoomRange{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.levels.Range()
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
