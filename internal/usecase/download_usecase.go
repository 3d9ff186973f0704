package usecase

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/fetch"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/repository/catalog"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/tile"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/metrics"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

type TileStore = cache.Store

type DownloadRequest struct {
	TopLeft     orb.Point
	BottomRight orb.Point
	Zooms       tile.ZoomRange
}

// BatchReport is the outcome of one download. Requested counts every tile
// of the region; Cached ones were already on disk and never fetched.
type BatchReport struct {
	BatchID   string
	MapID     string
	Requested uint64
	Cached    int
	Attempted int
	Written   int
	Failed    int
	Canceled  bool
	Duration  time.Duration
	Failures  []fetch.TileFailure
}

// NotStarted is the number of tiles skipped because the batch was canceled.
func (r *BatchReport) NotStarted() uint64 {
	return r.Requested - uint64(r.Cached) - uint64(r.Attempted)
}

type DownloadUseCase struct {
	catalog      catalog.Repository
	store        TileStore
	orchestrator *fetch.Orchestrator
	maxTiles     uint64
	timeout      time.Duration
	logger       logger.Logger
}

// NewDownloadUseCase builds the batch download flow. store may be nil when no
// storage root is configured; Download then fails with ErrConfigurationMissing.
func NewDownloadUseCase(
	providers catalog.Repository,
	store TileStore,
	orchestrator *fetch.Orchestrator,
	maxTiles int,
	timeout time.Duration,
	l logger.Logger,
) *DownloadUseCase {
	return &DownloadUseCase{
		catalog:      providers,
		store:        store,
		orchestrator: orchestrator,
		maxTiles:     uint64(maxTiles),
		timeout:      timeout,
		logger:       l,
	}
}

func (uc *DownloadUseCase) Download(ctx context.Context, mapID string, req DownloadRequest) (*BatchReport, error) {
	if uc.store == nil {
		return nil, model.ErrConfigurationMissing
	}

	provider, err := uc.catalog.Get(ctx, mapID)
	if err != nil {
		return nil, err
	}

	if err := req.Zooms.Validate(); err != nil {
		return nil, err
	}
	if err := provider.CheckZoom(int(req.Zooms.From)); err != nil {
		return nil, err
	}
	if err := provider.CheckZoom(int(req.Zooms.To)); err != nil {
		return nil, err
	}

	region, err := tile.NewRegion(req.TopLeft, req.BottomRight, req.Zooms)
	if err != nil {
		return nil, err
	}

	requested := region.Count()
	if requested > uc.maxTiles {
		return nil, fmt.Errorf("%w: region covers %d tiles, limit is %d", model.ErrValidation, requested, uc.maxTiles)
	}

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	report := &BatchReport{
		BatchID:   uuid.NewString(),
		MapID:     provider.ID,
		Requested: requested,
	}
	uc.logger.Info("download batch started",
		"batch_id", report.BatchID,
		"map_id", provider.ID,
		"zoom_from", req.Zooms.From,
		"zoom_to", req.Zooms.To,
		"requested", requested,
		"concurrency", uc.orchestrator.Limit(),
	)

	start := time.Now()

	var checkFailures []fetch.TileFailure
	misses := uc.misses(provider, region.Tiles(), &report.Cached, &checkFailures)

	result := uc.orchestrator.Run(ctx, provider, misses)
	for _, f := range checkFailures {
		result.Record(f)
	}

	report.Attempted = result.Attempted
	report.Written = result.Written
	report.Failed = result.Failed
	report.Failures = result.Failures
	report.Canceled = result.Canceled
	report.Duration = time.Since(start)

	outcome := "ok"
	switch {
	case report.Canceled:
		outcome = "canceled"
	case report.Failed > 0:
		outcome = "partial"
	}
	metrics.DownloadBatches.WithLabelValues(outcome).Inc()

	uc.logger.Info("download batch finished",
		"batch_id", report.BatchID,
		"map_id", provider.ID,
		"outcome", outcome,
		"requested", report.Requested,
		"cached", report.Cached,
		"attempted", report.Attempted,
		"written", report.Written,
		"failed", report.Failed,
		"duration", report.Duration,
	)

	return report, nil
}

// misses filters tiles down to those not yet on disk. Tiles whose presence
// cannot be determined are recorded as check failures instead of fetched.
// The returned sequence is consumed from a single goroutine.
func (uc *DownloadUseCase) misses(
	p model.MapProvider,
	tiles iter.Seq[maptile.Tile],
	cached *int,
	failures *[]fetch.TileFailure,
) iter.Seq[maptile.Tile] {
	return func(yield func(maptile.Tile) bool) {
		for t := range tiles {
			key := cache.TileCacheKey{MapID: p.ID, Tile: t, Extension: p.Extension}

			state, err := uc.store.Exists(key)
			switch state {
			case cache.Found:
				*cached++
				metrics.TilesCacheHits.Inc()
				continue
			case cache.Unknown:
				metrics.TilesFailed.WithLabelValues(string(fetch.StageCheck)).Inc()
				uc.logger.Warn("tile existence check failed", "z", t.Z, "x", t.X, "y", t.Y, "error", err)
				*failures = append(*failures, fetch.TileFailure{Tile: t, Stage: fetch.StageCheck, Err: err})
				continue
			}

			metrics.TilesCacheMisses.Inc()
			if !yield(t) {
				return
			}
		}
	}
}
