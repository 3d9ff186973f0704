// Package fetch fills cache misses from an upstream tile provider under a
// fixed concurrency bound.
//
// A batch never aborts on a failed tile: every admitted task runs to a
// terminal state and the failures are collected into the Report together
// with the tile they belong to.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/telemetry"
	"github.com/paulmach/orb/maptile"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 300

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type TileWriter interface {
	Set(cache.TileCacheKey, cache.TileCacheValue) error
}

// Task is one fetch-and-write of a single tile.
type Task struct {
	Tile        maptile.Tile
	SourceURL   string
	Destination cache.TileCacheKey
}

func NewTask(p model.MapProvider, t maptile.Tile) Task {
	return Task{
		Tile:      t,
		SourceURL: p.TileURL(t),
		Destination: cache.TileCacheKey{
			MapID:     p.ID,
			Tile:      t,
			Extension: p.Extension,
		},
	}
}

type Stage string

const (
	StageCheck Stage = "check"
	StageFetch Stage = "fetch"
	StageWrite Stage = "write"
)

// TileFailure attributes an error to the tile it happened on.
type TileFailure struct {
	Tile  maptile.Tile
	Stage Stage
	Err   error
}

func (f TileFailure) Error() string {
	return fmt.Sprintf("tile %d/%d/%d: %s: %v", f.Tile.Z, f.Tile.X, f.Tile.Y, f.Stage, f.Err)
}

func (f TileFailure) Unwrap() error {
	return f.Err
}

// Reason classifies the failure without the underlying error text, which can
// carry storage paths.
func (f TileFailure) Reason() string {
	var status *upstream.StatusError
	switch {
	case errors.As(f.Err, &status):
		return fmt.Sprintf("upstream returned status %d", status.StatusCode)
	case errors.Is(f.Err, model.ErrUpstreamFetch):
		return "upstream fetch failed"
	case errors.Is(f.Err, model.ErrStorageWrite):
		return "storage write failed"
	case f.Stage == StageCheck:
		return "existence check failed"
	default:
		return fmt.Sprintf("%s failed", f.Stage)
	}
}

// Report summarises a batch. Attempted == Written + Failed.
type Report struct {
	Attempted int
	Written   int
	Failed    int
	Failures  []TileFailure
	Canceled  bool
}

// Record adds a failure that happened outside the orchestrator, such as an
// existence check error, so it shows up in the same report.
func (r *Report) Record(f TileFailure) {
	r.Attempted++
	r.Failed++
	r.Failures = append(r.Failures, f)
}

type Orchestrator struct {
	fetcher Fetcher
	writer  TileWriter
	limit   int
	logger  logger.Logger
	tracer  trace.Tracer
}

func NewOrchestrator(f Fetcher, w TileWriter, limit int, l logger.Logger) *Orchestrator {
	if limit < 1 {
		limit = DefaultConcurrency
	}

	return &Orchestrator{
		fetcher: f,
		writer:  w,
		limit:   limit,
		logger:  l,
		tracer:  telemetry.Tracer(),
	}
}

func (o *Orchestrator) Limit() int {
	return o.limit
}

// Run fetches every tile of tiles from provider p and writes it to storage,
// with at most Limit() tasks in flight. tiles must already be filtered to
// cache misses and must not repeat a coordinate. Run returns once every
// admitted task has finished. A cancelled ctx stops admission of new tiles.
func (o *Orchestrator) Run(ctx context.Context, p model.MapProvider, tiles iter.Seq[maptile.Tile]) *Report {
	ctx, span := o.tracer.Start(ctx, "fetch.Run", trace.WithAttributes(
		attribute.String("map.id", p.ID),
		attribute.Int("fetch.limit", o.limit),
	))
	defer span.End()

	var (
		mu      sync.Mutex
		report  Report
		g       errgroup.Group
		started int
	)
	g.SetLimit(o.limit)

	for t := range tiles {
		if ctx.Err() != nil {
			break
		}

		task := NewTask(p, t)
		started++

		g.Go(func() error {
			failure := o.execute(ctx, task)

			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				report.Failed++
				report.Failures = append(report.Failures, *failure)
				return nil
			}
			report.Written++
			return nil
		})
	}

	// tasks never return an error; Wait only settles them
	_ = g.Wait()

	report.Attempted = started
	report.Canceled = ctx.Err() != nil

	span.SetAttributes(
		attribute.Int("fetch.attempted", report.Attempted),
		attribute.Int("fetch.written", report.Written),
		attribute.Int("fetch.failed", report.Failed),
	)
	if report.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d tiles failed", report.Failed))
	}

	return &report
}

func (o *Orchestrator) execute(ctx context.Context, task Task) *TileFailure {
	metrics.TilesFetchInFlight.Inc()
	defer metrics.TilesFetchInFlight.Dec()

	data, err := o.fetcher.Fetch(ctx, task.SourceURL)
	if err != nil {
		return o.fail(task, StageFetch, err)
	}

	if err := o.writer.Set(task.Destination, data); err != nil {
		return o.fail(task, StageWrite, err)
	}

	metrics.TilesWritten.Inc()
	o.logger.Debug("tile written", "z", task.Tile.Z, "x", task.Tile.X, "y", task.Tile.Y, "size", len(data))
	return nil
}

func (o *Orchestrator) fail(task Task, stage Stage, err error) *TileFailure {
	metrics.TilesFailed.WithLabelValues(string(stage)).Inc()
	o.logger.Warn("tile failed",
		"stage", stage,
		"z", task.Tile.Z,
		"x", task.Tile.X,
		"y", task.Tile.Y,
		"url", task.SourceURL,
		"error", err,
	)
	return &TileFailure{Tile: task.Tile, Stage: stage, Err: err}
}
