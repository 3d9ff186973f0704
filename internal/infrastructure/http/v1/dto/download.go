package dto

import (
	"fmt"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/tile"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/usecase"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxReportedFailures caps the failures listed in a batch response.
const MaxReportedFailures = 100

type Coordinates struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

func (c Coordinates) Point() orb.Point {
	return orb.Point{*c.Longitude, *c.Latitude}
}

// ZoomLevels is either {"at": z} or {"from": a, "to": b}.
type ZoomLevels struct {
	At   *int `json:"at"`
	From *int `json:"from"`
	To   *int `json:"to"`
}

func (z ZoomLevels) Range() (tile.ZoomRange, error) {
	switch {
	case z.At != nil && (z.From != nil || z.To != nil):
		return tile.ZoomRange{}, fmt.Errorf("%w: zoom_levels takes either 'at' or 'from' and 'to'", model.ErrValidation)
	case z.At != nil:
		at, err := zoom("at", *z.At)
		if err != nil {
			return tile.ZoomRange{}, err
		}
		return tile.SingleZoom(at), nil
	case z.From != nil && z.To != nil:
		from, err := zoom("from", *z.From)
		if err != nil {
			return tile.ZoomRange{}, err
		}
		to, err := zoom("to", *z.To)
		if err != nil {
			return tile.ZoomRange{}, err
		}
		return tile.ZoomRange{From: from, To: to}, nil
	default:
		return tile.ZoomRange{}, fmt.Errorf("%w: zoom_levels requires 'at' or both 'from' and 'to'", model.ErrValidation)
	}
}

func zoom(name string, v int) (maptile.Zoom, error) {
	if v < 0 || v > model.MaxZoom {
		return 0, fmt.Errorf("%w: zoom_levels.%s must be in [0, %d], got %d", model.ErrValidation, name, model.MaxZoom, v)
	}
	return maptile.Zoom(v), nil
}

type DownloadRequest struct {
	TopLeft     *Coordinates `json:"top_left_coordinates" validate:"required"`
	BottomRight *Coordinates `json:"bottom_right_coordinates" validate:"required"`
	ZoomLevels  *ZoomLevels  `json:"zoom_levels" validate:"required"`
}

// ToUseCase converts an already validated request.
func (r DownloadRequest) ToUseCase() (usecase.DownloadRequest, error) {
	zooms, err := r.ZoomLevels.Range()
	if err != nil {
		return usecase.DownloadRequest{}, err
	}

	return usecase.DownloadRequest{
		TopLeft:     r.TopLeft.Point(),
		BottomRight: r.BottomRight.Point(),
		Zooms:       zooms,
	}, nil
}

type TileFailure struct {
	Z     uint32 `json:"z"`
	X     uint32 `json:"x"`
	Y     uint32 `json:"y"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

type BatchReportResponse struct {
	BatchID           string        `json:"batch_id"`
	MapID             string        `json:"map_id"`
	Requested         uint64        `json:"requested"`
	Cached            int           `json:"cached"`
	Attempted         int           `json:"attempted"`
	Written           int           `json:"written"`
	Failed            int           `json:"failed"`
	NotStarted        uint64        `json:"not_started"`
	Canceled          bool          `json:"canceled"`
	Duration          string        `json:"duration"`
	Failures          []TileFailure `json:"failures"`
	FailuresTruncated bool          `json:"failures_truncated,omitempty"`
}

func NewBatchReportResponse(r *usecase.BatchReport) BatchReportResponse {
	resp := BatchReportResponse{
		BatchID:    r.BatchID,
		MapID:      r.MapID,
		Requested:  r.Requested,
		Cached:     r.Cached,
		Attempted:  r.Attempted,
		Written:    r.Written,
		Failed:     r.Failed,
		NotStarted: r.NotStarted(),
		Canceled:   r.Canceled,
		Duration:   r.Duration.String(),
		Failures:   make([]TileFailure, 0, min(len(r.Failures), MaxReportedFailures)),
	}

	for i, f := range r.Failures {
		if i == MaxReportedFailures {
			resp.FailuresTruncated = true
			break
		}
		resp.Failures = append(resp.Failures, TileFailure{
			Z:     uint32(f.Tile.Z),
			X:     f.Tile.X,
			Y:     f.Tile.Y,
			Stage: string(f.Stage),
			Error: f.Reason(),
		})
	}

	return resp
}
