package tile

import (
	"fmt"
	"iter"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// ZoomRange is an inclusive range of zoom levels. A single zoom has From == To.
type ZoomRange struct {
	From maptile.Zoom
	To   maptile.Zoom
}

func SingleZoom(z maptile.Zoom) ZoomRange {
	return ZoomRange{From: z, To: z}
}

func (r ZoomRange) Validate() error {
	if r.From > r.To {
		return fmt.Errorf("%w: zoom range from %d is greater than to %d", model.ErrValidation, r.From, r.To)
	}
	return ValidateZoom(r.To)
}

// Levels yields every zoom level from From to To.
func (r ZoomRange) Levels() iter.Seq[maptile.Zoom] {
	return func(yield func(maptile.Zoom) bool) {
		for z := r.From; z <= r.To; z++ {
			if !yield(z) {
				return
			}
		}
	}
}

// Region is the rectangle between a north-west and a south-east corner over a
// range of zoom levels.
type Region struct {
	TopLeft     orb.Point
	BottomRight orb.Point
	Zooms       ZoomRange
}

// NewRegion validates both corners, their ordering and the zoom range.
// Corners given in the wrong order are rejected rather than swapped.
func NewRegion(topLeft, bottomRight orb.Point, zooms ZoomRange) (Region, error) {
	if err := Validate(topLeft); err != nil {
		return Region{}, fmt.Errorf("top left: %w", err)
	}
	if err := Validate(bottomRight); err != nil {
		return Region{}, fmt.Errorf("bottom right: %w", err)
	}
	if topLeft.Lat() < bottomRight.Lat() || topLeft.Lon() > bottomRight.Lon() {
		return Region{}, fmt.Errorf("%w: top left %v must be north-west of bottom right %v",
			model.ErrValidation, topLeft, bottomRight)
	}
	if err := zooms.Validate(); err != nil {
		return Region{}, err
	}

	return Region{TopLeft: topLeft, BottomRight: bottomRight, Zooms: zooms}, nil
}

// Span returns the corner tiles of the region at zoom z.
func (r Region) Span(z maptile.Zoom) (start, end maptile.Tile) {
	return project(r.TopLeft, z), project(r.BottomRight, z)
}

// Count returns the number of tiles Tiles yields.
func (r Region) Count() uint64 {
	var total uint64
	for z := range r.Zooms.Levels() {
		start, end := r.Span(z)
		if end.X < start.X || end.Y < start.Y {
			continue
		}
		total += uint64(end.X-start.X+1) * uint64(end.Y-start.Y+1)
	}
	return total
}

// Tiles yields every tile of the region, zoom by zoom, row by row. The
// sequence is recomputed on each iteration.
func (r Region) Tiles() iter.Seq[maptile.Tile] {
	return func(yield func(maptile.Tile) bool) {
		for z := range r.Zooms.Levels() {
			start, end := r.Span(z)
			for y := start.Y; y <= end.Y; y++ {
				for x := start.X; x <= end.X; x++ {
					if !yield(maptile.Tile{X: x, Y: y, Z: z}) {
						return
					}
				}
			}
		}
	}
}
