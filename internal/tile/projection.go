// Package tile maps geographic coordinates onto the Web-Mercator tile grid
// and enumerates the tiles covering a rectangular region.
package tile

import (
	"fmt"
	"math"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxLatitude is the northern and southern limit of the Web-Mercator
// projection in degrees, rounded inwards.
const MaxLatitude = 85.0511

// Validate reports whether p is inside the projectable domain:
// |lat| <= MaxLatitude and lon in [-180, 180].
func Validate(p orb.Point) error {
	lat, lon := p.Lat(), p.Lon()
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return fmt.Errorf("%w: coordinate is not a number", model.ErrValidation)
	}
	if lat < -MaxLatitude || lat > MaxLatitude {
		return fmt.Errorf("%w: latitude %v outside [-%v, %v]", model.ErrValidation, lat, MaxLatitude, MaxLatitude)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", model.ErrValidation, lon)
	}
	return nil
}

// ValidateZoom rejects zoom levels deeper than model.MaxZoom.
func ValidateZoom(z maptile.Zoom) error {
	if z > model.MaxZoom {
		return fmt.Errorf("%w: zoom level %d exceeds %d", model.ErrValidation, z, model.MaxZoom)
	}
	return nil
}

// Project returns the tile containing p at zoom z.
func Project(p orb.Point, z maptile.Zoom) (maptile.Tile, error) {
	if err := Validate(p); err != nil {
		return maptile.Tile{}, err
	}
	if err := ValidateZoom(z); err != nil {
		return maptile.Tile{}, err
	}
	return project(p, z), nil
}

// project applies the spherical Web-Mercator formula. p and z must already be
// validated.
func project(p orb.Point, z maptile.Zoom) maptile.Tile {
	n := math.Exp2(float64(z))
	phi := p.Lat() * math.Pi / 180

	x := math.Floor(n * (p.Lon() + 180) / 360)
	y := math.Floor(n * (1 - math.Log(math.Tan(phi)+1/math.Cos(phi))/math.Pi) / 2)

	// lon == 180 is the east edge of the last column.
	if x >= n {
		x = n - 1
	}
	// float noise at the latitude limits
	if y < 0 {
		y = 0
	} else if y >= n {
		y = n - 1
	}

	return maptile.Tile{X: uint32(x), Y: uint32(y), Z: z}
}
