package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// Placeholders substituted into a provider URL template.
const (
	PlaceholderX = "{x}"
	PlaceholderY = "{y}"
	PlaceholderZ = "{z}"
)

// MaxZoom is the deepest zoom level any provider may declare.
const MaxZoom = 30

// MapProvider is a catalog entry describing an upstream tile source.
// JSON names match the maps.json seed format.
type MapProvider struct {
	ID          string `json:"id" validate:"required,mapid"`
	DisplayName string `json:"provider" validate:"required"`
	MinZoom     int    `json:"min_zoom" validate:"gte=0,lte=30"`
	MaxZoom     int    `json:"max_zoom" validate:"gte=0,lte=30,gtefield=MinZoom"`
	URLTemplate string `json:"provider_url" validate:"required,tiletemplate"`
	Extension   string `json:"extension" validate:"required,alphanum"`
}

// ValidateTemplate reports whether tmpl contains each of {x}, {y} and {z}
// exactly once.
func ValidateTemplate(tmpl string) error {
	for _, p := range []string{PlaceholderX, PlaceholderY, PlaceholderZ} {
		if n := strings.Count(tmpl, p); n != 1 {
			return fmt.Errorf("%w: url template must contain %s exactly once, found %d", ErrValidation, p, n)
		}
	}
	return nil
}

// SupportsZoom reports whether z lies in the inclusive [MinZoom, MaxZoom] range.
func (p MapProvider) SupportsZoom(z int) bool {
	return z >= p.MinZoom && z <= p.MaxZoom
}

// CheckZoom returns a validation error naming the supported range when z is
// outside it.
func (p MapProvider) CheckZoom(z int) error {
	if !p.SupportsZoom(z) {
		return fmt.Errorf("%w: zoom level %d outside supported range [%d - %d] for '%s (%s)'",
			ErrValidation, z, p.MinZoom, p.MaxZoom, p.DisplayName, p.ID)
	}
	return nil
}

// TileURL substitutes the tile coordinate into the URL template.
func (p MapProvider) TileURL(t maptile.Tile) string {
	r := strings.NewReplacer(
		PlaceholderX, strconv.FormatUint(uint64(t.X), 10),
		PlaceholderY, strconv.FormatUint(uint64(t.Y), 10),
		PlaceholderZ, strconv.FormatUint(uint64(t.Z), 10),
	)
	return r.Replace(p.URLTemplate)
}
