// Package catalog stores the map providers the service knows about.
package catalog

import (
	"context"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
)

// Repository is the provider catalog. Get returns model.ErrUnknownMap for an
// unregistered id and Add returns model.ErrProviderExists for a taken one.
type Repository interface {
	Get(ctx context.Context, id string) (model.MapProvider, error)
	List(ctx context.Context) ([]model.MapProvider, error)
	Add(ctx context.Context, p model.MapProvider) error
	Delete(ctx context.Context, id string) error
	Close() error
}
