package usecase

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/repository/catalog"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
)

type ProviderUseCase struct {
	catalog   catalog.Repository
	validator *validator.Validate
	logger    logger.Logger
}

func NewProviderUseCase(providers catalog.Repository, v *validator.Validate, l logger.Logger) *ProviderUseCase {
	return &ProviderUseCase{
		catalog:   providers,
		validator: v,
		logger:    l,
	}
}

func (uc *ProviderUseCase) List(ctx context.Context) ([]model.MapProvider, error) {
	return uc.catalog.List(ctx)
}

func (uc *ProviderUseCase) Get(ctx context.Context, id string) (model.MapProvider, error) {
	return uc.catalog.Get(ctx, id)
}

// Register adds p after checking the id is path-safe, the zoom range is
// ordered and the URL template carries each placeholder once.
func (uc *ProviderUseCase) Register(ctx context.Context, p model.MapProvider) error {
	if err := model.ValidateStruct(uc.validator, p); err != nil {
		return err
	}

	if err := uc.catalog.Add(ctx, p); err != nil {
		return err
	}

	uc.logger.Info("map provider registered", "id", p.ID, "min_zoom", p.MinZoom, "max_zoom", p.MaxZoom)
	return nil
}

// Unregister removes the catalog entry. Tiles already on disk are kept.
func (uc *ProviderUseCase) Unregister(ctx context.Context, id string) error {
	if err := uc.catalog.Delete(ctx, id); err != nil {
		return err
	}

	uc.logger.Info("map provider removed", "id", id)
	return nil
}
