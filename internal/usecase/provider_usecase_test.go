package usecase

import (
	"context"
	"testing"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderUseCase(t *testing.T) {
	f := newFixture(t, 10)
	uc := NewProviderUseCase(f.catalog, model.NewValidator(), logger.NewNoOpLogger())
	ctx := context.Background()

	topo := model.MapProvider{
		ID:          "opentopomap",
		DisplayName: "OpenTopoMap",
		MinZoom:     0,
		MaxZoom:     17,
		URLTemplate: "https://a.tile.opentopomap.org/{z}/{x}/{y}.png",
		Extension:   "png",
	}

	require.NoError(t, uc.Register(ctx, topo))
	assert.ErrorIs(t, uc.Register(ctx, topo), model.ErrProviderExists)

	got, err := uc.Get(ctx, "opentopomap")
	require.NoError(t, err)
	assert.Equal(t, topo, got)

	all, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, uc.Unregister(ctx, "opentopomap"))
	assert.ErrorIs(t, uc.Unregister(ctx, "opentopomap"), model.ErrUnknownMap)
}

func TestProviderUseCase_RegisterValidation(t *testing.T) {
	f := newFixture(t, 10)
	uc := NewProviderUseCase(f.catalog, model.NewValidator(), logger.NewNoOpLogger())

	valid := model.MapProvider{
		ID:          "carto",
		DisplayName: "Carto",
		MinZoom:     2,
		MaxZoom:     18,
		URLTemplate: "https://basemaps.example/{z}/{x}/{y}.png",
		Extension:   "png",
	}

	tests := []struct {
		name   string
		mutate func(p *model.MapProvider)
	}{
		{"missing placeholder", func(p *model.MapProvider) { p.URLTemplate = "https://x/{z}/{x}.png" }},
		{"repeated placeholder", func(p *model.MapProvider) { p.URLTemplate = "https://x/{z}/{x}/{y}/{x}.png" }},
		{"min above max", func(p *model.MapProvider) { p.MinZoom, p.MaxZoom = 10, 5 }},
		{"max above 30", func(p *model.MapProvider) { p.MaxZoom = 31 }},
		{"negative min", func(p *model.MapProvider) { p.MinZoom = -1 }},
		{"path traversal id", func(p *model.MapProvider) { p.ID = "../etc" }},
		{"empty id", func(p *model.MapProvider) { p.ID = "" }},
		{"dotted extension", func(p *model.MapProvider) { p.Extension = ".png" }},
		{"missing name", func(p *model.MapProvider) { p.DisplayName = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.ErrorIs(t, uc.Register(context.Background(), p), model.ErrValidation)
		})
	}

	assert.NoError(t, uc.Register(context.Background(), valid))
}
