package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
)

// Seed registers every provider listed in the JSON array at path. Providers
// already in the catalog are left untouched, so seeding on every start is
// safe. A missing file is not an error.
func Seed(ctx context.Context, repo Repository, v *validator.Validate, path string, l logger.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.Warn("catalog seed file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, err
	}

	var providers []model.MapProvider
	if err := json.Unmarshal(data, &providers); err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	added := 0
	for _, p := range providers {
		if err := model.ValidateStruct(v, p); err != nil {
			return added, fmt.Errorf("seed entry %q: %w", p.ID, err)
		}

		err := repo.Add(ctx, p)
		switch {
		case err == nil:
			added++
		case errors.Is(err, model.ErrProviderExists):
			l.Debug("seed provider already registered", "id", p.ID)
		default:
			return added, err
		}
	}

	l.Info("catalog seeded", "path", path, "added", added, "total", len(providers))

	return added, nil
}
