package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteRepository keeps the catalog in a single sqlite file. Writes are
// serialised so concurrent registrations of the same id resolve to exactly
// one winner.
type SQLiteRepository struct {
	db     *sql.DB
	mu     sync.Mutex
	logger logger.Logger
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(path string, l logger.Logger) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	r := &SQLiteRepository{
		db:     db,
		logger: l,
	}

	err = r.runMigrations()
	if err != nil {
		db.Close()
		return nil, err
	}

	l.Info("sqlite catalog initialized", "path", path)

	return r, nil
}

func (r *SQLiteRepository) runMigrations() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	err = goose.Up(r.db, "migrations")
	if err != nil {
		return fmt.Errorf("failed to migrate catalog: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (model.MapProvider, error) {
	query := `SELECT id, display_name, min_zoom, max_zoom, url_template, extension
	FROM map_providers
	WHERE id = ?`

	var p model.MapProvider
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.DisplayName, &p.MinZoom, &p.MaxZoom, &p.URLTemplate, &p.Extension)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.MapProvider{}, fmt.Errorf("%w: %s", model.ErrUnknownMap, id)
		}
		r.logger.Error("sqlite catalog get failed", "id", id, "error", err)
		return model.MapProvider{}, err
	}

	return p, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]model.MapProvider, error) {
	query := `SELECT id, display_name, min_zoom, max_zoom, url_template, extension
	FROM map_providers
	ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("sqlite catalog list failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	providers := make([]model.MapProvider, 0)
	for rows.Next() {
		var p model.MapProvider
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.MinZoom, &p.MaxZoom, &p.URLTemplate, &p.Extension); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	return providers, rows.Err()
}

func (r *SQLiteRepository) Add(ctx context.Context, p model.MapProvider) error {
	r.logger.Debug("sqlite catalog add", "id", p.ID)

	query := `INSERT INTO map_providers (id, display_name, min_zoom, max_zoom, url_template, extension)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING`

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, query, p.ID, p.DisplayName, p.MinZoom, p.MaxZoom, p.URLTemplate, p.Extension)
	if err != nil {
		r.logger.Error("sqlite catalog add failed", "id", p.ID, "error", err)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrProviderExists, p.ID)
	}

	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM map_providers WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("sqlite catalog delete failed", "id", id, "error", err)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrUnknownMap, id)
	}

	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
