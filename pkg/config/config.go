package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	CatalogBackendSQLite = "sqlite"
	CatalogBackendRedis  = "redis"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Tiles     Tiles     `envPrefix:"TILES_"`
		Upstream  Upstream  `envPrefix:"UPSTREAM_"`
		Download  Download  `envPrefix:"DOWNLOAD_"`
		Catalog   Catalog   `envPrefix:"CATALOG_"`
		Redis     Redis     `envPrefix:"REDIS_"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
		CORS   CORS   `envPrefix:"CORS_"`
	}

	CORS struct {
		AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`
	}

	Server struct {
		Port         string        `env:"PORT,required"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10m"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level  string `env:"LEVEL,required"`
		Format string `env:"FORMAT" envDefault:"console"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"guide-helper-tiledb"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	// Tiles.Directory may be empty: the service still starts and the cache
	// endpoints answer with a configuration error.
	Tiles struct {
		Directory       string `env:"DIRECTORY"`
		MemoryCacheSize int    `env:"MEMORY_CACHE_SIZE" envDefault:"1024"`
	}

	Upstream struct {
		Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s"`
		UserAgent string        `env:"USER_AGENT" envDefault:"GuideHelper/1.0 (https://github.com/jaennil/guide_helper)"`
		Referer   string        `env:"REFERER" envDefault:"https://guidehelper.ru.tuna.am"`
	}

	Download struct {
		Concurrency int           `env:"CONCURRENCY" envDefault:"300"`
		MaxTiles    int           `env:"MAX_TILES" envDefault:"100000"`
		Timeout     time.Duration `env:"TIMEOUT" envDefault:"9m"`
	}

	Catalog struct {
		Backend    string `env:"BACKEND" envDefault:"sqlite"`
		SQLitePath string `env:"SQLITE_PATH" envDefault:"data/catalog.db"`
		SeedFile   string `env:"SEED_FILE" envDefault:"data/maps.json"`
	}

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD" envDefault:""`
		DB       int    `env:"DB" envDefault:"0"`
		Key      string `env:"KEY" envDefault:"tiledb:maps"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Download.Concurrency < 1 {
		return fmt.Errorf("DOWNLOAD_CONCURRENCY must be at least 1, got %d", c.Download.Concurrency)
	}
	if c.Download.MaxTiles < 1 {
		return fmt.Errorf("DOWNLOAD_MAX_TILES must be at least 1, got %d", c.Download.MaxTiles)
	}
	if c.Tiles.MemoryCacheSize < 0 {
		return fmt.Errorf("TILES_MEMORY_CACHE_SIZE must not be negative, got %d", c.Tiles.MemoryCacheSize)
	}
	switch c.Catalog.Backend {
	case CatalogBackendSQLite, CatalogBackendRedis:
	default:
		return fmt.Errorf("unknown CATALOG_BACKEND %q (supported: %s, %s)", c.Catalog.Backend, CatalogBackendSQLite, CatalogBackendRedis)
	}
	return nil
}
