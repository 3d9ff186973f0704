package model

import (
	"errors"
	"fmt"
)

var (
	ErrConfigurationMissing = errors.New("tiles directory is not configured")
	ErrUnknownMap           = errors.New("map provider not found")
	ErrProviderExists       = errors.New("map provider already exists")
	ErrValidation           = errors.New("validation failed")
	ErrUpstreamFetch        = errors.New("upstream fetch failed")
	ErrStorageWrite         = errors.New("storage write failed")
	ErrNotFound             = errors.New("not found")

	ErrMapNotDownloaded = fmt.Errorf("%w: no tiles downloaded for map", ErrNotFound)
	ErrTileNotFound     = fmt.Errorf("%w: tile not cached", ErrNotFound)
)
