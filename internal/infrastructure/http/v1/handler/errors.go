package handler

import (
	"errors"
	"net/http"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
)

var ErrFailedToDecodeRequestBody = errors.New("failed to decode request body")

func statusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, ErrFailedToDecodeRequestBody):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnknownMap), errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrProviderExists):
		return http.StatusConflict
	case errors.Is(err, model.ErrConfigurationMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrUpstreamFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
