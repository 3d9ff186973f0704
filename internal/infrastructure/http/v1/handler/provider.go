package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
)

func (h *Handler) ListMaps(c *gin.Context) {
	providers, err := h.providerUseCase.List(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, fmt.Sprintf("%d map providers registered", len(providers)), providers)
}

func (h *Handler) GetMap(c *gin.Context) {
	provider, err := h.providerUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "map provider found", provider)
}

func (h *Handler) AddMap(c *gin.Context) {
	var provider model.MapProvider
	if err := c.ShouldBindJSON(&provider); err != nil {
		h.RespondWithError(c, fmt.Errorf("%w: %v", ErrFailedToDecodeRequestBody, err))
		return
	}

	if err := h.providerUseCase.Register(c.Request.Context(), provider); err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusCreated, "map provider registered", provider)
}

func (h *Handler) DeleteMap(c *gin.Context) {
	id := c.Param("id")

	if err := h.providerUseCase.Unregister(c.Request.Context(), id); err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, fmt.Sprintf("map provider '%s' removed", id), nil)
}

func (h *Handler) MapStats(c *gin.Context) {
	stats, err := h.tileUseCase.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "map cache stats", stats)
}
