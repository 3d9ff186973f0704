package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Relay streams an arbitrary upstream URL back to the caller. The URL is the
// rest of the path after /tile/provider/, or the url query parameter.
func (h *Handler) Relay(c *gin.Context) {
	rawURL := strings.TrimPrefix(c.Param("url"), "/")
	if rawURL == "" {
		rawURL = c.Query("url")
	} else if c.Request.URL.RawQuery != "" {
		rawURL += "?" + c.Request.URL.RawQuery
	}

	resp, err := h.relayUseCase.Relay(c.Request.Context(), rawURL)
	if err != nil {
		h.RespondWithError(c, err)
		return
	}
	defer resp.Body.Close()

	c.DataFromReader(http.StatusOK, resp.ContentLength, resp.ContentType, resp.Body, map[string]string{
		"X-Tile-Source": "network",
	})
}
