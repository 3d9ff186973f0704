package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
)

const tileCacheControl = "public, max-age=604800"

// TileLocal serves a downloaded tile addressed as ?x=&y=&z=.
func (h *Handler) TileLocal(c *gin.Context) {
	x, y, z, err := parseTile(c.Query("x"), c.Query("y"), c.Query("z"))
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.serveTile(c, x, y, z)
}

// TileLocalPath serves a downloaded tile addressed as /:z/:x/:y.
func (h *Handler) TileLocalPath(c *gin.Context) {
	x, y, z, err := parseTile(c.Param("x"), c.Param("y"), c.Param("z"))
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.serveTile(c, x, y, z)
}

func (h *Handler) serveTile(c *gin.Context, x, y, z int) {
	l := requestLogger(c)
	id := c.Param("id")

	tile, err := h.tileUseCase.GetCachedTile(c.Request.Context(), id, x, y, z)
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	c.Header("ETag", tile.ETag)
	c.Header("Cache-Control", tileCacheControl)
	c.Header("X-Tile-Source", "cache")

	if match := c.GetHeader("If-None-Match"); match != "" && etagMatches(match, tile.ETag) {
		c.Status(http.StatusNotModified)
		return
	}

	l.Debug("tile from cache",
		"map_id", id,
		"tile", fmt.Sprintf("%d/%d/%d", z, x, y),
		"size", len(tile.Data),
	)

	c.Data(http.StatusOK, tile.ContentType, tile.Data)
}

func parseTile(strX, strY, strZ string) (x, y, z int, err error) {
	if strX == "" || strY == "" || strZ == "" {
		return 0, 0, 0, fmt.Errorf("%w: x, y and z are required", model.ErrValidation)
	}

	x, err = strconv.Atoi(strX)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: x should be integer", model.ErrValidation)
	}

	y, err = strconv.Atoi(strY)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: y should be integer", model.ErrValidation)
	}

	z, err = strconv.Atoi(strZ)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: z should be integer", model.ErrValidation)
	}

	return x, y, z, nil
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
