package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/usecase"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	validate        *validator.Validate
	downloadUseCase *usecase.DownloadUseCase
	tileUseCase     *usecase.TileUseCase
	relayUseCase    *usecase.RelayUseCase
	providerUseCase *usecase.ProviderUseCase
}

func NewHandler(
	v *validator.Validate,
	download *usecase.DownloadUseCase,
	tiles *usecase.TileUseCase,
	relay *usecase.RelayUseCase,
	providers *usecase.ProviderUseCase,
) *Handler {
	return &Handler{
		validate:        v,
		downloadUseCase: download,
		tileUseCase:     tiles,
		relayUseCase:    relay,
		providerUseCase: providers,
	}
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context, err error) {
	l := requestLogger(c)

	l.Error("internal http_server error",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"user_agent", c.Request.UserAgent(),
		"ip", c.ClientIP(),
		"error", err,
	)

	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

// RespondWithError maps err onto a status code. Anything unclassified is an
// internal error and its text is not sent to the client. err is attached to
// the gin context for the tracing middleware.
func (h *Handler) RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := statusCode(err)
	if code == http.StatusInternalServerError {
		h.RespondWithInternalServerError(c, err)
		return
	}

	if code >= 500 {
		requestLogger(c).Error("http_server error",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", code,
			"error", err,
		)
	}

	h.RespondWithJSON(c, code, err.Error(), nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

func requestLogger(c *gin.Context) logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
