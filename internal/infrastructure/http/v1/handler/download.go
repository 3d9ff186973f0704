package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
)

// Download fetches every missing tile of the requested region into storage.
// A batch where some tiles failed answers 207 with the failures listed.
func (h *Handler) Download(c *gin.Context) {
	var req dto.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, fmt.Errorf("%w: %v", ErrFailedToDecodeRequestBody, err))
		return
	}

	if err := model.ValidateStruct(h.validate, req); err != nil {
		h.RespondWithError(c, err)
		return
	}

	ucReq, err := req.ToUseCase()
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	report, err := h.downloadUseCase.Download(c.Request.Context(), c.Param("id"), ucReq)
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	resp := dto.NewBatchReportResponse(report)

	switch {
	case report.Failed > 0:
		h.RespondWithJSON(c, http.StatusMultiStatus,
			fmt.Sprintf("%d of %d tiles failed", report.Failed, report.Attempted), resp)
	case report.Canceled:
		h.RespondWithJSON(c, http.StatusOK, "download canceled before all tiles were added", resp)
	default:
		h.RespondWithJSON(c, http.StatusOK, "all tiles were added", resp)
	}
}
