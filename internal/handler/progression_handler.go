package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talentio/admission-api/internal/middleware"
	"github.com/talentio/admission-api/internal/service"
	"github.com/talentio/admission-api/pkg/response"
)

// ProgressionHandler serves the aggregated candidate overview.
type ProgressionHandler struct {
	progression *service.ProgressionService
}

// NewProgressionHandler constructs ProgressionHandler.
func NewProgressionHandler(progression *service.ProgressionService) *ProgressionHandler {
	return &ProgressionHandler{progression: progression}
}

// Overview godoc
// @Summary Aggregated profile, document, and process view for a candidate
// @Tags Progression
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id}/overview [get]
func (h *ProgressionHandler) Overview(c *gin.Context) {
	candidateID, err := candidateIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	overview, cacheHit, err := h.progression.Overview(c.Request.Context(), candidateID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, overview, nil, meta)
}
