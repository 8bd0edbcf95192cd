package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/services"
	"github.com/vietcv/skillpath/internal/types"
)

type RecommendationHandler struct {
	log    *logger.Logger
	recSvc services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, recSvc services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		log:    log.With("handler", "RecommendationHandler"),
		recSvc: recSvc,
	}
}

// POST /api/v1/recommendations/courses
// Resolves the skill gap and returns a scored, prerequisite-ordered
// course path.
func (h *RecommendationHandler) PostCourses(c *gin.Context) {
	var req types.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	resp, err := h.recSvc.Recommend(c.Request.Context(), req)
	if err != nil {
		h.log.Warn("recommendation failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, resp)
}
