package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/services"
	"github.com/vietcv/skillpath/internal/types"
)

type SkillHandler struct {
	log       *logger.Logger
	searchSvc services.SkillSearchService
}

func NewSkillHandler(log *logger.Logger, searchSvc services.SkillSearchService) *SkillHandler {
	return &SkillHandler{
		log:       log.With("handler", "SkillHandler"),
		searchSvc: searchSvc,
	}
}

// GET /api/v1/skills/search?q=...&limit=N
// Label search over the relational skill metadata.
func (h *SkillHandler) Search(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	out, err := h.searchSvc.SearchByName(c.Request.Context(), query, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"skills": out})
}

// POST /api/v1/skills/search/vector
// Embedding similarity search over the skill requirement collection.
func (h *SkillHandler) VectorSearch(c *gin.Context) {
	var req types.SkillSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	out, err := h.searchSvc.SearchByVector(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"skills": out})
}
