package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/services"
)

type CourseHandler struct {
	log    *logger.Logger
	recSvc services.RecommendationService
}

func NewCourseHandler(log *logger.Logger, recSvc services.RecommendationService) *CourseHandler {
	return &CourseHandler{
		log:    log.With("handler", "CourseHandler"),
		recSvc: recSvc,
	}
}

// GET /api/v1/courses/by-skill/:skill_id?limit=N
// Courses teaching one skill, best edge weight first.
func (h *CourseHandler) GetBySkill(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	out, err := h.recSvc.CoursesTeaching(c.Request.Context(), c.Param("skill_id"), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"courses": out})
}

// GET /api/v1/courses/:course_id
func (h *CourseHandler) GetByID(c *gin.Context) {
	out, err := h.recSvc.CourseDetail(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, out)
}
