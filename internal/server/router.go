package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vietcv/skillpath/internal/handlers"
	"github.com/vietcv/skillpath/internal/middleware"
	"github.com/vietcv/skillpath/internal/platform/envutil"
)

type RouterConfig struct {
	RecommendationHandler *handlers.RecommendationHandler
	CourseHandler         *handlers.CourseHandler
	SkillHandler          *handlers.SkillHandler
	HealthcheckHandler    *handlers.HealthcheckHandler
	AuthMiddleware        *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("skillpath-api"))

	router.GET("/healthcheck", cfg.HealthcheckHandler.Get)

	api := router.Group("/api/v1")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/recommendations/courses", cfg.RecommendationHandler.PostCourses)
		api.GET("/courses/by-skill/:skill_id", cfg.CourseHandler.GetBySkill)
		api.GET("/courses/:course_id", cfg.CourseHandler.GetByID)
		api.GET("/skills/search", cfg.SkillHandler.Search)
		api.POST("/skills/search/vector", cfg.SkillHandler.VectorSearch)
	}

	return router
}

func allowedOrigins() []string {
	raw := envutil.Str("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173")
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
