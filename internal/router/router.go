package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/exstem-assessment/internal/config"
	"github.com/stemsi/exstem-assessment/internal/handler"
	"github.com/stemsi/exstem-assessment/internal/metrics"
	"github.com/stemsi/exstem-assessment/internal/middleware"
	"github.com/stemsi/exstem-assessment/internal/response"
	"github.com/stemsi/exstem-assessment/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	Attempt *handler.AttemptHandler
	Results *handler.ResultsHandler
	Monitor *handler.MonitorHandler
	Health  *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	identity *service.IdentityService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(metrics.MetricsMiddleware())

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", metrics.PrometheusHandler())

	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(identity), middleware.Brotli(cfg.CompressionMinBytes))

	// ─── 1. Shared (any role, access checked per class) ────────────────
	{
		// Start and submit share one bucket per user.
		limited := func(h gin.HandlerFunc) []gin.HandlerFunc { return []gin.HandlerFunc{h} }
		if cfg.AttemptRateLimit > 0 {
			limiter := middleware.NewRateLimiter(cfg.AttemptRateLimit).Middleware()
			limited = func(h gin.HandlerFunc) []gin.HandlerFunc { return []gin.HandlerFunc{limiter, h} }
		}

		api.GET("/sessions/:session_id", handlers.Session.GetSession)
		api.GET("/classes/:class_id/sessions", handlers.Session.ListClassSessions)

		api.POST("/sessions/:session_id/attempts", limited(handlers.Attempt.StartAttempt)...)
		api.GET("/sessions/:session_id/attempts", handlers.Attempt.ListMyAttempts)
		api.POST("/sessions/:session_id/attempts/:attempt_id/submit", limited(handlers.Attempt.SubmitAttempt)...)
		api.GET("/attempts/:attempt_id", handlers.Attempt.GetAttempt)
	}

	// ─── 2. Student Group ──────────────────────────────────────────────
	studentAPI := api.Group("/student")
	studentAPI.Use(middleware.RequireStudent())
	{
		studentAPI.GET("/sessions", handlers.Session.ListMySessions)
	}

	// ─── 3. Teacher Group (teachers and admins) ────────────────────────
	teacherAPI := api.Group("/teacher")
	teacherAPI.Use(middleware.RequireTeacher())
	{
		teacherAPI.POST("/classes/:class_id/sessions", handlers.Session.CreateSession)
		teacherAPI.PUT("/sessions/:session_id", handlers.Session.UpdateSession)
		teacherAPI.POST("/sessions/:session_id/activate", handlers.Session.ActivateSession)
		teacherAPI.POST("/sessions/:session_id/deactivate", handlers.Session.DeactivateSession)
		teacherAPI.DELETE("/sessions/:session_id", handlers.Session.DeleteSession)
		teacherAPI.GET("/sessions/:session_id/results", handlers.Results.GetSessionResults)
		teacherAPI.GET("/sessions/:session_id/attempts", handlers.Results.ListSessionAttempts)
	}

	// ─── 4. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(identity))
	{
		ws.GET("/teacher/sessions/:session_id/monitor", middleware.RequireTeacher(), handlers.Monitor.MonitorSession)
	}

	return router
}
