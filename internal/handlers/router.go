package handlers

import (
	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/realtime"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles everything the HTTP layer calls into
type Services struct {
	Logs          service.LogService
	History       service.HistoryService
	Insights      service.InsightService
	Nudges        service.NudgeService
	Reports       service.ReportService
	Export        service.ExportService
	Profiles      service.ProfileService
	Catalog       service.CatalogService
	Notifications service.NotificationService
	Sync          service.SyncService
}

// RouterConfig holds the infrastructure the router wires into middleware
type RouterConfig struct {
	Env            string
	IsProduction   bool
	AllowedOrigins []string
	Verifier       middleware.TokenVerifier
	Idempotency    repository.IdempotencyRepository
	Limiter        *middleware.RateLimiter
	Hub            *realtime.Hub
	DB             Pinger
}

// NewRouter builds the gin engine. Queries accept anonymous callers and
// answer them with empty results; mutations require a user.
func NewRouter(cfg RouterConfig, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction))

	health := NewHealthHandler(cfg.DB, cfg.Env)
	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logHandler := NewLogHandler(svc.Logs, svc.History)
	insightsHandler := NewInsightsHandler(svc.Insights)
	nudgeHandler := NewNudgeHandler(svc.Nudges)
	reportHandler := NewReportHandler(svc.Reports, svc.Export)
	profileHandler := NewProfileHandler(svc.Profiles)
	catalogHandler := NewCatalogHandler(svc.Catalog)
	notificationHandler := NewNotificationHandler(svc.Notifications)
	changesHandler := NewChangesHandler(svc.Sync)
	syncHandler := NewSyncHandler(svc.Sync)

	v1 := router.Group("/api/v1")

	public := v1.Group("")
	public.Use(middleware.OptionalAuth(cfg.Verifier))
	{
		public.GET("/logs", logHandler.GetLogs)
		public.GET("/logs/:id", logHandler.GetLog)
		public.GET("/history/last", logHandler.GetLastHistory)

		public.GET("/stats", insightsHandler.GetStats)
		public.GET("/streak", insightsHandler.GetStreak)
		public.GET("/health-score", insightsHandler.GetHealthScore)
		public.GET("/personal-bests", insightsHandler.GetPersonalBests)
		public.GET("/insights", insightsHandler.GetInsights)

		public.GET("/nudges", nudgeHandler.GetSmartNudges)
		public.GET("/nudges/upcoming-meals", nudgeHandler.GetUpcomingMeals)
		public.GET("/nudges/missing-meals", nudgeHandler.GetMissingMeals)
		public.GET("/nudges/streak-protection", nudgeHandler.GetStreakProtection)
		public.GET("/nudges/end-of-day", nudgeHandler.GetEndOfDaySummary)

		public.GET("/reports", reportHandler.GetReport)
		public.GET("/export", reportHandler.Export)

		public.GET("/profile", profileHandler.GetProfile)
		public.GET("/notifications", notificationHandler.GetNotifications)

		public.GET("/food-items", catalogHandler.GetFoodItems)
		public.GET("/sports", catalogHandler.GetSports)
		public.GET("/exercises", catalogHandler.GetExercises)
		public.GET("/routines", catalogHandler.GetRoutines)

		public.GET("/changes", changesHandler.GetChanges)
		public.GET("/changes/latest-cursor", changesHandler.GetLatestCursor)
		public.GET("/sync/status", syncHandler.GetSyncStatus)
	}

	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.Verifier))
	if cfg.Limiter != nil {
		protected.Use(middleware.RateLimit(cfg.Limiter))
	}
	if cfg.Idempotency != nil {
		protected.Use(middleware.Idempotency(cfg.Idempotency))
	}
	{
		protected.POST("/logs", logHandler.CreateLog)
		protected.PATCH("/logs/:id", logHandler.PatchLog)
		protected.DELETE("/logs/:id", logHandler.DeleteLog)
		protected.POST("/undo", logHandler.Undo)

		protected.POST("/import", reportHandler.Import)
		protected.POST("/export/backup", reportHandler.Backup)

		protected.PUT("/profile", profileHandler.UpsertProfile)
		protected.POST("/notifications/:id/read", notificationHandler.MarkRead)

		protected.POST("/sports", catalogHandler.CreateSport)
		protected.POST("/exercises", catalogHandler.CreateExercise)
		protected.POST("/routines", catalogHandler.CreateRoutine)
		protected.DELETE("/routines/:id", catalogHandler.DeleteRoutine)
	}

	if cfg.Hub != nil {
		realtimeHandler := NewRealtimeHandler(cfg.Hub)
		v1.GET("/ws", TokenFromQuery(), middleware.Auth(cfg.Verifier), realtimeHandler.Connect)
	}

	return router
}
