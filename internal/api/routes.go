package api

import (
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Plans         service.PlanService
	Conflicts     service.ConflictDetector
	Activation    service.ActivationCoordinator
	Tracker       service.GenerationTracker
	Materializer  service.Materializer
	Resolver      service.ScheduleResolver
	Ordering      service.OrderingManager
	Instances     service.InstanceService
	Exports       service.ExportService
	Scheduler     service.GenerationScheduler
	LookaheadDays int
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services, log *logger.Logger) {
	planHandler := NewPlanHandler(svc.Plans, svc.Conflicts, svc.Activation, svc.Tracker, svc.Materializer, svc.LookaheadDays, log)
	calendarHandler := NewCalendarHandler(svc.Resolver, svc.Ordering, svc.Instances, svc.Exports, svc.Scheduler, log)
	instanceHandler := NewInstanceHandler(svc.Instances, log)
	adminHandler := NewAdminHandler(svc.Scheduler, log)

	router.Use(RequestID(), RequestLogger(log))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	protected := router.Group("/api/v1")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		// --- Plan Routes ---
		plans := protected.Group("/plans")
		{
			plans.POST("", planHandler.CreatePlan)
			plans.GET("", planHandler.ListPlans)
			plans.POST("/conflicts", planHandler.CheckConflicts)
			plans.GET("/:planId", planHandler.GetPlan)
			plans.PUT("/:planId", planHandler.UpdatePlan)
			plans.DELETE("/:planId", planHandler.DeletePlan)
			plans.POST("/:planId/activate", planHandler.ActivatePlan)
			plans.POST("/:planId/deactivate", planHandler.DeactivatePlan)
			plans.GET("/:planId/status", planHandler.GenerationStatus)
			plans.POST("/:planId/materialize", planHandler.MaterializePlan)
		}

		// --- Calendar Routes ---
		calendar := protected.Group("/calendar")
		{
			calendar.GET("", calendarHandler.GetRange)
			calendar.POST("/export", calendarHandler.ExportRange)
			calendar.POST("/generate", calendarHandler.Generate)
			calendar.GET("/:date", calendarHandler.GetDay)
			calendar.DELETE("/:date", calendarHandler.ClearDay)
			calendar.POST("/:date/reorder", calendarHandler.ReorderDay)
		}

		// --- Instance Routes ---
		instances := protected.Group("/instances")
		{
			instances.POST("", instanceHandler.AddManual)
			instances.PUT("/:instanceId", instanceHandler.UpdateInstance)
			instances.POST("/:instanceId/complete", instanceHandler.SetCompleted)
			instances.POST("/:instanceId/hide", instanceHandler.SetHidden)
			instances.DELETE("/:instanceId", instanceHandler.DeleteInstance)
		}

		// --- Override Ledger ---
		protected.POST("/overrides/hide", instanceHandler.HideOccurrence)
		protected.DELETE("/overrides/hide", instanceHandler.UnhideOccurrence)

		// --- Admin ---
		admin := protected.Group("/admin")
		admin.Use(RequireAdmin())
		{
			admin.POST("/generate", adminHandler.GenerateAll)
		}
	}
}
