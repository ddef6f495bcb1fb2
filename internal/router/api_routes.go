package router

import (
	"crowdmint-backend/internal/dto"
	"crowdmint-backend/internal/handlers"
	"crowdmint-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAPIRoutes registers the /api groups
func SetupAPIRoutes(r *gin.Engine, deps Dependencies, localhostOnly *middleware.LocalhostOnly) {
	authMiddleware := middleware.NewAuthMiddleware(deps.Config.Auth.JWTSecret, deps.Logger)
	adminAuth := middleware.NewAdminAuthMiddleware(deps.Config.Admin.JWTSecret, deps.Logger)

	taskHandler := handlers.NewTaskHandler(deps.Tasks, deps.Logger)
	workerHandler := handlers.NewWorkerHandler(deps.Workers, deps.Logger)
	adminAuthHandler := handlers.NewAdminAuthHandler(deps.Config.Admin, deps.Logger)
	adminPayoutHandler := handlers.NewAdminPayoutHandler(deps.PayoutAdmin, deps.Logger)

	api := r.Group("/api")
	{
		api.GET("/health", deps.HealthHandler.HealthCheckHandler)

		// ============ Requester ============
		user := api.Group("/user")
		user.Use(authMiddleware.RequireRole(dto.RoleUser))
		{
			user.POST("/tasks", taskHandler.CreateTaskHandler)
			user.GET("/tasks", taskHandler.GetTaskResultHandler)
			user.GET("/all-tasks", taskHandler.ListTasksHandler)
		}

		// ============ Worker ============
		worker := api.Group("/worker")
		worker.Use(authMiddleware.RequireRole(dto.RoleWorker))
		{
			worker.GET("/next-task", workerHandler.NextTaskHandler)
			worker.POST("/submission", workerHandler.SubmitHandler)
			worker.GET("/balance", workerHandler.BalanceHandler)
			worker.POST("/payouts", workerHandler.RequestPayoutHandler)
			worker.GET("/earnings", workerHandler.EarningsHandler)
		}

		// ============ Admin (allowed IPs only) ============
		admin := api.Group("/admin")
		admin.Use(localhostOnly.Restrict())
		{
			admin.POST("/login", adminAuthHandler.AdminLoginHandler)

			payouts := admin.Group("/payouts")
			payouts.Use(adminAuth.RequireAdminAuth())
			{
				payouts.GET("", adminPayoutHandler.ListPayoutsHandler)
				payouts.POST("/:id/settle", adminPayoutHandler.SettlePayoutHandler)
				payouts.POST("/redispatch", adminPayoutHandler.RedispatchHandler)
			}
		}
	}
}
