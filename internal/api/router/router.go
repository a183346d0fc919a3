package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigwork/instantjob/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		health := gin.H{
			"status":  "healthy",
			"service": "instantjob-api-service",
		}

		if deps.DB != nil {
			if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
				status = http.StatusServiceUnavailable
				health["status"] = "unhealthy"
				health["database"] = "down"
			} else {
				health["database"] = "up"
			}
		}

		if deps.Broker != nil {
			if deps.Broker.IsConnected() {
				health["rabbitmq"] = "up"
			} else {
				status = http.StatusServiceUnavailable
				health["status"] = "unhealthy"
				health["rabbitmq"] = "down"
			}
		}

		c.JSON(status, health)
	})

	jobHandler := handler.NewInstantJobHandler(deps)

	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(deps.Storage, deps.Logger))
	{
		jobs := v1.Group("/instant_jobs")
		{
			jobs.POST("", jobHandler.CreateJob)
			jobs.GET("/get_active_jobs", jobHandler.GetActiveJobs)
			jobs.POST("/get_jobs_by_cords", jobHandler.GetJobsByCoords)
			jobs.GET("/:job_id", jobHandler.GetJob)

			applications := jobs.Group("/:job_id/instant_job_applications")
			{
				applications.GET("", jobHandler.ListApplications)
				applications.POST("", jobHandler.Apply)
				applications.PUT("/:application_id/update_status", jobHandler.UpdateStatus)
				applications.DELETE("/:application_id/cancel_application", jobHandler.CancelApplication)
				applications.POST("/revoke_application", jobHandler.RevokeAll)
			}
		}
	}

	return r
}
