package routes

import (
	"ertis-service/controllers"
	"ertis-service/middlewares"

	"github.com/gin-gonic/gin"
)

// StatsRoutes sets up the statistics routes (admin dashboard)
func StatsRoutes(r *gin.Engine) {
	stats := r.Group("/api/statistics", middlewares.AuthMiddleware(), middlewares.RequireRole("admin"))
	{
		stats.GET("/overview", controllers.StatisticsOverview)
		stats.GET("/requests/priority", controllers.RequestsByPriority)
	}
}
