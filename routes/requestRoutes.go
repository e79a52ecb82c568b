package routes

import (
	"ertis-service/controllers"
	"ertis-service/middlewares"

	"github.com/gin-gonic/gin"
)

// RequestRoutes sets up the request lifecycle routes. Role checks beyond
// the coarse middleware gates live in the lifecycle engine.
func RequestRoutes(r *gin.Engine) {
	r.GET("/api/categories", controllers.ListCategories)

	request := r.Group("/api/requests", middlewares.AuthMiddleware())
	{
		request.POST("", middlewares.RequestRateLimiter(10), controllers.CreateRequest)
		request.GET("", middlewares.RequireRole("admin"), controllers.ListRequests)
		request.GET("/my", controllers.MyRequests)
		request.GET("/assigned", controllers.AssignedRequests)
		request.GET("/:id", controllers.GetRequest)
		request.POST("/:id/assign", controllers.AssignRequest)
		request.PUT("/:id/status", controllers.UpdateStatus)
		request.POST("/:id/complete", controllers.CompleteRequest)
		request.POST("/:id/close", controllers.CloseRequest)
		request.POST("/:id/rate", controllers.RateRequest)
		request.DELETE("/:id", controllers.DeleteRequest)
	}
}
