package routes

import (
	"ertis-service/controllers"
	"ertis-service/middlewares"

	"github.com/gin-gonic/gin"
)

// NotificationRoutes sets up the notification routes
func NotificationRoutes(r *gin.Engine) {
	notification := r.Group("/api/notifications", middlewares.AuthMiddleware())
	{
		notification.GET("", controllers.ListNotifications)
		notification.PUT("/:id/read", controllers.MarkNotificationRead)
	}
}
