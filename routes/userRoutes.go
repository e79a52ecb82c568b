package routes

import (
	"ertis-service/controllers"
	"ertis-service/middlewares"

	"github.com/gin-gonic/gin"
)

func UserRoutes(r *gin.Engine) {
	user := r.Group("/api/users", middlewares.AuthMiddleware(), middlewares.RequireRole("admin"))
	{
		user.GET("", controllers.ListUsers)
	}
}
