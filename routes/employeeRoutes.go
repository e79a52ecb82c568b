package routes

import (
	"ertis-service/controllers"
	"ertis-service/middlewares"

	"github.com/gin-gonic/gin"
)

// EmployeeRoutes sets up the employee routes
func EmployeeRoutes(r *gin.Engine) {
	employee := r.Group("/api/employees", middlewares.AuthMiddleware())
	{
		employee.POST("", middlewares.RequireRole("admin"), controllers.CreateEmployee)
		employee.GET("", middlewares.RequireRole("admin"), controllers.ListEmployees)
		employee.GET("/me", controllers.GetMyEmployee)
		employee.GET("/:id/stats", controllers.EmployeeStats)
	}
}
