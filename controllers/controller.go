package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ertis-service/config"
	"ertis-service/models"
	"ertis-service/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	requestCollection      *mongo.Collection
	employeeCollection     *mongo.Collection
	userCollection         *mongo.Collection
	notificationCollection *mongo.Collection
	ratingCollection       *mongo.Collection

	engine *services.Engine
)

// Init wires the lifecycle engine and collection handles into the
// controllers. Called from main after the database connection is up.
func Init(eng *services.Engine) {
	engine = eng
	requestCollection = config.GetCollection("requests")
	employeeCollection = config.GetCollection("employees")
	userCollection = config.GetCollection("users")
	notificationCollection = config.GetCollection("notifications")
	ratingCollection = config.GetCollection("ratings")
}

// currentActor resolves the authenticated caller (set by auth middleware)
// into an engine actor. For employees it also looks up the employee
// profile so ownership checks can run against the assignee id.
func currentActor(c *gin.Context) (services.Actor, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return services.Actor{}, false
	}

	userID, err := primitive.ObjectIDFromHex(userIDVal.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return services.Actor{}, false
	}

	roleVal, _ := c.Get("role")
	roleStr, _ := roleVal.(string)

	actor := services.Actor{UserID: userID, Role: models.Role(roleStr)}

	if actor.Role == models.RoleEmployee {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var emp models.Employee
		if err := employeeCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&emp); err == nil {
			actor.EmployeeID = &emp.ID
		}
	}

	return actor, true
}

// serviceError maps typed engine failures to HTTP responses.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrIllegalTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
