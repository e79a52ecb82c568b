package controllers

import (
	"context"
	"net/http"
	"time"

	"ertis-service/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RateRequest lets the reporter score the handling of their completed or
// closed request, once. The assignee's rating aggregates are updated.
func RateRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var input struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.Request
	err = requestCollection.FindOne(ctx, bson.M{"_id": requestID}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve request"})
		}
		return
	}

	if req.ReporterID != actor.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the reporter can rate this request"})
		return
	}
	if req.Status != models.StatusCompleted && req.Status != models.StatusClosed {
		c.JSON(http.StatusConflict, gin.H{"error": "Only completed or closed requests can be rated"})
		return
	}
	if req.AssigneeID == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Request was never assigned to an employee"})
		return
	}

	rating := models.Rating{
		ID:        primitive.NewObjectID(),
		Request:   requestID,
		User:      actor.UserID,
		Employee:  *req.AssigneeID,
		Score:     input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
	}

	if _, err := ratingCollection.InsertOne(ctx, rating); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "You already rated this request"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store rating"})
		}
		return
	}

	// Fold the new score into the employee's running average
	var emp models.Employee
	if err := employeeCollection.FindOne(ctx, bson.M{"_id": *req.AssigneeID}).Decode(&emp); err == nil {
		newCount := emp.RatingCount + 1
		newAvg := (emp.AverageRating*float64(emp.RatingCount) + float64(input.Rating)) / float64(newCount)

		_, _ = employeeCollection.UpdateOne(ctx, bson.M{"_id": emp.ID}, bson.M{
			"$set": bson.M{
				"averageRating": newAvg,
				"ratingCount":   newCount,
				"updatedAt":     time.Now(),
			},
		})
	}

	c.JSON(http.StatusCreated, rating)
}
