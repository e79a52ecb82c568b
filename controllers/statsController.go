package controllers

import (
	"context"
	"net/http"
	"time"

	"ertis-service/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// StatisticsOverview returns the admin dashboard counters
func StatisticsOverview(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Count requests grouped by status
	statusPipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$status",
				"count": bson.M{"$sum": 1},
			},
		},
	}

	cursor, err := requestCollection.Aggregate(ctx, statusPipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status analytics"})
		return
	}
	defer cursor.Close(ctx)

	var grouped []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &grouped); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode status analytics"})
		return
	}

	byStatus := map[string]int64{}
	var totalRequests int64
	for _, g := range grouped {
		byStatus[g.Status] = g.Count
		totalRequests += g.Count
	}

	totalEmployees, err := employeeCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalEmployees = 0
	}
	availableEmployees, err := employeeCollection.CountDocuments(ctx, bson.M{"isAvailable": true})
	if err != nil {
		availableEmployees = 0
	}
	totalUsers, err := userCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalUsers = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"total_requests":       totalRequests,
		"pending_requests":     byStatus[string(models.StatusPending)],
		"assigned_requests":    byStatus[string(models.StatusAssigned)],
		"in_progress_requests": byStatus[string(models.StatusInProgress)],
		"completed_requests":   byStatus[string(models.StatusCompleted)],
		"closed_requests":      byStatus[string(models.StatusClosed)],
		"total_employees":      totalEmployees,
		"available_employees":  availableEmployees,
		"total_users":          totalUsers,
	})
}

// RequestsByPriority returns request counts per priority level
func RequestsByPriority(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	countFor := func(priority models.RequestPriority) int64 {
		n, err := requestCollection.CountDocuments(ctx, bson.M{"priority": priority})
		if err != nil {
			return 0
		}
		return n
	}

	c.JSON(http.StatusOK, gin.H{
		"high":   countFor(models.PriorityHigh),
		"medium": countFor(models.PriorityMedium),
		"low":    countFor(models.PriorityLow),
	})
}
