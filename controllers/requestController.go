package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ertis-service/gcs"
	"ertis-service/models"
	"ertis-service/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListCategories returns the category labels a request may carry
func ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": services.Categories()})
}

// CreateRequest handles the submission of a new problem report. Accepts
// JSON or multipart form data (the latter may carry a photo).
func CreateRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var input struct {
		Category    string   `form:"category" json:"category"`
		ProblemType string   `form:"problem_type" json:"problem_type" binding:"required,max=200"`
		Description string   `form:"description" json:"description" binding:"required,max=1000"`
		Address     string   `form:"address" json:"address" binding:"required,max=200"`
		Latitude    *float64 `form:"latitude" json:"latitude,omitempty"`
		Longitude   *float64 `form:"longitude" json:"longitude,omitempty"`
	}

	multipart := strings.HasPrefix(c.ContentType(), "multipart/form-data")
	if multipart {
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if input.Category != "" && !services.ValidCategory(input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	var photoURL *string
	if multipart {
		if file, err := c.FormFile("photo"); err == nil {
			if !gcs.Enabled() {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo storage not configured"})
				return
			}
			src, err := file.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read photo"})
				return
			}
			defer src.Close()

			url, err := gcs.UploadPhoto(c.Request.Context(), src, file.Header.Get("Content-Type"), "requests")
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
				return
			}
			photoURL = &url
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := engine.Create(ctx, services.CreateInput{
		ReporterID:  actor.UserID,
		Category:    input.Category,
		ProblemType: input.ProblemType,
		Description: input.Description,
		Address:     input.Address,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		PhotoURL:    photoURL,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

// ListRequests handles retrieving all requests with filtering, pagination
// and sorting. Admin only.
func ListRequests(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Parse query parameters
	category := c.Query("category")
	status := c.Query("status")
	priority := c.Query("priority")
	search := c.Query("search")
	sortOrder := c.DefaultQuery("sort", "newest")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	// Build query filter
	filter := bson.M{}

	if category != "" && category != "all" {
		filter["category"] = category
	}

	if status != "" && status != "all" {
		filter["status"] = status
	}

	if priority != "" && priority != "all" {
		filter["priority"] = priority
	}

	if search != "" {
		filter["$or"] = []bson.M{
			{"problemType": bson.M{"$regex": search, "$options": "i"}},
			{"description": bson.M{"$regex": search, "$options": "i"}},
			{"address": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	// Calculate pagination
	skip := (page - 1) * limit

	// Sort options
	var sortOptions bson.D
	switch sortOrder {
	case "oldest":
		sortOptions = bson.D{{Key: "createdAt", Value: 1}}
	case "newest":
		fallthrough
	default:
		sortOptions = bson.D{{Key: "createdAt", Value: -1}}
	}

	// Get total count for pagination
	totalCount, err := requestCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count requests"})
		return
	}

	findOptions := options.Find().
		SetSort(sortOptions).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := requestCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode requests"})
		return
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"requests":      requests,
		"totalRequests": totalCount,
		"totalPages":    totalPages,
		"currentPage":   page,
	})
}

// GetRequest retrieves a request by its ID. Visible to the reporter, the
// assigned employee and admins.
func GetRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
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

	isReporter := req.ReporterID == actor.UserID
	isAssignee := actor.EmployeeID != nil && req.AssigneeID != nil && *req.AssigneeID == *actor.EmployeeID
	if actor.Role != models.RoleAdmin && !isReporter && !isAssignee {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to view this request"})
		return
	}

	// Get reporter info
	reporterMap := gin.H{"id": req.ReporterID}
	var reporter models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": req.ReporterID}).Decode(&reporter); err == nil {
		reporterMap["name"] = reporter.Name
		reporterMap["email"] = reporter.Email
	}

	c.JSON(http.StatusOK, gin.H{
		"request":          req,
		"reporter":         reporterMap,
		"availableActions": models.NextStatuses(req.Status, actor.Role),
	})
}

// MyRequests retrieves all requests reported by the authenticated user
func MyRequests(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := requestCollection.Find(ctx, bson.M{"reporterId": actor.UserID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// AssignedRequests retrieves the requests assigned to the authenticated
// employee, optionally filtered by status.
func AssignedRequests(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if actor.EmployeeID == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "No employee profile for this user"})
		return
	}

	filter := bson.M{"assigneeId": *actor.EmployeeID}
	if status := c.Query("status"); status != "" && status != "all" {
		filter["status"] = status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := requestCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}
