package controllers

import (
	"context"
	"net/http"
	"time"

	"ertis-service/gcs"
	"ertis-service/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignRequest binds a pending request to an employee picked by an admin
func AssignRequest(c *gin.Context) {
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
		EmployeeID string `json:"employee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	employeeID, err := primitive.ObjectIDFromHex(input.EmployeeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := engine.Assign(ctx, requestID, employeeID, actor)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// UpdateStatus moves a request to the target status on behalf of the
// authenticated actor.
func UpdateStatus(c *gin.Context) {
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
		Status             string  `json:"status" binding:"required"`
		CompletionNote     *string `json:"completion_note,omitempty"`
		CompletionPhotoURL *string `json:"completion_photo_url,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := engine.ChangeStatus(ctx, requestID, models.RequestStatus(input.Status), actor,
		input.CompletionNote, input.CompletionPhotoURL)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// CompleteRequest marks an in-progress request completed, with an optional
// note and completion photo.
func CompleteRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var note *string
	if v := c.PostForm("completion_note"); v != "" {
		note = &v
	}

	var photoURL *string
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

		url, err := gcs.UploadPhoto(c.Request.Context(), src, file.Header.Get("Content-Type"), "completions")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
			return
		}
		photoURL = &url
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := engine.ChangeStatus(ctx, requestID, models.StatusCompleted, actor, note, photoURL)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// CloseRequest closes a request, storing the optional reason as the
// completion note. Admin only (enforced by the engine).
func CloseRequest(c *gin.Context) {
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
		Reason *string `json:"reason,omitempty"`
	}
	// Body is optional for close
	_ = c.ShouldBindJSON(&input)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := engine.ChangeStatus(ctx, requestID, models.StatusClosed, actor, input.Reason, nil)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// DeleteRequest permanently removes a request and its ratings. Admin only,
// irreversible.
func DeleteRequest(c *gin.Context) {
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

	if err := engine.Delete(ctx, requestID, actor); err != nil {
		serviceError(c, err)
		return
	}

	// Delete associated ratings
	_, _ = ratingCollection.DeleteMany(ctx, bson.M{"request": requestID})

	c.JSON(http.StatusOK, gin.H{"message": "Request deleted successfully"})
}
