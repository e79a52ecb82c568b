package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"ertis-service/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListUsers returns all user accounts, newest first. Backs the admin
// employee-creation form.
func ListUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := userCollection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// CreateEmployee promotes an existing user to a field worker. Admin only.
func CreateEmployee(c *gin.Context) {
	var input struct {
		UserID         string `json:"user_id" binding:"required"`
		Specialization string `json:"specialization" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := primitive.ObjectIDFromHex(input.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	count, err := employeeCollection.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already has an employee profile"})
		return
	}

	employee := models.Employee{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		Specialization: input.Specialization,
		IsAvailable:    true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if _, err := employeeCollection.InsertOne(ctx, employee); err != nil {
		log.Println("Error inserting employee:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create employee"})
		return
	}

	// The user acts as an employee from the next login onward
	_, err = userCollection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{"role": models.RoleEmployee, "updatedAt": time.Now()},
	})
	if err != nil {
		log.Println("Error updating user role:", err)
	}

	c.JSON(http.StatusCreated, employee)
}

// ListEmployees returns employee profiles for the admin assignment
// short-list, optionally filtered by availability and specialization.
func ListEmployees(c *gin.Context) {
	filter := bson.M{}
	if c.Query("available") == "true" {
		filter["isAvailable"] = true
	}
	if spec := c.Query("specialization"); spec != "" {
		filter["specialization"] = bson.M{"$regex": spec, "$options": "i"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := employeeCollection.Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve employees"})
		return
	}
	defer cursor.Close(ctx)

	var employees []models.Employee
	if err := cursor.All(ctx, &employees); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode employees"})
		return
	}

	// Enrich with user info
	type EmployeeWithUser struct {
		models.Employee
		User map[string]interface{} `json:"user"`
	}

	out := make([]EmployeeWithUser, 0, len(employees))
	for _, emp := range employees {
		userMap := map[string]interface{}{"id": emp.UserID}
		var user models.User
		if err := userCollection.FindOne(ctx, bson.M{"_id": emp.UserID}).Decode(&user); err == nil {
			userMap["name"] = user.Name
			userMap["email"] = user.Email
		}
		out = append(out, EmployeeWithUser{Employee: emp, User: userMap})
	}

	c.JSON(http.StatusOK, out)
}

// GetMyEmployee returns the employee profile of the authenticated user
func GetMyEmployee(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var emp models.Employee
	err := employeeCollection.FindOne(ctx, bson.M{"userId": actor.UserID}).Decode(&emp)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No employee profile for this user"})
		return
	}

	c.JSON(http.StatusOK, emp)
}

// EmployeeStats returns workload and performance counters for an employee.
// Visible to admins and to the employee themselves.
func EmployeeStats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	employeeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee ID"})
		return
	}

	isSelf := actor.EmployeeID != nil && *actor.EmployeeID == employeeID
	if actor.Role != models.RoleAdmin && !isSelf {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to view these statistics"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var emp models.Employee
	if err := employeeCollection.FindOne(ctx, bson.M{"_id": employeeID}).Decode(&emp); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve employee"})
		}
		return
	}

	countFor := func(status models.RequestStatus) int64 {
		n, err := requestCollection.CountDocuments(ctx, bson.M{"assigneeId": employeeID, "status": status})
		if err != nil {
			return 0
		}
		return n
	}

	c.JSON(http.StatusOK, gin.H{
		"employee_id":       emp.ID,
		"total_assigned":    countFor(models.StatusAssigned),
		"total_in_progress": countFor(models.StatusInProgress),
		"total_completed":   emp.TotalCompleted,
		"active_tasks":      emp.ActiveTasks,
		"rating":            emp.AverageRating,
		"rating_count":      emp.RatingCount,
	})
}
