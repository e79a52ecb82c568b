package main

import (
	"log"
	"net/http"
	"os"

	"ertis-service/config"
	"ertis-service/controllers"
	"ertis-service/gcs"
	"ertis-service/models"
	"ertis-service/routes"
	"ertis-service/scheduler"
	"ertis-service/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	db := config.ConnectDB()
	if db == nil {
		log.Fatal("Failed to connect to MongoDB")
	}

	log.Println("MongoDB connection established successfully!")

	config.ConnectRedis()

	if os.Getenv("GCS_BUCKET") != "" {
		gcs.InitGCS()
		defer gcs.Close()
	} else {
		log.Println("GCS_BUCKET not set, photo upload disabled")
	}

	if err := models.EnsureRatingIndex(config.GetCollection("ratings")); err != nil {
		log.Printf("Failed to ensure rating index: %v", err)
	}

	store := services.NewMongoStore()
	notifier := services.NewStoreNotifier(store)
	engine := services.NewEngine(store, store, notifier, services.KeywordClassifier{})
	controllers.Init(engine)

	r := gin.Default()
	r.Use(cors.Default())

	routes.AuthRoutes(r)
	routes.UserRoutes(r)
	routes.RequestRoutes(r)
	routes.EmployeeRoutes(r)
	routes.NotificationRoutes(r)
	routes.StatsRoutes(r)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	cronJobs := scheduler.Start(notifier)
	defer cronJobs.Stop()

	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
