package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"ertis-service/config"
	"ertis-service/models"
	"ertis-service/services"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
)

// Start runs the hourly job reminding admins about requests stuck in
// pending. The returned cron can be stopped on shutdown.
func Start(notifier services.Notifier) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("@hourly", func() {
		remindStalePending(notifier)
	})
	if err != nil {
		log.Fatalf("Failed to add cron job: %v", err)
	}

	c.Start()
	log.Println("Scheduler started")
	return c
}

func remindStalePending(notifier services.Notifier) {
	staleHours := 24
	if v := os.Getenv("STALE_PENDING_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			staleHours = n
		}
	}
	cutoff := time.Now().Add(-time.Duration(staleHours) * time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stale, err := config.GetCollection("requests").CountDocuments(ctx, bson.M{
		"status":    models.StatusPending,
		"createdAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		log.Printf("Stale pending check failed: %v", err)
		return
	}
	if stale == 0 {
		return
	}

	cursor, err := config.GetCollection("users").Find(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		log.Printf("Failed to list admins for reminder: %v", err)
		return
	}
	defer cursor.Close(ctx)

	var admins []models.User
	if err := cursor.All(ctx, &admins); err != nil {
		log.Printf("Failed to decode admins: %v", err)
		return
	}

	for _, admin := range admins {
		notifier.Emit(ctx, models.Notification{
			UserID: admin.ID,
			Title:  "Unassigned requests waiting",
			Message: fmt.Sprintf("%d request(s) have been pending for more than %d hours.",
				stale, staleHours),
			Type: models.NotifyWarning,
		})
	}
	log.Printf("Reminded %d admin(s) about %d stale pending request(s)", len(admins), stale)
}
