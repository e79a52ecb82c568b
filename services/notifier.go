package services

import (
	"context"
	"log"
	"time"

	"ertis-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier delivers user-facing notifications. Implementations are
// best-effort: a failed delivery must be logged and swallowed, never
// surfaced to the transition that triggered it.
type Notifier interface {
	Emit(ctx context.Context, n models.Notification)
}

type storeNotifier struct {
	store NotificationStore
}

// NewStoreNotifier returns a Notifier that writes notification records to
// the notification store.
func NewStoreNotifier(store NotificationStore) Notifier {
	return &storeNotifier{store: store}
}

func (sn *storeNotifier) Emit(ctx context.Context, n models.Notification) {
	n.ID = primitive.NewObjectID()
	n.IsRead = false
	n.CreatedAt = time.Now()
	if n.Type == "" {
		n.Type = models.NotifyInfo
	}
	if err := sn.store.InsertNotification(ctx, &n); err != nil {
		log.Printf("notification to user %s dropped: %v", n.UserID.Hex(), err)
	}
}
