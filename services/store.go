package services

import (
	"context"
	"errors"

	"ertis-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Typed failures reported by the lifecycle engine and dispatcher. Handlers
// map these to HTTP status codes; nothing in this package touches HTTP.
var (
	ErrForbidden         = errors.New("forbidden")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
)

// StatusUpdate carries everything a single transition may change on a
// request. The store applies it atomically together with the status guard.
type StatusUpdate struct {
	Status             models.RequestStatus
	AssigneeID         *primitive.ObjectID
	ClearAssignee      bool
	CompletionNote     *string
	CompletionPhotoURL *string
}

// RequestStore is the persistence boundary for requests. UpdateStatus must
// be a compare-and-swap against the observed snapshot: the update applies
// only while the stored status AND assignee still match what the caller
// validated, so concurrent transitions on the same request id serialize
// and the loser sees ErrConflict. Guarding status alone is not enough: a
// request can be unassigned and reassigned back to the same status, and a
// stale caller must not slip its write past that. Delete returns the
// removed request so bookkeeping can settle from its final state.
type RequestStore interface {
	Insert(ctx context.Context, req *models.Request) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	UpdateStatus(ctx context.Context, observed *models.Request, upd StatusUpdate) (*models.Request, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
}

// EmployeeStore covers the workload bookkeeping the dispatcher and engine
// perform on employees.
type EmployeeStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Employee, error)
	AdjustWorkload(ctx context.Context, id primitive.ObjectID, delta int) error
	RecordCompletion(ctx context.Context, id primitive.ObjectID) error
}

// NotificationStore persists emitted notifications.
type NotificationStore interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
}
