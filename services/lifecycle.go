package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"ertis-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller of an engine operation, resolved from
// the JWT by the handler layer. EmployeeID is set only for employee actors.
type Actor struct {
	UserID     primitive.ObjectID
	Role       models.Role
	EmployeeID *primitive.ObjectID
}

// Engine owns every request mutation: creation, status transitions,
// assignment and deletion. All permission and legality checks run before
// anything is written, and the write itself is a compare-and-swap on the
// current status, so a transition either fully happens or not at all.
type Engine struct {
	requests   RequestStore
	employees  EmployeeStore
	notifier   Notifier
	classifier Classifier
}

func NewEngine(requests RequestStore, employees EmployeeStore, notifier Notifier, classifier Classifier) *Engine {
	return &Engine{
		requests:   requests,
		employees:  employees,
		notifier:   notifier,
		classifier: classifier,
	}
}

// CreateInput holds the citizen-supplied content of a new request.
type CreateInput struct {
	ReporterID  primitive.ObjectID
	Category    string
	ProblemType string
	Description string
	Address     string
	Latitude    *float64
	Longitude   *float64
	PhotoURL    *string
}

// Create stores a new request. Status is always pending; priority and a
// missing category are back-filled by the classifier when it has an answer.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*models.Request, error) {
	now := time.Now()
	req := &models.Request{
		ID:          primitive.NewObjectID(),
		ReporterID:  in.ReporterID,
		Category:    in.Category,
		ProblemType: in.ProblemType,
		Description: in.Description,
		Address:     in.Address,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		PhotoURL:    in.PhotoURL,
		Status:      models.StatusPending,
		Priority:    models.PriorityMedium,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if e.classifier != nil {
		if cl, ok := e.classifier.Classify(ctx, in.Description, in.ProblemType); ok {
			if req.Category == "" {
				req.Category = cl.Category
			}
			req.Priority = cl.Priority
		}
	}
	if req.Category == "" {
		req.Category = CategoryOther
	}

	if err := e.requests.Insert(ctx, req); err != nil {
		return nil, err
	}

	e.emit(ctx, req.ReporterID, "Request received",
		fmt.Sprintf("Your request %q was registered and is awaiting assignment.", req.ProblemType),
		models.NotifyInfo)

	return req, nil
}

// ChangeStatus moves a request to target on behalf of actor. Direct moves
// into assigned are refused here: binding an employee goes through Assign.
// Note and photoURL are stored only on transitions into completed or
// closed; other transitions ignore them.
func (e *Engine) ChangeStatus(ctx context.Context, requestID primitive.ObjectID, target models.RequestStatus, actor Actor, note, photoURL *string) (*models.Request, error) {
	req, err := e.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleCitizen {
		return nil, fmt.Errorf("%w: citizens cannot change request status", ErrForbidden)
	}
	if target == models.StatusAssigned {
		return nil, fmt.Errorf("%w: assignment requires an employee, use assign", ErrInvalidState)
	}
	if !models.CanTransition(req.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, req.Status, target)
	}
	if !models.TransitionAllowed(req.Status, target, actor.Role) {
		return nil, fmt.Errorf("%w: role %s may not move %s -> %s", ErrForbidden, actor.Role, req.Status, target)
	}
	if actor.Role == models.RoleEmployee {
		if req.AssigneeID == nil || actor.EmployeeID == nil || *req.AssigneeID != *actor.EmployeeID {
			return nil, fmt.Errorf("%w: request is not assigned to you", ErrForbidden)
		}
	}

	upd := StatusUpdate{Status: target}
	if target == models.StatusPending {
		upd.ClearAssignee = true
	}
	if target == models.StatusCompleted || target == models.StatusClosed {
		upd.CompletionNote = note
		upd.CompletionPhotoURL = photoURL
	}

	updated, err := e.requests.UpdateStatus(ctx, req, upd)
	if err != nil {
		return nil, err
	}

	// Post-commit bookkeeping. The transition is already durable; workload
	// errors are logged, never returned.
	if req.AssigneeID != nil {
		switch {
		case req.Status.Active() && !target.Active():
			e.adjustWorkload(ctx, *req.AssigneeID, -1)
		case !req.Status.Active() && target.Active():
			e.adjustWorkload(ctx, *req.AssigneeID, +1)
		}
		if target == models.StatusCompleted {
			if err := e.employees.RecordCompletion(ctx, *req.AssigneeID); err != nil {
				log.Printf("failed to record completion for employee %s: %v", req.AssigneeID.Hex(), err)
			}
		}
	}

	e.emit(ctx, updated.ReporterID, "Request status updated",
		fmt.Sprintf("Your request %q moved from %s to %s.", updated.ProblemType, req.Status, target),
		statusNotifyType(target))

	return updated, nil
}

// Delete removes a request permanently. Admin only, irreversible; an
// active assignee's workload is released first.
func (e *Engine) Delete(ctx context.Context, requestID primitive.ObjectID, actor Actor) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only admins delete requests", ErrForbidden)
	}

	req, err := e.requests.Delete(ctx, requestID)
	if err != nil {
		return err
	}

	// Settle workload from the state the request actually had when it
	// left the collection, not from an earlier read.
	if req.AssigneeID != nil && req.Status.Active() {
		e.adjustWorkload(ctx, *req.AssigneeID, -1)
	}
	return nil
}

func (e *Engine) adjustWorkload(ctx context.Context, employeeID primitive.ObjectID, delta int) {
	if err := e.employees.AdjustWorkload(ctx, employeeID, delta); err != nil {
		log.Printf("failed to adjust workload of employee %s by %d: %v", employeeID.Hex(), delta, err)
	}
}

func (e *Engine) emit(ctx context.Context, userID primitive.ObjectID, title, message string, typ models.NotificationType) {
	if e.notifier == nil {
		return
	}
	e.notifier.Emit(ctx, models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
	})
}

func statusNotifyType(s models.RequestStatus) models.NotificationType {
	switch s {
	case models.StatusCompleted:
		return models.NotifySuccess
	case models.StatusClosed:
		return models.NotifyWarning
	default:
		return models.NotifyInfo
	}
}
