package services

import (
	"context"
	"fmt"

	"ertis-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assign binds a pending request to the employee an admin picked. The
// snapshot guard makes the pending check and the write one atomic step:
// two admins assigning the same request concurrently leaves exactly one
// winner, the other gets ErrConflict.
//
// Reassigning an already assigned request is not supported; return it to
// pending first so workload bookkeeping stays single-step.
func (e *Engine) Assign(ctx context.Context, requestID, employeeID primitive.ObjectID, actor Actor) (*models.Request, error) {
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins assign requests", ErrForbidden)
	}

	emp, err := e.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	req, err := e.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: request is %s, only pending requests can be assigned", ErrInvalidState, req.Status)
	}

	upd := StatusUpdate{
		Status:     models.StatusAssigned,
		AssigneeID: &emp.ID,
	}
	updated, err := e.requests.UpdateStatus(ctx, req, upd)
	if err != nil {
		return nil, err
	}

	e.adjustWorkload(ctx, emp.ID, +1)

	e.emit(ctx, updated.ReporterID, "Request assigned",
		fmt.Sprintf("Your request %q was assigned to a field worker.", updated.ProblemType),
		models.NotifyInfo)
	e.emit(ctx, emp.UserID, "New task assigned",
		fmt.Sprintf("You were assigned request %q at %s.", updated.ProblemType, updated.Address),
		models.NotifyInfo)

	return updated, nil
}
