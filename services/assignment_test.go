package services_test

import (
	"context"
	"errors"
	"testing"

	"ertis-service/models"
	"ertis-service/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAssignScenario(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	emp := seedEmployee(store)

	assigned, err := eng.Assign(context.Background(), req.ID, emp.ID, adminActor())
	if err != nil {
		t.Fatalf("assigning: %v", err)
	}

	if assigned.Status != models.StatusAssigned {
		t.Errorf("status = %s, want assigned", assigned.Status)
	}
	if assigned.AssigneeID == nil || *assigned.AssigneeID != emp.ID {
		t.Error("assigneeId not set to the chosen employee")
	}
	checkAssigneeInvariant(t, store, req.ID)

	after, _ := store.GetByID(context.Background(), emp.ID)
	if after.ActiveTasks != 1 {
		t.Errorf("active tasks = %d, want 1", after.ActiveTasks)
	}

	// Creation notified the reporter; assignment notifies reporter and employee.
	var reporterNotified, employeeNotified bool
	for _, n := range store.Notifications[1:] {
		if n.UserID == req.ReporterID {
			reporterNotified = true
		}
		if n.UserID == emp.UserID {
			employeeNotified = true
		}
	}
	if !reporterNotified {
		t.Error("reporter not notified about assignment")
	}
	if !employeeNotified {
		t.Error("employee not notified about assignment")
	}
}

func TestAssignRequiresAdmin(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	emp := seedEmployee(store)

	for _, actor := range []services.Actor{
		{UserID: req.ReporterID, Role: models.RoleCitizen},
		employeeActor(emp),
	} {
		_, err := eng.Assign(context.Background(), req.ID, emp.ID, actor)
		if !errors.Is(err, services.ErrForbidden) {
			t.Errorf("role %s: err = %v, want ErrForbidden", actor.Role, err)
		}
	}

	got, _ := store.Get(context.Background(), req.ID)
	if got.Status != models.StatusPending {
		t.Errorf("failed assign mutated the request: status = %s", got.Status)
	}
}

func TestAssignUnknownEmployee(t *testing.T) {
	eng, _ := newTestEngine(t)
	req := seedRequest(t, eng)

	_, err := eng.Assign(context.Background(), req.ID, primitive.NewObjectID(), adminActor())
	if !errors.Is(err, services.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAssignNonPendingRequest(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	admin := adminActor()
	emp := seedEmployee(store)
	other := seedEmployee(store)

	if _, err := eng.Assign(context.Background(), req.ID, emp.ID, admin); err != nil {
		t.Fatalf("first assign: %v", err)
	}

	// Reassignment without returning to pending is refused.
	_, err := eng.Assign(context.Background(), req.ID, other.ID, admin)
	if !errors.Is(err, services.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}

	got, _ := store.Get(context.Background(), req.ID)
	if got.AssigneeID == nil || *got.AssigneeID != emp.ID {
		t.Error("failed reassign changed the assignee")
	}

	afterOther, _ := store.GetByID(context.Background(), other.ID)
	if afterOther.ActiveTasks != 0 {
		t.Errorf("losing employee's workload = %d, want 0", afterOther.ActiveTasks)
	}
}

func TestConcurrentAssignsOneWins(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	empA := seedEmployee(store)
	empB := seedEmployee(store)

	errs := make([]error, 2)
	done := make(chan struct{})
	go func() {
		_, errs[0] = eng.Assign(context.Background(), req.ID, empA.ID, adminActor())
		close(done)
	}()
	_, errs[1] = eng.Assign(context.Background(), req.ID, empB.ID, adminActor())
	<-done

	var successes, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidState):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || rejected != 1 {
		t.Errorf("got %d successes and %d rejections, want exactly 1 of each", successes, rejected)
	}

	a, _ := store.GetByID(context.Background(), empA.ID)
	b, _ := store.GetByID(context.Background(), empB.ID)
	if a.ActiveTasks+b.ActiveTasks != 1 {
		t.Errorf("combined workload = %d, want 1", a.ActiveTasks+b.ActiveTasks)
	}
}
