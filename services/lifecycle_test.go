package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ertis-service/models"
	"ertis-service/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestEngine(t *testing.T) (*services.Engine, *services.MemStore) {
	t.Helper()
	store := services.NewMemStore()
	eng := services.NewEngine(store, store, services.NewStoreNotifier(store), services.KeywordClassifier{})
	return eng, store
}

func seedEmployee(store *services.MemStore) models.Employee {
	emp := models.Employee{
		ID:             primitive.NewObjectID(),
		UserID:         primitive.NewObjectID(),
		Specialization: "plumbing",
		IsAvailable:    true,
	}
	store.PutEmployee(emp)
	return emp
}

func seedRequest(t *testing.T, eng *services.Engine) *models.Request {
	t.Helper()
	req, err := eng.Create(context.Background(), services.CreateInput{
		ReporterID:  primitive.NewObjectID(),
		ProblemType: "broken street lamp",
		Description: "The lamp on the corner is flickering",
		Address:     "12 Elm Street",
	})
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	return req
}

func adminActor() services.Actor {
	return services.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
}

func employeeActor(emp models.Employee) services.Actor {
	return services.Actor{UserID: emp.UserID, Role: models.RoleEmployee, EmployeeID: &emp.ID}
}

// checkAssigneeInvariant asserts the operative direction of the assignee
// invariant: set for assigned/in_progress/completed, nil for pending.
func checkAssigneeInvariant(t *testing.T, store *services.MemStore, id primitive.ObjectID) {
	t.Helper()
	req, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("getting request: %v", err)
	}
	switch req.Status {
	case models.StatusAssigned, models.StatusInProgress, models.StatusCompleted:
		if req.AssigneeID == nil {
			t.Errorf("status %s but assigneeId is nil", req.Status)
		}
	case models.StatusPending:
		if req.AssigneeID != nil {
			t.Errorf("status pending but assigneeId is set")
		}
	}
}

func TestCreateDefaultsToPending(t *testing.T) {
	eng, store := newTestEngine(t)

	req, err := eng.Create(context.Background(), services.CreateInput{
		ReporterID:  primitive.NewObjectID(),
		ProblemType: "water pipe burst",
		Description: "Water flooding the basement",
		Address:     "3 Oak Avenue",
	})
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if req.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", req.Status)
	}
	if req.Category != services.CategoryWater {
		t.Errorf("category = %s, want water (classifier back-fill)", req.Category)
	}
	if req.Priority != models.PriorityHigh {
		t.Errorf("priority = %s, want high (flood keyword)", req.Priority)
	}
	if req.AssigneeID != nil {
		t.Error("new request must not have an assignee")
	}

	if len(store.Notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(store.Notifications))
	}
	if store.Notifications[0].UserID != req.ReporterID {
		t.Error("creation notification should go to the reporter")
	}
}

func TestCreateKeepsExplicitCategory(t *testing.T) {
	eng, _ := newTestEngine(t)

	req, err := eng.Create(context.Background(), services.CreateInput{
		ReporterID:  primitive.NewObjectID(),
		Category:    services.CategorySanitation,
		ProblemType: "water fountain vandalized",
		Description: "The fountain in the park is broken",
		Address:     "Park entrance",
	})
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if req.Category != services.CategorySanitation {
		t.Errorf("category = %s, citizen's choice must win over the classifier", req.Category)
	}
}

func TestChangeStatusNotFound(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.ChangeStatus(context.Background(), primitive.NewObjectID(),
		models.StatusClosed, adminActor(), nil, nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCitizenCannotMutateStatus(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)

	citizen := services.Actor{UserID: req.ReporterID, Role: models.RoleCitizen}
	_, err := eng.ChangeStatus(context.Background(), req.ID, models.StatusClosed, citizen, nil, nil)
	if !errors.Is(err, services.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}

	got, _ := store.Get(context.Background(), req.ID)
	if got.Status != models.StatusPending {
		t.Errorf("request mutated by failed transition: status = %s", got.Status)
	}
}

func TestIllegalTransitionsLeaveRequestUnchanged(t *testing.T) {
	eng, store := newTestEngine(t)
	admin := adminActor()
	assignee := primitive.NewObjectID()

	for _, from := range models.AllStatuses() {
		for _, to := range models.AllStatuses() {
			if to == models.StatusAssigned {
				// Direct moves into assigned always bounce to Assign.
				continue
			}
			if models.CanTransition(from, to) {
				continue
			}

			req := models.Request{
				ID:         primitive.NewObjectID(),
				ReporterID: primitive.NewObjectID(),
				Status:     from,
				Priority:   models.PriorityMedium,
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			}
			if from.Active() || from == models.StatusCompleted {
				req.AssigneeID = &assignee
			}
			if err := store.Insert(context.Background(), &req); err != nil {
				t.Fatalf("seeding request: %v", err)
			}

			_, err := eng.ChangeStatus(context.Background(), req.ID, to, admin, nil, nil)
			if !errors.Is(err, services.ErrIllegalTransition) {
				t.Errorf("%s -> %s: err = %v, want ErrIllegalTransition", from, to, err)
			}

			got, _ := store.Get(context.Background(), req.ID)
			if got.Status != from {
				t.Errorf("%s -> %s: failed transition mutated status to %s", from, to, got.Status)
			}
		}
	}
}

func TestDirectAssignedTargetRejected(t *testing.T) {
	eng, _ := newTestEngine(t)
	req := seedRequest(t, eng)

	_, err := eng.ChangeStatus(context.Background(), req.ID, models.StatusAssigned, adminActor(), nil, nil)
	if !errors.Is(err, services.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestEmployeeOwnershipScenario(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	admin := adminActor()

	emp42 := seedEmployee(store)
	emp7 := seedEmployee(store)

	if _, err := eng.Assign(context.Background(), req.ID, emp42.ID, admin); err != nil {
		t.Fatalf("assigning: %v", err)
	}
	checkAssigneeInvariant(t, store, req.ID)

	// The assignee starts the work.
	if _, err := eng.ChangeStatus(context.Background(), req.ID, models.StatusInProgress, employeeActor(emp42), nil, nil); err != nil {
		t.Fatalf("assignee starting work: %v", err)
	}
	checkAssigneeInvariant(t, store, req.ID)

	// A different employee tries to complete it.
	_, err := eng.ChangeStatus(context.Background(), req.ID, models.StatusCompleted, employeeActor(emp7), nil, nil)
	if !errors.Is(err, services.ErrForbidden) {
		t.Errorf("foreign employee: err = %v, want ErrForbidden", err)
	}

	got, _ := store.Get(context.Background(), req.ID)
	if got.Status != models.StatusInProgress {
		t.Errorf("status = %s, want in_progress after failed foreign completion", got.Status)
	}
}

func TestCompleteRecordsNoteAndCounters(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	admin := adminActor()
	emp := seedEmployee(store)

	if _, err := eng.Assign(context.Background(), req.ID, emp.ID, admin); err != nil {
		t.Fatalf("assigning: %v", err)
	}
	if _, err := eng.ChangeStatus(context.Background(), req.ID, models.StatusInProgress, employeeActor(emp), nil, nil); err != nil {
		t.Fatalf("starting work: %v", err)
	}

	note := "Replaced the bulb and fuse"
	photo := "https://storage.googleapis.com/bucket/completions/x.jpeg"
	done, err := eng.ChangeStatus(context.Background(), req.ID, models.StatusCompleted, employeeActor(emp), &note, &photo)
	if err != nil {
		t.Fatalf("completing: %v", err)
	}
	checkAssigneeInvariant(t, store, req.ID)

	if done.CompletionNote == nil || *done.CompletionNote != note {
		t.Error("completion note not stored")
	}
	if done.CompletionPhotoURL == nil || *done.CompletionPhotoURL != photo {
		t.Error("completion photo not stored")
	}

	after, _ := store.GetByID(context.Background(), emp.ID)
	if after.ActiveTasks != 0 {
		t.Errorf("active tasks = %d, want 0 after completion", after.ActiveTasks)
	}
	if after.TotalCompleted != 1 {
		t.Errorf("total completed = %d, want 1", after.TotalCompleted)
	}
}

func TestReturnToPendingClearsAssigneeAndWorkload(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	admin := adminActor()
	emp := seedEmployee(store)

	if _, err := eng.Assign(context.Background(), req.ID, emp.ID, admin); err != nil {
		t.Fatalf("assigning: %v", err)
	}

	back, err := eng.ChangeStatus(context.Background(), req.ID, models.StatusPending, admin, nil, nil)
	if err != nil {
		t.Fatalf("returning to pending: %v", err)
	}
	checkAssigneeInvariant(t, store, req.ID)

	if back.AssigneeID != nil {
		t.Error("assignee not cleared on return to pending")
	}
	after, _ := store.GetByID(context.Background(), emp.ID)
	if after.ActiveTasks != 0 {
		t.Errorf("active tasks = %d, want 0 after return to pending", after.ActiveTasks)
	}
}

func TestCloseRetainsAssignee(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	admin := adminActor()
	emp := seedEmployee(store)

	if _, err := eng.Assign(context.Background(), req.ID, emp.ID, admin); err != nil {
		t.Fatalf("assigning: %v", err)
	}

	reason := "Duplicate of another report"
	closed, err := eng.ChangeStatus(context.Background(), req.ID, models.StatusClosed, admin, &reason, nil)
	if err != nil {
		t.Fatalf("closing: %v", err)
	}

	if closed.AssigneeID == nil || *closed.AssigneeID != emp.ID {
		t.Error("closing should not unassign")
	}
	if closed.CompletionNote == nil || *closed.CompletionNote != reason {
		t.Error("close reason not stored")
	}
	after, _ := store.GetByID(context.Background(), emp.ID)
	if after.ActiveTasks != 0 {
		t.Errorf("active tasks = %d, want 0 after close", after.ActiveTasks)
	}
}

func TestAdminReopensCompleted(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	admin := adminActor()
	emp := seedEmployee(store)

	ctx := context.Background()
	if _, err := eng.Assign(ctx, req.ID, emp.ID, admin); err != nil {
		t.Fatalf("assigning: %v", err)
	}
	if _, err := eng.ChangeStatus(ctx, req.ID, models.StatusInProgress, employeeActor(emp), nil, nil); err != nil {
		t.Fatalf("starting work: %v", err)
	}
	if _, err := eng.ChangeStatus(ctx, req.ID, models.StatusCompleted, employeeActor(emp), nil, nil); err != nil {
		t.Fatalf("completing: %v", err)
	}

	reopened, err := eng.ChangeStatus(ctx, req.ID, models.StatusInProgress, admin, nil, nil)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	checkAssigneeInvariant(t, store, req.ID)

	if reopened.AssigneeID == nil || *reopened.AssigneeID != emp.ID {
		t.Error("reopening must keep the assignee")
	}
	after, _ := store.GetByID(context.Background(), emp.ID)
	if after.ActiveTasks != 1 {
		t.Errorf("active tasks = %d, want 1 after reopen", after.ActiveTasks)
	}
}

func TestConcurrentTransitionsOneWins(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	admin := adminActor()
	emp := seedEmployee(store)

	assigned, err := eng.Assign(context.Background(), req.ID, emp.ID, admin)
	if err != nil {
		t.Fatalf("assigning: %v", err)
	}

	// Two writers observed the same assigned request and race it to
	// different targets. The swap is conditional on the observed snapshot,
	// so the loser must get a conflict, never a silent overwrite.
	targets := []models.RequestStatus{models.StatusClosed, models.StatusPending}
	errs := make([]error, len(targets))

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target models.RequestStatus) {
			defer wg.Done()
			<-start
			upd := services.StatusUpdate{Status: target, ClearAssignee: target == models.StatusPending}
			_, errs[i] = store.UpdateStatus(context.Background(), assigned, upd)
		}(i, target)
	}
	close(start)
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, services.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Errorf("got %d successes and %d conflicts, want exactly 1 of each", successes, conflicts)
	}
}

// requestStoreHook wraps MemStore so a test can interleave writes between
// the engine's read of a request and its conditional update. The hook
// disarms itself before running, so the writes it performs go straight
// through.
type requestStoreHook struct {
	*services.MemStore
	afterGet func()
}

func (s *requestStoreHook) Get(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	req, err := s.MemStore.Get(ctx, id)
	if err == nil && s.afterGet != nil {
		hook := s.afterGet
		s.afterGet = nil
		hook()
	}
	return req, err
}

func newHookedEngine(t *testing.T) (*services.Engine, *requestStoreHook, *services.MemStore) {
	t.Helper()
	store := services.NewMemStore()
	hooked := &requestStoreHook{MemStore: store}
	eng := services.NewEngine(hooked, store, services.NewStoreNotifier(store), services.KeywordClassifier{})
	return eng, hooked, store
}

func TestStaleAssigneeCannotTransition(t *testing.T) {
	eng, hooked, store := newHookedEngine(t)
	req := seedRequest(t, eng)
	empA := seedEmployee(store)
	empB := seedEmployee(store)
	admin := adminActor()
	ctx := context.Background()

	if _, err := eng.Assign(ctx, req.ID, empA.ID, admin); err != nil {
		t.Fatalf("assigning: %v", err)
	}

	// Between empA's read and its write, the admin pulls the request back
	// to pending and hands it to empB. The status is assigned again, but
	// the request no longer belongs to empA.
	hooked.afterGet = func() {
		if _, err := eng.ChangeStatus(ctx, req.ID, models.StatusPending, admin, nil, nil); err != nil {
			t.Fatalf("returning to pending: %v", err)
		}
		if _, err := eng.Assign(ctx, req.ID, empB.ID, admin); err != nil {
			t.Fatalf("reassigning: %v", err)
		}
	}

	_, err := eng.ChangeStatus(ctx, req.ID, models.StatusInProgress, employeeActor(empA), nil, nil)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("stale assignee transition: err = %v, want ErrConflict", err)
	}

	got, _ := store.Get(ctx, req.ID)
	if got.Status != models.StatusAssigned {
		t.Errorf("status = %s, want assigned", got.Status)
	}
	if got.AssigneeID == nil || *got.AssigneeID != empB.ID {
		t.Error("request taken away from the reassigned employee")
	}

	a, _ := store.GetByID(ctx, empA.ID)
	b, _ := store.GetByID(ctx, empB.ID)
	if a.ActiveTasks != 0 || b.ActiveTasks != 1 {
		t.Errorf("workload = %d/%d, want 0/1", a.ActiveTasks, b.ActiveTasks)
	}
}

func TestOverlappingStatusChangesOneWins(t *testing.T) {
	eng, hooked, store := newHookedEngine(t)
	req := seedRequest(t, eng)
	emp := seedEmployee(store)
	admin := adminActor()
	ctx := context.Background()

	if _, err := eng.Assign(ctx, req.ID, emp.ID, admin); err != nil {
		t.Fatalf("assigning: %v", err)
	}

	// A second admin completes a full transition after the first admin read
	// the request but before its write lands.
	var innerErr error
	hooked.afterGet = func() {
		_, innerErr = eng.ChangeStatus(ctx, req.ID, models.StatusPending, adminActor(), nil, nil)
	}

	_, outerErr := eng.ChangeStatus(ctx, req.ID, models.StatusClosed, admin, nil, nil)

	if innerErr != nil {
		t.Fatalf("inner transition: %v", innerErr)
	}
	if !errors.Is(outerErr, services.ErrConflict) {
		t.Errorf("outer transition: err = %v, want ErrConflict", outerErr)
	}

	got, _ := store.Get(ctx, req.ID)
	if got.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	after, _ := store.GetByID(ctx, emp.ID)
	if after.ActiveTasks != 0 {
		t.Errorf("active tasks = %d, want 0 (exactly one release)", after.ActiveTasks)
	}
}

func TestDeleteRequiresAdmin(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	emp := seedEmployee(store)

	err := eng.Delete(context.Background(), req.ID, employeeActor(emp))
	if !errors.Is(err, services.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}

	if err := eng.Delete(context.Background(), req.ID, adminActor()); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := store.Get(context.Background(), req.ID); !errors.Is(err, services.ErrNotFound) {
		t.Error("request still present after delete")
	}
}

func TestDeleteReleasesWorkload(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	admin := adminActor()
	emp := seedEmployee(store)

	if _, err := eng.Assign(context.Background(), req.ID, emp.ID, admin); err != nil {
		t.Fatalf("assigning: %v", err)
	}
	if err := eng.Delete(context.Background(), req.ID, admin); err != nil {
		t.Fatalf("deleting: %v", err)
	}

	after, _ := store.GetByID(context.Background(), emp.ID)
	if after.ActiveTasks != 0 {
		t.Errorf("active tasks = %d, want 0 after deleting an assigned request", after.ActiveTasks)
	}
}

func TestDeleteSettlesWorkloadFromFinalState(t *testing.T) {
	eng, store := newTestEngine(t)
	req := seedRequest(t, eng)
	admin := adminActor()
	emp := seedEmployee(store)
	ctx := context.Background()

	if _, err := eng.Assign(ctx, req.ID, emp.ID, admin); err != nil {
		t.Fatalf("assigning: %v", err)
	}
	if _, err := eng.ChangeStatus(ctx, req.ID, models.StatusPending, admin, nil, nil); err != nil {
		t.Fatalf("returning to pending: %v", err)
	}
	if err := eng.Delete(ctx, req.ID, admin); err != nil {
		t.Fatalf("deleting: %v", err)
	}

	// The release happened on the unassign; deleting the now-unassigned
	// request must not decrement again.
	after, _ := store.GetByID(ctx, emp.ID)
	if after.ActiveTasks != 0 {
		t.Errorf("active tasks = %d, want 0", after.ActiveTasks)
	}
}
