package services

import (
	"context"
	"sync"
	"time"

	"ertis-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is an in-memory implementation of the store interfaces, used by
// the engine tests. Its UpdateStatus mirrors the MongoDB compare-and-swap
// under a single mutex, so racing transitions behave exactly as they do
// against the real store.
type MemStore struct {
	mu            sync.Mutex
	requests      map[primitive.ObjectID]models.Request
	employees     map[primitive.ObjectID]models.Employee
	Notifications []models.Notification
}

func NewMemStore() *MemStore {
	return &MemStore{
		requests:  make(map[primitive.ObjectID]models.Request),
		employees: make(map[primitive.ObjectID]models.Employee),
	}
}

func (s *MemStore) Insert(ctx context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = *req
	return nil
}

func (s *MemStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &req, nil
}

func (s *MemStore) UpdateStatus(ctx context.Context, observed *models.Request, upd StatusUpdate) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[observed.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Status != observed.Status {
		return nil, ErrConflict
	}
	if (req.AssigneeID == nil) != (observed.AssigneeID == nil) {
		return nil, ErrConflict
	}
	if req.AssigneeID != nil && *req.AssigneeID != *observed.AssigneeID {
		return nil, ErrConflict
	}

	req.Status = upd.Status
	req.UpdatedAt = time.Now()
	if upd.AssigneeID != nil {
		assignee := *upd.AssigneeID
		req.AssigneeID = &assignee
	}
	if upd.ClearAssignee {
		req.AssigneeID = nil
	}
	if upd.CompletionNote != nil {
		note := *upd.CompletionNote
		req.CompletionNote = &note
	}
	if upd.CompletionPhotoURL != nil {
		photo := *upd.CompletionPhotoURL
		req.CompletionPhotoURL = &photo
	}

	s.requests[observed.ID] = req
	return &req, nil
}

func (s *MemStore) Delete(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.requests, id)
	return &req, nil
}

// PutEmployee seeds or replaces an employee record.
func (s *MemStore) PutEmployee(emp models.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
}

func (s *MemStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	emp, ok := s.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &emp, nil
}

func (s *MemStore) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, emp := range s.employees {
		if emp.UserID == userID {
			e := emp
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) AdjustWorkload(ctx context.Context, id primitive.ObjectID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	emp, ok := s.employees[id]
	if !ok {
		return ErrNotFound
	}
	emp.ActiveTasks += delta
	emp.UpdatedAt = time.Now()
	s.employees[id] = emp
	return nil
}

func (s *MemStore) RecordCompletion(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	emp, ok := s.employees[id]
	if !ok {
		return ErrNotFound
	}
	emp.TotalCompleted++
	emp.UpdatedAt = time.Now()
	s.employees[id] = emp
	return nil
}

func (s *MemStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notifications = append(s.Notifications, *n)
	return nil
}
