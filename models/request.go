package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus enum
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusAssigned   RequestStatus = "assigned"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusClosed     RequestStatus = "closed"
)

// RequestPriority enum
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
)

// Role enum
type Role string

const (
	RoleCitizen  Role = "citizen"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Request represents a municipal problem report submitted by a citizen
type Request struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ReporterID         primitive.ObjectID  `bson:"reporterId" json:"reporterId"`
	Category           string              `bson:"category" json:"category"`
	ProblemType        string              `bson:"problemType" json:"problemType"`
	Description        string              `bson:"description" json:"description"`
	Address            string              `bson:"address" json:"address"`
	Latitude           *float64            `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude          *float64            `bson:"longitude,omitempty" json:"longitude,omitempty"`
	PhotoURL           *string             `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	Status             RequestStatus       `bson:"status" json:"status"`
	Priority           RequestPriority     `bson:"priority" json:"priority"`
	AssigneeID         *primitive.ObjectID `bson:"assigneeId,omitempty" json:"assigneeId,omitempty"`
	CompletionNote     *string             `bson:"completionNote,omitempty" json:"completionNote,omitempty"`
	CompletionPhotoURL *string             `bson:"completionPhotoUrl,omitempty" json:"completionPhotoUrl,omitempty"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// transitions is the single source of truth for the status graph: each edge
// maps to the roles allowed to take it. Employee edges additionally require
// the actor to be the current assignee (enforced by the lifecycle engine,
// not here).
var transitions = map[RequestStatus]map[RequestStatus][]Role{
	StatusPending: {
		StatusAssigned:   {RoleAdmin},
		StatusInProgress: {RoleAdmin},
		StatusClosed:     {RoleAdmin},
	},
	StatusAssigned: {
		StatusInProgress: {RoleEmployee, RoleAdmin},
		StatusPending:    {RoleAdmin},
		StatusClosed:     {RoleAdmin},
	},
	StatusInProgress: {
		StatusCompleted: {RoleEmployee, RoleAdmin},
		StatusClosed:    {RoleAdmin},
	},
	StatusCompleted: {
		StatusInProgress: {RoleAdmin},
	},
	StatusClosed: {
		StatusPending: {RoleAdmin},
	},
}

// CanTransition reports whether the status graph has an edge from one
// status to another, regardless of who asks.
func CanTransition(from, to RequestStatus) bool {
	_, ok := transitions[from][to]
	return ok
}

// TransitionAllowed reports whether the given role may move a request from
// one status to another. Citizens never mutate status.
func TransitionAllowed(from, to RequestStatus, role Role) bool {
	for _, r := range transitions[from][to] {
		if r == role {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses the given role may move a request to from
// its current status.
func NextStatuses(from RequestStatus, role Role) []RequestStatus {
	var out []RequestStatus
	for to := range transitions[from] {
		if TransitionAllowed(from, to, role) {
			out = append(out, to)
		}
	}
	return out
}

// Active reports whether the status counts toward an employee's workload.
func (s RequestStatus) Active() bool {
	return s == StatusAssigned || s == StatusInProgress
}

// AllStatuses in lifecycle order.
func AllStatuses() []RequestStatus {
	return []RequestStatus{StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusClosed}
}

// ValidStatus reports whether s names a known request status.
func ValidStatus(s string) bool {
	switch RequestStatus(s) {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p names a known priority.
func ValidPriority(p string) bool {
	switch RequestPriority(p) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidRole reports whether r names a known role.
func ValidRole(r string) bool {
	switch Role(r) {
	case RoleCitizen, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}
