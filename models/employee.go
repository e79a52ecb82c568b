package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Employee is a field worker profile bound to a user account. ActiveTasks
// is the workload counter maintained by the assignment dispatcher: the
// number of requests currently assigned or in progress for this employee.
type Employee struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Specialization string             `bson:"specialization" json:"specialization"`
	IsAvailable    bool               `bson:"isAvailable" json:"isAvailable"`
	ActiveTasks    int                `bson:"activeTasks" json:"activeTasks"`
	TotalCompleted int                `bson:"totalCompleted" json:"totalCompleted"`
	AverageRating  float64            `bson:"averageRating" json:"averageRating"`
	RatingCount    int                `bson:"ratingCount" json:"ratingCount"`
	PhotoURL       *string            `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
