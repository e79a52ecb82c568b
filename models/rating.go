package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Rating is a citizen's score for the handling of their completed request
type Rating struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Request   primitive.ObjectID `bson:"request" json:"request"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Employee  primitive.ObjectID `bson:"employee" json:"employee"`
	Score     int                `bson:"score" json:"score"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// EnsureRatingIndex creates a unique compound index for (request, user) so
// a reporter can rate a request at most once.
func EnsureRatingIndex(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "request", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
