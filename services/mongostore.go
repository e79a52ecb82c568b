package services

import (
	"context"
	"time"

	"ertis-service/config"
	"ertis-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements RequestStore, EmployeeStore and NotificationStore
// on the shared MongoDB connection.
type MongoStore struct {
	requests      *mongo.Collection
	employees     *mongo.Collection
	notifications *mongo.Collection
}

func NewMongoStore() *MongoStore {
	return &MongoStore{
		requests:      config.GetCollection("requests"),
		employees:     config.GetCollection("employees"),
		notifications: config.GetCollection("notifications"),
	}
}

func (s *MongoStore) Insert(ctx context.Context, req *models.Request) error {
	_, err := s.requests.InsertOne(ctx, req)
	return err
}

func (s *MongoStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var req models.Request
	err := s.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// UpdateStatus performs the compare-and-swap transition: the filter matches
// _id plus the status and assignee the caller observed, so a request that
// changed under us matches nothing and the caller gets ErrConflict.
func (s *MongoStore) UpdateStatus(ctx context.Context, observed *models.Request, upd StatusUpdate) (*models.Request, error) {
	set := bson.M{
		"status":    upd.Status,
		"updatedAt": time.Now(),
	}
	if upd.AssigneeID != nil {
		set["assigneeId"] = *upd.AssigneeID
	}
	if upd.CompletionNote != nil {
		set["completionNote"] = *upd.CompletionNote
	}
	if upd.CompletionPhotoURL != nil {
		set["completionPhotoUrl"] = *upd.CompletionPhotoURL
	}

	update := bson.M{"$set": set}
	if upd.ClearAssignee {
		update["$unset"] = bson.M{"assigneeId": ""}
	}

	filter := bson.M{"_id": observed.ID, "status": observed.Status}
	if observed.AssigneeID != nil {
		filter["assigneeId"] = *observed.AssigneeID
	} else {
		filter["assigneeId"] = bson.M{"$exists": false}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Request
	err := s.requests.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	// Guard failed: distinguish a vanished request from a lost race.
	count, cerr := s.requests.CountDocuments(ctx, bson.M{"_id": observed.ID})
	if cerr != nil {
		return nil, cerr
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrConflict
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var req models.Request
	err := s.requests.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error) {
	var emp models.Employee
	err := s.employees.FindOne(ctx, bson.M{"_id": id}).Decode(&emp)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (s *MongoStore) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Employee, error) {
	var emp models.Employee
	err := s.employees.FindOne(ctx, bson.M{"userId": userID}).Decode(&emp)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (s *MongoStore) AdjustWorkload(ctx context.Context, id primitive.ObjectID, delta int) error {
	res, err := s.employees.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"activeTasks": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) RecordCompletion(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.employees.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"totalCompleted": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.notifications.InsertOne(ctx, n)
	return err
}
