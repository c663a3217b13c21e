package repository

import (
	"context"

	"progress-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TopicProgressRepository struct {
	Col *mongo.Collection
}

func NewTopicProgressRepository(db *mongo.Database) *TopicProgressRepository {
	return &TopicProgressRepository{Col: db.Collection("topic_progress")}
}

// FindByUser returns all of a user's topic progress keyed by topic id, the shape
// the strategy calculator consumes.
func (r *TopicProgressRepository) FindByUser(ctx context.Context, userID string) (map[string]*models.TopicProgress, error) {
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	progress := make(map[string]*models.TopicProgress)
	for cur.Next(ctx) {
		var tp models.TopicProgress
		if err := cur.Decode(&tp); err != nil {
			return nil, err
		}
		entry := tp
		progress[tp.TopicID] = &entry
	}
	return progress, nil
}

func (r *TopicProgressRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	count, err := r.Col.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status":  bson.M{"$in": []models.TopicStatus{models.TopicCompleted, models.TopicMastered}},
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Upsert creates the record on first interaction and overwrites it afterwards.
// Topic progress is never deleted, only transitioned.
func (r *TopicProgressRepository) Upsert(ctx context.Context, tp *models.TopicProgress) error {
	filter := bson.M{"user_id": tp.UserID, "topic_id": tp.TopicID}
	update := bson.M{"$set": bson.M{
		"user_id":          tp.UserID,
		"topic_id":         tp.TopicID,
		"subject_id":       tp.SubjectID,
		"status":           tp.Status,
		"mastery_score":    tp.MasteryScore,
		"total_study_time": tp.TotalStudyTime,
		"next_revision":    tp.NextRevision,
		"last_studied_at":  tp.LastStudiedAt,
	}}
	_, err := r.Col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
