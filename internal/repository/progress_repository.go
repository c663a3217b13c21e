package repository

import (
	"context"
	"errors"
	"time"

	"progress-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrRevisionConflict means another writer replaced the document between our
// read and write. The caller decides whether to surface or re-read; we never retry.
var ErrRevisionConflict = errors.New("progress document was modified by another writer")

type ProgressRepository struct {
	Col *mongo.Collection
}

func NewProgressRepository(db *mongo.Database) *ProgressRepository {
	return &ProgressRepository{Col: db.Collection("unified_progress")}
}

// FindByUser returns the user's progress document, or nil when none exists yet.
func (r *ProgressRepository) FindByUser(ctx context.Context, userID string) (*models.UnifiedProgress, error) {
	var progress models.UnifiedProgress
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&progress)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) Create(ctx context.Context, progress *models.UnifiedProgress) error {
	// One document per user; the user id doubles as the document id so that a
	// full-document replace always targets the same _id.
	if progress.ID == "" {
		progress.ID = progress.UserID
	}
	progress.Revision = 1
	progress.UpdatedAt = time.Now()
	_, err := r.Col.InsertOne(ctx, progress)
	return err
}

// Replace writes the full document back, guarded by the revision read earlier.
// A non-matching revision reports ErrRevisionConflict instead of silently
// dropping the other writer's update.
func (r *ProgressRepository) Replace(ctx context.Context, progress *models.UnifiedProgress) error {
	filter := bson.M{"user_id": progress.UserID, "revision": progress.Revision}
	progress.Revision++
	progress.UpdatedAt = time.Now()

	res, err := r.Col.ReplaceOne(ctx, filter, progress)
	if err != nil {
		progress.Revision--
		return err
	}
	if res.MatchedCount == 0 {
		progress.Revision--
		return ErrRevisionConflict
	}
	return nil
}
