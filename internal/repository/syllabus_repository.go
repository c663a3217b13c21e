package repository

import (
	"context"

	"progress-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SyllabusRepository reads authored syllabus content. The service never writes it.
type SyllabusRepository struct {
	Col *mongo.Collection
}

func NewSyllabusRepository(db *mongo.Database) *SyllabusRepository {
	return &SyllabusRepository{Col: db.Collection("syllabus_subjects")}
}

func (r *SyllabusRepository) FindAll(ctx context.Context) ([]models.SyllabusSubject, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cur, err := r.Col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var subjects []models.SyllabusSubject
	for cur.Next(ctx) {
		var subject models.SyllabusSubject
		if err := cur.Decode(&subject); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, nil
}

func (r *SyllabusRepository) FindByID(ctx context.Context, id string) (*models.SyllabusSubject, error) {
	var subject models.SyllabusSubject
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&subject)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &subject, nil
}
