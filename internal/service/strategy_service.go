package service

import (
	"context"
	"fmt"
	"time"

	"progress-service/internal/models"
	"progress-service/internal/strategy"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindCourseSettings(ctx context.Context, userID, courseID string) (*models.CourseSettings, error)
}

type SyllabusStore interface {
	FindAll(ctx context.Context) ([]models.SyllabusSubject, error)
	FindByID(ctx context.Context, id string) (*models.SyllabusSubject, error)
}

type TopicProgressStore interface {
	FindByUser(ctx context.Context, userID string) (map[string]*models.TopicProgress, error)
	CountCompleted(ctx context.Context, userID string) (int, error)
	Upsert(ctx context.Context, tp *models.TopicProgress) error
}

// StrategyService assembles the snapshot the calculator needs and runs it.
// The calculator itself stays pure; all fetching lives here.
type StrategyService struct {
	Users      UserStore
	Syllabus   SyllabusStore
	Topics     TopicProgressStore
	calculator *strategy.Calculator
}

func NewStrategyService(users UserStore, syllabus SyllabusStore, topics TopicProgressStore, cfg *strategy.Config) *StrategyService {
	return &StrategyService{
		Users:      users,
		Syllabus:   syllabus,
		Topics:     topics,
		calculator: strategy.NewCalculator(cfg),
	}
}

// ComputeStrategy returns nil metrics (and nil error) when the user has no plan
// dates configured; callers render a "configure your plan" prompt for that case.
func (s *StrategyService) ComputeStrategy(ctx context.Context, userID, courseID string) (*strategy.StrategyMetrics, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	syllabus, err := s.Syllabus.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load syllabus: %w", err)
	}

	topicProgress, err := s.Topics.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic progress: %w", err)
	}
	completed, err := s.Topics.CountCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed topics: %w", err)
	}

	in := strategy.Input{
		User:            user,
		Syllabus:        syllabus,
		CompletedTopics: completed,
		TopicProgress:   topicProgress,
	}

	if courseID != "" {
		settings, err := s.Users.FindCourseSettings(ctx, userID, courseID)
		if err != nil {
			return nil, fmt.Errorf("failed to load course settings: %w", err)
		}
		if settings != nil {
			in.CourseSettings = settings
			in.CourseStartDate = settings.StartedAt
			in.CourseTargetDate = settings.TargetDate
		}
	}

	return s.calculator.Calculate(in), nil
}

// StudyEvent is one study or revision interaction with a topic. StudyMinutes is
// additive; Status and MasteryScore overwrite only when provided.
type StudyEvent struct {
	TopicID      string             `json:"topic_id" binding:"required"`
	SubjectID    string             `json:"subject_id"`
	Status       models.TopicStatus `json:"status"`
	MasteryScore *float64           `json:"mastery_score"`
	StudyMinutes int                `json:"study_minutes"`
	NextRevision *time.Time         `json:"next_revision"`
	OccurredAt   time.Time          `json:"occurred_at"`
}

// RecordStudyEvent creates the topic progress record on first interaction and
// transitions it afterwards. Records are never deleted; a topic that has been
// touched at least once is at minimum in_progress.
func (s *StrategyService) RecordStudyEvent(ctx context.Context, userID string, event *StudyEvent) (*models.TopicProgress, error) {
	existing, err := s.Topics.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic progress: %w", err)
	}

	when := event.OccurredAt
	if when.IsZero() {
		when = time.Now()
	}

	tp, ok := existing[event.TopicID]
	if !ok || tp == nil {
		tp = &models.TopicProgress{
			UserID:    userID,
			TopicID:   event.TopicID,
			SubjectID: event.SubjectID,
			Status:    models.TopicNotStarted,
		}
	}

	tp.TotalStudyTime += event.StudyMinutes
	if event.Status != "" {
		tp.Status = event.Status
	} else if tp.Status == models.TopicNotStarted {
		tp.Status = models.TopicInProgress
	}
	if event.MasteryScore != nil {
		tp.MasteryScore = *event.MasteryScore
	}
	if event.NextRevision != nil {
		tp.NextRevision = event.NextRevision
	}
	if event.SubjectID != "" {
		tp.SubjectID = event.SubjectID
	}
	tp.LastStudiedAt = when

	if err := s.Topics.Upsert(ctx, tp); err != nil {
		return nil, fmt.Errorf("failed to record study event: %w", err)
	}
	return tp, nil
}
