package models

import "time"

type TopicStatus string

const (
	TopicNotStarted TopicStatus = "not_started"
	TopicInProgress TopicStatus = "in_progress"
	TopicCompleted  TopicStatus = "completed"
	TopicMastered   TopicStatus = "mastered"
)

type Topic struct {
	ID             string  `bson:"_id,omitempty" json:"id"`
	Name           string  `bson:"name" json:"name"`
	EstimatedHours float64 `bson:"estimated_hours" json:"estimated_hours"`
	Order          int     `bson:"order" json:"order"`
}

// SyllabusSubject is authored content, read-only to this service.
type SyllabusSubject struct {
	ID     string  `bson:"_id,omitempty" json:"id"`
	Name   string  `bson:"name" json:"name"`
	Order  int     `bson:"order" json:"order"`
	Topics []Topic `bson:"topics" json:"topics"`
}

// TopicProgress is created on first interaction with a topic and only ever
// transitions status afterwards; it is never deleted.
type TopicProgress struct {
	ID             string      `bson:"_id,omitempty" json:"id"`
	UserID         string      `bson:"user_id" json:"user_id"`
	TopicID        string      `bson:"topic_id" json:"topic_id"`
	SubjectID      string      `bson:"subject_id" json:"subject_id"`
	Status         TopicStatus `bson:"status" json:"status"`
	MasteryScore   float64     `bson:"mastery_score" json:"mastery_score"`
	TotalStudyTime int         `bson:"total_study_time" json:"total_study_time"` // minutes
	NextRevision   *time.Time  `bson:"next_revision,omitempty" json:"next_revision,omitempty"`
	LastStudiedAt  time.Time   `bson:"last_studied_at" json:"last_studied_at"`
}

func (tp *TopicProgress) IsDone() bool {
	return tp.Status == TopicCompleted || tp.Status == TopicMastered
}
