package models

import "time"

type Mission struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	Track     Track  `bson:"track" json:"track"`
	SubjectID string `bson:"subject_id" json:"subject_id"`
	TopicID   string `bson:"topic_id" json:"topic_id"`
	Title     string `bson:"title" json:"title"`
}

type MissionResults struct {
	Percentage      float64   `bson:"percentage" json:"percentage"` // 0-100
	DurationMinutes int       `bson:"duration_minutes" json:"duration_minutes"`
	CompletedAt     time.Time `bson:"completed_at" json:"completed_at"`
}

// TestPerformance is the outcome of an adaptive test session.
type TestPerformance struct {
	Accuracy           float64 `bson:"accuracy" json:"accuracy"` // 0-100
	QuestionsAttempted int     `bson:"questions_attempted" json:"questions_attempted"`
	QuestionsCorrect   int     `bson:"questions_correct" json:"questions_correct"`
	DurationMinutes    int     `bson:"duration_minutes" json:"duration_minutes"`
}

type TestMetadata struct {
	SessionID string    `bson:"session_id" json:"session_id"`
	Track     Track     `bson:"track" json:"track"`
	SkillID   string    `bson:"skill_id" json:"skill_id"`
	TakenAt   time.Time `bson:"taken_at" json:"taken_at"`
}

type TestRecommendation struct {
	ID         string   `bson:"_id,omitempty" json:"id"`
	Track      Track    `bson:"track" json:"track"`
	Type       string   `bson:"type" json:"type"` // "remediation" or "comprehensive"
	Reason     string   `bson:"reason" json:"reason"`
	SkillIDs   []string `bson:"skill_ids,omitempty" json:"skill_ids,omitempty"`
	Priority   int      `bson:"priority" json:"priority"`
}
