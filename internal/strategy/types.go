package strategy

import (
	"time"

	"progress-service/internal/models"
)

type PlanStatus string

const (
	StatusOnTrack  PlanStatus = "on_track"
	StatusAhead    PlanStatus = "ahead"
	StatusAtRisk   PlanStatus = "at_risk"
	StatusCritical PlanStatus = "critical"
)

// neverFinishesDays is the sentinel projection for a user with no measurable velocity
// past the grace period.
const neverFinishesDays = 9999

type SubjectMetrics struct {
	SubjectID            string  `json:"subject_id"`
	Name                 string  `json:"name"`
	TotalTopics          int     `json:"total_topics"`
	CompletedTopics      int     `json:"completed_topics"`
	MasteredTopics       int     `json:"mastered_topics"`
	AverageMastery       float64 `json:"average_mastery"`
	StudyHours           float64 `json:"study_hours"`
	CompletionPercentage float64 `json:"completion_percentage"`
	Efficiency           float64 `json:"efficiency"` // completed topics per study hour
}

type RevisionHealth struct {
	Overdue     int     `json:"overdue"`
	DueToday    int     `json:"due_today"`
	Upcoming    int     `json:"upcoming"`
	Total       int     `json:"total"`
	HealthScore float64 `json:"health_score"` // [0,100]
}

type StudyEfficiency struct {
	TotalStudyHours float64 `json:"total_study_hours"`
	GoalStudyHours  float64 `json:"goal_study_hours"`
	PercentOfGoal   float64 `json:"percent_of_goal"`
}

type StrategyMetrics struct {
	StartDate                  time.Time        `json:"start_date"`
	ExamDate                   time.Time        `json:"exam_date"`
	DaysElapsed                int              `json:"days_elapsed"`
	DaysRemaining              int              `json:"days_remaining"`
	TotalTopics                int              `json:"total_topics"`
	CompletedTopics            int              `json:"completed_topics"`
	RemainingTopics            int              `json:"remaining_topics"`
	CurrentVelocity            float64          `json:"current_velocity"`  // topics/day observed
	RequiredVelocity           float64          `json:"required_velocity"` // topics/day to finish on time
	DaysToFinish               int              `json:"days_to_finish"`
	ProjectedFinishDate        time.Time        `json:"projected_finish_date"`
	Status                     PlanStatus       `json:"status"`
	PercentageTimeElapsed      float64          `json:"percentage_time_elapsed"`      // clamped [0,100]
	PercentageContentCompleted float64          `json:"percentage_content_completed"` // clamped [0,100]
	SubjectMetrics             []SubjectMetrics `json:"subject_metrics"`
	RevisionHealth             RevisionHealth   `json:"revision_health"`
	StudyEfficiency            StudyEfficiency  `json:"study_efficiency"`
}

// Input is a snapshot of everything the calculator needs; nothing is fetched
// internally and nothing is persisted.
type Input struct {
	User             *models.User
	Syllabus         []models.SyllabusSubject
	CompletedTopics  int
	TopicProgress    map[string]*models.TopicProgress
	CourseStartDate  *time.Time
	CourseTargetDate *time.Time
	CourseSettings   *models.CourseSettings
}
