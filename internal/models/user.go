package models

import "time"

type StudyPreferences struct {
	DailyStudyGoalMinutes int   `bson:"daily_study_goal_minutes" json:"daily_study_goal_minutes"`
	UseWeekendSchedule    bool  `bson:"use_weekend_schedule" json:"use_weekend_schedule"`
	WeekdayStudyMinutes   int   `bson:"weekday_study_minutes" json:"weekday_study_minutes"`
	WeekendStudyMinutes   int   `bson:"weekend_study_minutes" json:"weekend_study_minutes"`
	ActiveDays            []int `bson:"active_days" json:"active_days"` // 0=Sunday .. 6=Saturday
}

type ExamInfo struct {
	Name       string     `bson:"name" json:"name"`
	TargetDate *time.Time `bson:"target_date,omitempty" json:"target_date,omitempty"`
}

// CourseSettings overrides the user's global plan dates for a single course.
type CourseSettings struct {
	UserID      string            `bson:"user_id" json:"user_id"`
	CourseID    string            `bson:"course_id" json:"course_id"`
	StartedAt   *time.Time        `bson:"started_at,omitempty" json:"started_at,omitempty"`
	TargetDate  *time.Time        `bson:"target_date,omitempty" json:"target_date,omitempty"`
	Preferences *StudyPreferences `bson:"preferences,omitempty" json:"preferences,omitempty"`
}

type User struct {
	ID                   string            `bson:"_id,omitempty" json:"id"`
	Email                string            `bson:"email" json:"email"`
	DisplayName          string            `bson:"display_name" json:"display_name"`
	PreparationStartDate *time.Time        `bson:"preparation_start_date,omitempty" json:"preparation_start_date,omitempty"`
	CurrentExam          *ExamInfo         `bson:"current_exam,omitempty" json:"current_exam,omitempty"`
	Preferences          *StudyPreferences `bson:"preferences,omitempty" json:"preferences,omitempty"`
	CreatedAt            time.Time         `bson:"created_at" json:"created_at"`
}
