package models

import "time"

type Track string

const (
	TrackExam       Track = "exam"
	TrackCourseTech Track = "course_tech"
)

// Tracks lists the known learning tracks in a stable order.
func Tracks() []Track {
	return []Track{TrackExam, TrackCourseTech}
}

type ProficiencyLevel string

const (
	ProficiencyBeginner     ProficiencyLevel = "beginner"
	ProficiencyIntermediate ProficiencyLevel = "intermediate"
	ProficiencyAdvanced     ProficiencyLevel = "advanced"
	ProficiencyExpert       ProficiencyLevel = "expert"
)

type DifficultyProgression struct {
	Current             string `bson:"current" json:"current"`
	Recommended         string `bson:"recommended" json:"recommended"`
	ReadyForAdvancement bool   `bson:"ready_for_advancement" json:"ready_for_advancement"`
}

type TrackProgress struct {
	MissionsCompleted     int                   `bson:"missions_completed" json:"missions_completed"`
	AverageScore          float64               `bson:"average_score" json:"average_score"`
	TimeInvested          int                   `bson:"time_invested" json:"time_invested"` // minutes
	ProficiencyLevel      ProficiencyLevel      `bson:"proficiency_level" json:"proficiency_level"`
	MasteredSkills        []string              `bson:"mastered_skills" json:"mastered_skills"`
	SkillsInProgress      []string              `bson:"skills_in_progress" json:"skills_in_progress"`
	DifficultyProgression DifficultyProgression `bson:"difficulty_progression" json:"difficulty_progression"`
}

type OverallProgress struct {
	TotalMissionsCompleted int     `bson:"total_missions_completed" json:"total_missions_completed"`
	TotalTimeInvested      int     `bson:"total_time_invested" json:"total_time_invested"` // minutes
	AverageScore           float64 `bson:"average_score" json:"average_score"`
	CurrentStreak          int     `bson:"current_streak" json:"current_streak"`
	LongestStreak          int     `bson:"longest_streak" json:"longest_streak"`
	ConsistencyRating      float64 `bson:"consistency_rating" json:"consistency_rating"` // [0,1]
}

type PeriodSummary struct {
	Period            string  `bson:"period" json:"period"` // ISO week (2025-W31) or month (2025-07)
	MissionsCompleted int     `bson:"missions_completed" json:"missions_completed"`
	MinutesInvested   int     `bson:"minutes_invested" json:"minutes_invested"`
	AverageScore      float64 `bson:"average_score" json:"average_score"`
}

type JourneyLink struct {
	JourneyID string    `bson:"journey_id" json:"journey_id"`
	Title     string    `bson:"title" json:"title"`
	LinkedAt  time.Time `bson:"linked_at" json:"linked_at"`
}

type JourneyContribution struct {
	JourneyID   string    `bson:"journey_id" json:"journey_id"`
	Percentage  float64   `bson:"percentage" json:"percentage"`
	Milestone   string    `bson:"milestone,omitempty" json:"milestone,omitempty"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}

// UnifiedProgress is the single per-user progress document. Every mutation is a
// full-document read-modify-write; Revision guards against concurrent writers.
type UnifiedProgress struct {
	ID               string                         `bson:"_id,omitempty" json:"id"`
	UserID           string                         `bson:"user_id" json:"user_id"`
	OverallProgress  OverallProgress                `bson:"overall_progress" json:"overall_progress"`
	TrackProgress    map[Track]*TrackProgress       `bson:"track_progress" json:"track_progress"`
	WeeklySummaries  []PeriodSummary                `bson:"weekly_summaries" json:"weekly_summaries"`
	MonthlySummaries []PeriodSummary                `bson:"monthly_summaries" json:"monthly_summaries"`
	LinkedJourneys   []JourneyLink                  `bson:"linked_journeys,omitempty" json:"linked_journeys,omitempty"`
	JourneyProgress  map[string]JourneyContribution `bson:"journey_progress,omitempty" json:"journey_progress,omitempty"`
	LastActivityAt   *time.Time                     `bson:"last_activity_at,omitempty" json:"last_activity_at,omitempty"`
	Revision         int64                          `bson:"revision" json:"revision"`
	UpdatedAt        time.Time                      `bson:"updated_at" json:"updated_at"`
}

// NewUnifiedProgress returns the zeroed default document created lazily on first read.
func NewUnifiedProgress(userID string) *UnifiedProgress {
	tracks := make(map[Track]*TrackProgress, 2)
	for _, track := range Tracks() {
		tracks[track] = &TrackProgress{
			ProficiencyLevel: ProficiencyBeginner,
			MasteredSkills:   []string{},
			SkillsInProgress: []string{},
			DifficultyProgression: DifficultyProgression{
				Current:     "easy",
				Recommended: "easy",
			},
		}
	}
	return &UnifiedProgress{
		UserID:           userID,
		TrackProgress:    tracks,
		WeeklySummaries:  []PeriodSummary{},
		MonthlySummaries: []PeriodSummary{},
	}
}

// Track returns the progress entry for a track, creating it when the stored
// document predates the track.
func (p *UnifiedProgress) Track(track Track) *TrackProgress {
	if p.TrackProgress == nil {
		p.TrackProgress = make(map[Track]*TrackProgress, 2)
	}
	tp, ok := p.TrackProgress[track]
	if !ok {
		tp = &TrackProgress{
			ProficiencyLevel: ProficiencyBeginner,
			MasteredSkills:   []string{},
			SkillsInProgress: []string{},
			DifficultyProgression: DifficultyProgression{
				Current:     "easy",
				Recommended: "easy",
			},
		}
		p.TrackProgress[track] = tp
	}
	return tp
}
