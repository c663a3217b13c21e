package strategy

import (
	"math"
	"time"

	"progress-service/internal/models"
)

// Config tunes the calculator. FallbackTopicHours substitutes for topics that were
// completed without any logged study time and for topics with no estimate.
type Config struct {
	FallbackTopicHours       float64
	DefaultDailyGoalMinutes  int
	MaxScheduleIterationDays int
	Now                      func() time.Time
}

func DefaultConfig() *Config {
	return &Config{
		FallbackTopicHours:       1,
		DefaultDailyGoalMinutes:  60,
		MaxScheduleIterationDays: 3650,
		Now:                      time.Now,
	}
}

// Calculator derives pacing, velocity and projection metrics for a preparation plan.
// It is pure: one deterministic output per input snapshot, no I/O.
type Calculator struct {
	cfg *Config
}

func NewCalculator(cfg *Config) *Calculator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.FallbackTopicHours <= 0 {
		cfg.FallbackTopicHours = 1
	}
	if cfg.DefaultDailyGoalMinutes <= 0 {
		cfg.DefaultDailyGoalMinutes = 60
	}
	if cfg.MaxScheduleIterationDays <= 0 {
		cfg.MaxScheduleIterationDays = 3650
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Calculator{cfg: cfg}
}

// Calculate returns nil only when neither a start date nor a target date can be
// resolved from the course context or the user's global plan. That means "no plan
// configured yet", not an error.
func (c *Calculator) Calculate(in Input) *StrategyMetrics {
	today := truncateDay(c.cfg.Now())

	start, target := c.resolveDates(in, today)
	if start == nil && target == nil {
		return nil
	}
	if start == nil {
		start = &today
	}
	// A target closer than two days to the start is a known upstream default-data
	// defect; replace it with a six-month-out fallback anchored on today.
	if target == nil || target.Sub(*start) < 48*time.Hour {
		fallback := today.AddDate(0, 6, 0)
		target = &fallback
	}

	totalTopics := 0
	for _, subject := range in.Syllabus {
		totalTopics += len(subject.Topics)
	}
	completed := in.CompletedTopics
	remaining := totalTopics - completed
	if remaining < 0 {
		remaining = 0
	}

	daysElapsed := ceilDays(today.Sub(*start))
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	daysRemaining := ceilDays(target.Sub(today))
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	currentVelocity := float64(completed) / float64(daysElapsed)
	requiredVelocity := float64(remaining) / float64(maxInt(1, daysRemaining))

	daysToFinish := c.projectFinish(remaining, currentVelocity, daysElapsed, daysRemaining)
	projectedFinish := today.AddDate(0, 0, daysToFinish)

	metrics := &StrategyMetrics{
		StartDate:           *start,
		ExamDate:            *target,
		DaysElapsed:         daysElapsed,
		DaysRemaining:       daysRemaining,
		TotalTopics:         totalTopics,
		CompletedTopics:     completed,
		RemainingTopics:     remaining,
		CurrentVelocity:     currentVelocity,
		RequiredVelocity:    requiredVelocity,
		DaysToFinish:        daysToFinish,
		ProjectedFinishDate: projectedFinish,
		Status:              classify(daysRemaining, remaining, daysToFinish),
	}

	totalPlanDays := maxInt(1, daysElapsed+daysRemaining)
	metrics.PercentageTimeElapsed = clampPercent(float64(daysElapsed) / float64(totalPlanDays) * 100)
	metrics.PercentageContentCompleted = clampPercent(float64(completed) / float64(maxInt(1, totalTopics)) * 100)

	metrics.SubjectMetrics = c.subjectMetrics(in.Syllabus, in.TopicProgress)
	metrics.RevisionHealth = revisionHealth(in.TopicProgress, today)

	// Study hours must reuse the fallback-adjusted per-subject figures so the two
	// views of total time never disagree.
	totalStudyHours := 0.0
	for _, sm := range metrics.SubjectMetrics {
		totalStudyHours += sm.StudyHours
	}
	metrics.StudyEfficiency = c.studyEfficiency(in, totalStudyHours, *start, today, daysElapsed)

	return metrics
}

func (c *Calculator) resolveDates(in Input, today time.Time) (start, target *time.Time) {
	if in.CourseStartDate != nil {
		d := truncateDay(*in.CourseStartDate)
		start = &d
	} else if in.CourseSettings != nil && in.CourseSettings.StartedAt != nil {
		d := truncateDay(*in.CourseSettings.StartedAt)
		start = &d
	} else if in.User != nil && in.User.PreparationStartDate != nil {
		d := truncateDay(*in.User.PreparationStartDate)
		start = &d
	}

	if in.CourseTargetDate != nil {
		d := truncateDay(*in.CourseTargetDate)
		target = &d
	} else if in.CourseSettings != nil && in.CourseSettings.TargetDate != nil {
		d := truncateDay(*in.CourseSettings.TargetDate)
		target = &d
	} else if in.User != nil && in.User.CurrentExam != nil && in.User.CurrentExam.TargetDate != nil {
		d := truncateDay(*in.User.CurrentExam.TargetDate)
		target = &d
	}
	return start, target
}

func (c *Calculator) projectFinish(remaining int, velocity float64, daysElapsed, daysRemaining int) int {
	if remaining == 0 {
		return 0
	}
	if velocity > 0 {
		return int(math.Ceil(float64(remaining) / velocity))
	}
	// Grace period: a brand-new user with nothing completed yet is assumed to
	// finish exactly on time rather than never.
	if daysElapsed <= 7 {
		return daysRemaining
	}
	return neverFinishesDays
}

func classify(daysRemaining, remaining, daysToFinish int) PlanStatus {
	if daysRemaining <= 0 && remaining > 0 {
		return StatusCritical
	}
	overshoot := daysToFinish - daysRemaining
	switch {
	case overshoot > 14:
		return StatusCritical
	case overshoot >= 1:
		return StatusAtRisk
	case -overshoot >= 14:
		return StatusAhead
	default:
		return StatusOnTrack
	}
}

func (c *Calculator) subjectMetrics(syllabus []models.SyllabusSubject, progress map[string]*models.TopicProgress) []SubjectMetrics {
	metrics := make([]SubjectMetrics, 0, len(syllabus))
	for _, subject := range syllabus {
		sm := SubjectMetrics{
			SubjectID:   subject.ID,
			Name:        subject.Name,
			TotalTopics: len(subject.Topics),
		}
		masterySum := 0.0
		masteryCount := 0
		studyMinutes := 0.0
		for _, topic := range subject.Topics {
			tp, ok := progress[topic.ID]
			if !ok || tp == nil {
				continue
			}
			masterySum += tp.MasteryScore
			masteryCount++
			if tp.IsDone() {
				sm.CompletedTopics++
				if tp.Status == models.TopicMastered {
					sm.MasteredTopics++
				}
			}
			minutes := float64(tp.TotalStudyTime)
			if minutes == 0 && tp.IsDone() {
				hours := topic.EstimatedHours
				if hours <= 0 {
					hours = c.cfg.FallbackTopicHours
				}
				minutes = hours * 60
			}
			studyMinutes += minutes
		}
		if masteryCount > 0 {
			sm.AverageMastery = masterySum / float64(masteryCount)
		}
		sm.StudyHours = studyMinutes / 60
		sm.CompletionPercentage = float64(sm.CompletedTopics) / float64(maxInt(1, sm.TotalTopics)) * 100
		if sm.StudyHours > 0 {
			sm.Efficiency = float64(sm.CompletedTopics) / sm.StudyHours
		}
		metrics = append(metrics, sm)
	}
	return metrics
}

func revisionHealth(progress map[string]*models.TopicProgress, today time.Time) RevisionHealth {
	var health RevisionHealth
	for _, tp := range progress {
		if tp == nil || tp.NextRevision == nil {
			continue
		}
		health.Total++
		due := truncateDay(*tp.NextRevision)
		switch {
		case due.Before(today):
			health.Overdue++
		case due.Equal(today):
			health.DueToday++
		default:
			health.Upcoming++
		}
	}
	if health.Total == 0 {
		health.HealthScore = 100
		return health
	}
	score := 100 - float64(health.Overdue)/float64(health.Total)*100
	if score < 0 {
		score = 0
	}
	health.HealthScore = score
	return health
}

func (c *Calculator) studyEfficiency(in Input, totalStudyHours float64, start, today time.Time, daysElapsed int) StudyEfficiency {
	prefs := c.resolvePreferences(in)

	var goalMinutes float64
	if prefs == nil {
		goalMinutes = float64(c.cfg.DefaultDailyGoalMinutes * daysElapsed)
	} else if !prefs.UseWeekendSchedule && len(prefs.ActiveDays) == 0 {
		daily := prefs.DailyStudyGoalMinutes
		if daily <= 0 {
			daily = c.cfg.DefaultDailyGoalMinutes
		}
		goalMinutes = float64(daily * daysElapsed)
	} else {
		// A weekday/weekend split or a restricted active-day set only sums
		// correctly day by day.
		goalMinutes = c.walkSchedule(prefs, start, today)
	}

	goalHours := goalMinutes / 60
	eff := StudyEfficiency{
		TotalStudyHours: totalStudyHours,
		GoalStudyHours:  goalHours,
	}
	eff.PercentOfGoal = totalStudyHours / math.Max(1, goalHours) * 100
	return eff
}

func (c *Calculator) resolvePreferences(in Input) *models.StudyPreferences {
	if in.CourseSettings != nil && in.CourseSettings.Preferences != nil {
		return in.CourseSettings.Preferences
	}
	if in.User != nil {
		return in.User.Preferences
	}
	return nil
}

func (c *Calculator) walkSchedule(prefs *models.StudyPreferences, start, today time.Time) float64 {
	active := make(map[int]bool, len(prefs.ActiveDays))
	for _, d := range prefs.ActiveDays {
		active[d] = true
	}

	total := 0.0
	iterations := 0
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		iterations++
		if iterations > c.cfg.MaxScheduleIterationDays {
			break
		}
		weekday := int(day.Weekday())
		if len(active) > 0 && !active[weekday] {
			continue
		}
		minutes := prefs.DailyStudyGoalMinutes
		if prefs.UseWeekendSchedule {
			if weekday == 0 || weekday == 6 {
				minutes = prefs.WeekendStudyMinutes
			} else {
				minutes = prefs.WeekdayStudyMinutes
			}
		}
		if minutes <= 0 {
			minutes = c.cfg.DefaultDailyGoalMinutes
		}
		total += float64(minutes)
	}
	return total
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
