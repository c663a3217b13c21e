package service

import (
	"context"
	"fmt"
	"time"

	"progress-service/internal/models"

	"github.com/google/uuid"
)

// ProgressStore is the document-store contract the aggregator needs: one full
// read and one full write of the per-user progress document.
type ProgressStore interface {
	FindByUser(ctx context.Context, userID string) (*models.UnifiedProgress, error)
	Create(ctx context.Context, progress *models.UnifiedProgress) error
	Replace(ctx context.Context, progress *models.UnifiedProgress) error
}

// ProgressCache is best effort; all methods tolerate a nil implementation.
type ProgressCache interface {
	GetProgress(ctx context.Context, userID string) *models.UnifiedProgress
	SetProgress(ctx context.Context, progress *models.UnifiedProgress)
	InvalidateProgress(ctx context.Context, userID string)
}

const (
	adaptiveTestTrackWeight   = 0.3
	adaptiveTestOverallWeight = 0.1
	subjectProficiencyWeight  = 0.3

	masteredSkillThreshold   = 80.0
	inProgressSkillThreshold = 40.0

	periodSummaryWindow = 12
)

// ProgressService maintains the unified progress document: running averages,
// streaks, proficiency tiers and cross-track skill sets. Every mutation is a
// read-modify-write cycle against the store.
type ProgressService struct {
	Store ProgressStore
	Cache ProgressCache
	now   func() time.Time
}

func NewProgressService(store ProgressStore, cache ProgressCache) *ProgressService {
	return &ProgressService{Store: store, Cache: cache, now: time.Now}
}

// GetUserProgress is a read-through: the zeroed default document is created and
// persisted on first access.
func (s *ProgressService) GetUserProgress(ctx context.Context, userID string) (*models.UnifiedProgress, error) {
	if s.Cache != nil {
		if cached := s.Cache.GetProgress(ctx, userID); cached != nil {
			return cached, nil
		}
	}

	progress, err := s.Store.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if progress == nil {
		progress = models.NewUnifiedProgress(userID)
		if err := s.Store.Create(ctx, progress); err != nil {
			return nil, fmt.Errorf("failed to initialize progress: %w", err)
		}
	}
	if s.Cache != nil {
		s.Cache.SetProgress(ctx, progress)
	}
	return progress, nil
}

// loadForUpdate bypasses the cache so the revision we carry into Replace is the
// store's own.
func (s *ProgressService) loadForUpdate(ctx context.Context, userID string) (*models.UnifiedProgress, bool, error) {
	progress, err := s.Store.FindByUser(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load progress: %w", err)
	}
	if progress == nil {
		return models.NewUnifiedProgress(userID), true, nil
	}
	return progress, false, nil
}

func (s *ProgressService) persist(ctx context.Context, progress *models.UnifiedProgress, isNew bool) error {
	var err error
	if isNew {
		err = s.Store.Create(ctx, progress)
	} else {
		err = s.Store.Replace(ctx, progress)
	}
	if err != nil {
		return err
	}
	if s.Cache != nil {
		s.Cache.InvalidateProgress(ctx, progress.UserID)
		s.Cache.SetProgress(ctx, progress)
	}
	return nil
}

// UpdateProgressAfterMission folds a completed mission into the document:
// counters, running means, streak, proficiency tier and period summaries.
func (s *ProgressService) UpdateProgressAfterMission(ctx context.Context, userID string, mission *models.Mission, results *models.MissionResults) (*models.UnifiedProgress, error) {
	progress, isNew, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	when := results.CompletedAt
	if when.IsZero() {
		when = s.now()
	}

	overall := &progress.OverallProgress
	overall.TotalMissionsCompleted++
	overall.AverageScore = runningMean(overall.AverageScore, results.Percentage, overall.TotalMissionsCompleted)
	overall.TotalTimeInvested += results.DurationMinutes

	track := progress.Track(mission.Track)
	track.MissionsCompleted++
	track.AverageScore = runningMean(track.AverageScore, results.Percentage, track.MissionsCompleted)
	track.TimeInvested += results.DurationMinutes
	updateProficiency(track)

	updateStreak(progress, when)
	overall.ConsistencyRating = consistencyRating(overall.CurrentStreak, overall.TotalMissionsCompleted)

	updatePeriodSummary(&progress.WeeklySummaries, weekKey(when), results)
	updatePeriodSummary(&progress.MonthlySummaries, monthKey(when), results)

	progress.LastActivityAt = &when

	if err := s.persist(ctx, progress, isNew); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}
	return progress, nil
}

// UpdateProgressFromAdaptiveTest blends a test observation into the averages:
// 30% weight on the track it belongs to, 10% on the overall score.
func (s *ProgressService) UpdateProgressFromAdaptiveTest(ctx context.Context, userID string, results *models.TestPerformance, meta *models.TestMetadata) error {
	progress, isNew, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	track := progress.Track(meta.Track)
	track.AverageScore = blend(track.AverageScore, results.Accuracy, adaptiveTestTrackWeight)
	track.TimeInvested += results.DurationMinutes
	updateProficiency(track)

	overall := &progress.OverallProgress
	overall.AverageScore = blend(overall.AverageScore, results.Accuracy, adaptiveTestOverallWeight)
	overall.TotalTimeInvested += results.DurationMinutes

	when := meta.TakenAt
	if when.IsZero() {
		when = s.now()
	}
	// Tests are activity too: the streak rules must run on every path that
	// advances LastActivityAt, or a later same-day mission would inherit a
	// streak an inactivity gap should have reset.
	updateStreak(progress, when)
	overall.ConsistencyRating = consistencyRating(overall.CurrentStreak, overall.TotalMissionsCompleted)
	progress.LastActivityAt = &when

	if err := s.persist(ctx, progress, isNew); err != nil {
		return fmt.Errorf("failed to update progress from adaptive test: %w", err)
	}
	return nil
}

// UpdateSubjectProficiency maps a [-2,+2] ability estimate onto [0,100], blends
// it into the owning track's score and moves the subject between the mastered
// and in-progress skill sets.
func (s *ProgressService) UpdateSubjectProficiency(ctx context.Context, userID, subjectID string, abilityEstimate, confidence float64) error {
	progress, isNew, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	score := (abilityEstimate + 2) * 25
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	track := progress.Track(owningTrack(progress, subjectID))
	track.AverageScore = blend(track.AverageScore, score, subjectProficiencyWeight)
	updateSkillMastery(track, subjectID, score)
	updateProficiency(track)

	if err := s.persist(ctx, progress, isNew); err != nil {
		return fmt.Errorf("failed to update subject proficiency: %w", err)
	}
	return nil
}

// GetAdaptiveTestRecommendations is rule based: a track with a sub-75 average
// and open skills gets a remediation recommendation; otherwise the caller gets
// a single comprehensive assessment suggestion.
func (s *ProgressService) GetAdaptiveTestRecommendations(ctx context.Context, userID string) ([]models.TestRecommendation, error) {
	progress, err := s.GetUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	var recs []models.TestRecommendation
	for _, trackID := range models.Tracks() {
		track := progress.Track(trackID)
		if track.AverageScore < 75 && len(track.SkillsInProgress) > 0 {
			recs = append(recs, models.TestRecommendation{
				ID:       uuid.NewString(),
				Track:    trackID,
				Type:     "remediation",
				Reason:   fmt.Sprintf("average score %.1f is below 75 with %d skills still in progress", track.AverageScore, len(track.SkillsInProgress)),
				SkillIDs: append([]string{}, track.SkillsInProgress...),
				Priority: int(75 - track.AverageScore),
			})
		}
	}
	if len(recs) == 0 {
		recs = append(recs, models.TestRecommendation{
			ID:       uuid.NewString(),
			Track:    models.TrackExam,
			Type:     "comprehensive",
			Reason:   "no track needs targeted remediation; a comprehensive assessment keeps the proficiency estimate fresh",
			Priority: 1,
		})
	}
	return recs, nil
}

// LinkJourney attaches an external journey to the progress document. Linking the
// same journey twice is a no-op.
func (s *ProgressService) LinkJourney(ctx context.Context, userID, journeyID, title string) error {
	progress, isNew, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	for _, link := range progress.LinkedJourneys {
		if link.JourneyID == journeyID {
			return nil
		}
	}
	progress.LinkedJourneys = append(progress.LinkedJourneys, models.JourneyLink{
		JourneyID: journeyID,
		Title:     title,
		LinkedAt:  s.now(),
	})

	if err := s.persist(ctx, progress, isNew); err != nil {
		return fmt.Errorf("failed to link journey: %w", err)
	}
	return nil
}

// UpdateJourneyProgress syncs an external journey's contribution.
func (s *ProgressService) UpdateJourneyProgress(ctx context.Context, userID, journeyID string, percentage float64, milestone string) error {
	progress, isNew, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	if progress.JourneyProgress == nil {
		progress.JourneyProgress = make(map[string]models.JourneyContribution)
	}
	progress.JourneyProgress[journeyID] = models.JourneyContribution{
		JourneyID:   journeyID,
		Percentage:  percentage,
		Milestone:   milestone,
		LastUpdated: s.now(),
	}

	if err := s.persist(ctx, progress, isNew); err != nil {
		return fmt.Errorf("failed to update journey progress: %w", err)
	}
	return nil
}

// runningMean recomputes a weighted mean from the previous mean and the
// post-increment count; raw history is never consulted.
func runningMean(oldMean, value float64, n int) float64 {
	if n <= 1 {
		return value
	}
	return (oldMean*float64(n-1) + value) / float64(n)
}

func blend(oldValue, newValue, weight float64) float64 {
	return oldValue*(1-weight) + newValue*weight
}

// updateProficiency assigns the coarse tier and, separately, the
// advancement-readiness flag. The two use different thresholds on purpose:
// readiness never bumps the tier by itself.
func updateProficiency(track *models.TrackProgress) {
	switch {
	case track.MissionsCompleted >= 50 && track.AverageScore >= 90:
		track.ProficiencyLevel = models.ProficiencyExpert
	case track.MissionsCompleted >= 25 && track.AverageScore >= 80:
		track.ProficiencyLevel = models.ProficiencyAdvanced
	case track.MissionsCompleted >= 10 && track.AverageScore >= 70:
		track.ProficiencyLevel = models.ProficiencyIntermediate
	default:
		track.ProficiencyLevel = models.ProficiencyBeginner
	}

	track.DifficultyProgression.ReadyForAdvancement =
		track.AverageScore >= 85 && track.MissionsCompleted >= 5

	switch track.ProficiencyLevel {
	case models.ProficiencyBeginner:
		track.DifficultyProgression.Recommended = "easy"
	case models.ProficiencyIntermediate:
		track.DifficultyProgression.Recommended = "medium"
	default:
		track.DifficultyProgression.Recommended = "hard"
	}
}

// updateSkillMastery keeps the two skill sets mutually exclusive: at or above 80
// the skill is mastered, in (40,80) it is in progress, at or below 40 it is left
// where it was.
func updateSkillMastery(track *models.TrackProgress, skillID string, score float64) {
	switch {
	case score >= masteredSkillThreshold:
		track.MasteredSkills = addToSet(track.MasteredSkills, skillID)
		track.SkillsInProgress = removeFromSet(track.SkillsInProgress, skillID)
	case score > inProgressSkillThreshold:
		track.SkillsInProgress = addToSet(track.SkillsInProgress, skillID)
		track.MasteredSkills = removeFromSet(track.MasteredSkills, skillID)
	}
}

func addToSet(set []string, value string) []string {
	for _, v := range set {
		if v == value {
			return set
		}
	}
	return append(set, value)
}

func removeFromSet(set []string, value string) []string {
	for i, v := range set {
		if v == value {
			return append(set[:i], set[i+1:]...)
		}
	}
	return set
}

// owningTrack finds the track already tracking the subject in either skill set;
// unknown subjects belong to the exam track.
func owningTrack(progress *models.UnifiedProgress, subjectID string) models.Track {
	for _, trackID := range models.Tracks() {
		track := progress.Track(trackID)
		for _, skill := range track.MasteredSkills {
			if skill == subjectID {
				return trackID
			}
		}
		for _, skill := range track.SkillsInProgress {
			if skill == subjectID {
				return trackID
			}
		}
	}
	return models.TrackExam
}

// updateStreak applies day-granular streak rules: same-day activity keeps the
// streak, the next day extends it, any gap resets it to 1.
func updateStreak(progress *models.UnifiedProgress, when time.Time) {
	overall := &progress.OverallProgress
	today := dateOnly(when)

	if progress.LastActivityAt == nil || overall.CurrentStreak == 0 {
		overall.CurrentStreak = 1
	} else {
		last := dateOnly(*progress.LastActivityAt)
		switch days := int(today.Sub(last).Hours() / 24); {
		case days == 0:
			// second activity today, streak unchanged
		case days == 1:
			overall.CurrentStreak++
		default:
			overall.CurrentStreak = 1
		}
	}
	if overall.CurrentStreak > overall.LongestStreak {
		overall.LongestStreak = overall.CurrentStreak
	}
}

// consistencyRating blends streak-based and volume-based consistency, each
// capped at 1 before weighting.
func consistencyRating(streak, totalMissions int) float64 {
	streakPart := float64(streak) / 30
	if streakPart > 1 {
		streakPart = 1
	}
	volumePart := float64(totalMissions) / 100
	if volumePart > 1 {
		volumePart = 1
	}
	return streakPart*0.6 + volumePart*0.4
}

func updatePeriodSummary(summaries *[]models.PeriodSummary, period string, results *models.MissionResults) {
	for i := range *summaries {
		if (*summaries)[i].Period == period {
			entry := &(*summaries)[i]
			entry.MissionsCompleted++
			entry.AverageScore = runningMean(entry.AverageScore, results.Percentage, entry.MissionsCompleted)
			entry.MinutesInvested += results.DurationMinutes
			return
		}
	}
	*summaries = append(*summaries, models.PeriodSummary{
		Period:            period,
		MissionsCompleted: 1,
		MinutesInvested:   results.DurationMinutes,
		AverageScore:      results.Percentage,
	})
	if len(*summaries) > periodSummaryWindow {
		*summaries = (*summaries)[len(*summaries)-periodSummaryWindow:]
	}
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
