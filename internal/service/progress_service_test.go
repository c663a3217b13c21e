package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"progress-service/internal/models"
)

type fakeProgressStore struct {
	docs       map[string]*models.UnifiedProgress
	replaceErr error
	creates    int
	replaces   int
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{docs: map[string]*models.UnifiedProgress{}}
}

func (f *fakeProgressStore) FindByUser(_ context.Context, userID string) (*models.UnifiedProgress, error) {
	return f.docs[userID], nil
}

func (f *fakeProgressStore) Create(_ context.Context, progress *models.UnifiedProgress) error {
	f.creates++
	f.docs[progress.UserID] = progress
	return nil
}

func (f *fakeProgressStore) Replace(_ context.Context, progress *models.UnifiedProgress) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaces++
	f.docs[progress.UserID] = progress
	return nil
}

func newTestService(store ProgressStore) *ProgressService {
	svc := NewProgressService(store, nil)
	svc.now = func() time.Time { return time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func missionOn(track models.Track) *models.Mission {
	return &models.Mission{ID: "m1", Track: track, SubjectID: "algebra", Title: "Algebra drill"}
}

func resultsAt(percentage float64, day time.Time) *models.MissionResults {
	return &models.MissionResults{Percentage: percentage, DurationMinutes: 30, CompletedAt: day}
}

func TestGetUserProgressCreatesZeroedDefaults(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)

	progress, err := svc.GetUserProgress(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.creates != 1 {
		t.Errorf("expected lazy default to be persisted once, creates=%d", store.creates)
	}
	if progress.OverallProgress.TotalMissionsCompleted != 0 || progress.OverallProgress.AverageScore != 0 {
		t.Errorf("expected zeroed overall progress, got %+v", progress.OverallProgress)
	}
	for _, track := range models.Tracks() {
		tp := progress.Track(track)
		if tp.ProficiencyLevel != models.ProficiencyBeginner {
			t.Errorf("track %s should start at beginner, got %s", track, tp.ProficiencyLevel)
		}
	}
}

func TestRunningMeanIdempotence(t *testing.T) {
	// The mean of N identical scores is that score, for any N.
	for _, n := range []int{1, 2, 5, 17} {
		store := newFakeProgressStore()
		svc := newTestService(store)

		day := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
		var progress *models.UnifiedProgress
		var err error
		for i := 0; i < n; i++ {
			progress, err = svc.UpdateProgressAfterMission(context.Background(), "u1", missionOn(models.TrackExam), resultsAt(84, day))
			if err != nil {
				t.Fatalf("n=%d iteration %d: %v", n, i, err)
			}
		}

		if math.Abs(progress.OverallProgress.AverageScore-84) > 1e-9 {
			t.Errorf("n=%d: overall average %f, want 84", n, progress.OverallProgress.AverageScore)
		}
		if math.Abs(progress.Track(models.TrackExam).AverageScore-84) > 1e-9 {
			t.Errorf("n=%d: track average %f, want 84", n, progress.Track(models.TrackExam).AverageScore)
		}
		if progress.OverallProgress.TotalMissionsCompleted != n {
			t.Errorf("n=%d: mission count %d", n, progress.OverallProgress.TotalMissionsCompleted)
		}
	}
}

func TestRunningMeanMixedScores(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)

	day := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	scores := []float64{100, 50, 75}
	var progress *models.UnifiedProgress
	var err error
	for _, score := range scores {
		progress, err = svc.UpdateProgressAfterMission(context.Background(), "u1", missionOn(models.TrackExam), resultsAt(score, day))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if math.Abs(progress.OverallProgress.AverageScore-75) > 1e-9 {
		t.Errorf("expected running mean 75, got %f", progress.OverallProgress.AverageScore)
	}
}

func TestProficiencyTierThresholds(t *testing.T) {
	testCases := []struct {
		name     string
		missions int
		average  float64
		want     models.ProficiencyLevel
	}{
		{"expert", 50, 95, models.ProficiencyExpert},
		{"expert boundary", 50, 90, models.ProficiencyExpert},
		{"advanced on score drop", 50, 85, models.ProficiencyAdvanced},
		{"advanced", 25, 80, models.ProficiencyAdvanced},
		{"intermediate", 10, 70, models.ProficiencyIntermediate},
		{"high score too few missions", 6, 95, models.ProficiencyBeginner},
		{"beginner", 3, 40, models.ProficiencyBeginner},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			track := &models.TrackProgress{MissionsCompleted: tc.missions, AverageScore: tc.average}
			updateProficiency(track)
			if track.ProficiencyLevel != tc.want {
				t.Errorf("missions=%d avg=%.0f: got %s, want %s", tc.missions, tc.average, track.ProficiencyLevel, tc.want)
			}
		})
	}
}

func TestAdvancementReadinessIsSeparateFromTier(t *testing.T) {
	// 6 missions at 86% is ready to advance difficulty but still a beginner tier:
	// the two checks use different thresholds and must not collapse into one.
	track := &models.TrackProgress{MissionsCompleted: 6, AverageScore: 86}
	updateProficiency(track)

	if !track.DifficultyProgression.ReadyForAdvancement {
		t.Error("expected readiness at >=85 average with >=5 missions")
	}
	if track.ProficiencyLevel != models.ProficiencyBeginner {
		t.Errorf("tier must not be bumped by readiness, got %s", track.ProficiencyLevel)
	}
}

func TestSkillSetExclusivity(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)
	ctx := context.Background()

	assertExclusive := func(label string) {
		progress := store.docs["u1"]
		for _, trackID := range models.Tracks() {
			track := progress.Track(trackID)
			for _, mastered := range track.MasteredSkills {
				for _, open := range track.SkillsInProgress {
					if mastered == open {
						t.Fatalf("%s: skill %q in both sets on track %s", label, mastered, trackID)
					}
				}
			}
		}
	}

	// ability 1.5 -> (1.5+2)*25 = 87.5 -> mastered
	if err := svc.UpdateSubjectProficiency(ctx, "u1", "algebra", 1.5, 0.9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertExclusive("after mastery")
	exam := store.docs["u1"].Track(models.TrackExam)
	if len(exam.MasteredSkills) != 1 || exam.MasteredSkills[0] != "algebra" {
		t.Fatalf("expected algebra mastered, got %v", exam.MasteredSkills)
	}

	// ability 0 -> 50 -> demoted to in-progress
	if err := svc.UpdateSubjectProficiency(ctx, "u1", "algebra", 0, 0.9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertExclusive("after demotion")
	exam = store.docs["u1"].Track(models.TrackExam)
	if len(exam.MasteredSkills) != 0 {
		t.Errorf("expected algebra demoted out of mastered, got %v", exam.MasteredSkills)
	}
	if len(exam.SkillsInProgress) != 1 || exam.SkillsInProgress[0] != "algebra" {
		t.Errorf("expected algebra in progress, got %v", exam.SkillsInProgress)
	}

	// ability -2 -> 0 -> below both thresholds, sets untouched
	if err := svc.UpdateSubjectProficiency(ctx, "u1", "algebra", -2, 0.9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertExclusive("after low estimate")
	exam = store.docs["u1"].Track(models.TrackExam)
	if len(exam.SkillsInProgress) != 1 {
		t.Errorf("a sub-40 score must not move the skill, got %v", exam.SkillsInProgress)
	}
}

func TestAbilityEstimateMapping(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)

	// ability +2 maps to 100; blended into a fresh track at 30% weight -> 30.
	if err := svc.UpdateSubjectProficiency(context.Background(), "u1", "geometry", 2, 0.8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := store.docs["u1"].Track(models.TrackExam).AverageScore
	if math.Abs(got-30) > 1e-9 {
		t.Errorf("expected track score 30 after blending 100 at 30%%, got %f", got)
	}
}

func TestAdaptiveTestBlendWeights(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)
	ctx := context.Background()

	// Seed averages at 50 through ordinary missions.
	day := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	if _, err := svc.UpdateProgressAfterMission(ctx, "u1", missionOn(models.TrackCourseTech), resultsAt(50, day)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.UpdateProgressFromAdaptiveTest(ctx, "u1",
		&models.TestPerformance{Accuracy: 100, QuestionsAttempted: 20, QuestionsCorrect: 20, DurationMinutes: 15},
		&models.TestMetadata{SessionID: "s1", Track: models.TrackCourseTech, TakenAt: day},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	progress := store.docs["u1"]
	trackAvg := progress.Track(models.TrackCourseTech).AverageScore
	if math.Abs(trackAvg-65) > 1e-9 { // 50*0.7 + 100*0.3
		t.Errorf("expected track average 65, got %f", trackAvg)
	}
	overallAvg := progress.OverallProgress.AverageScore
	if math.Abs(overallAvg-55) > 1e-9 { // 50*0.9 + 100*0.1
		t.Errorf("expected overall average 55, got %f", overallAvg)
	}
}

func TestStreakRules(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)
	ctx := context.Background()

	day1 := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	gap := day1.AddDate(0, 0, 10)

	steps := []struct {
		when        time.Time
		wantStreak  int
		wantLongest int
	}{
		{day1, 1, 1},
		{day1.Add(4 * time.Hour), 1, 1}, // second mission same day
		{day2, 2, 2},
		{gap, 1, 2}, // gap resets current but not longest
	}

	for i, step := range steps {
		progress, err := svc.UpdateProgressAfterMission(ctx, "u1", missionOn(models.TrackExam), resultsAt(80, step.when))
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if progress.OverallProgress.CurrentStreak != step.wantStreak {
			t.Errorf("step %d: streak %d, want %d", i, progress.OverallProgress.CurrentStreak, step.wantStreak)
		}
		if progress.OverallProgress.LongestStreak != step.wantLongest {
			t.Errorf("step %d: longest %d, want %d", i, progress.OverallProgress.LongestStreak, step.wantLongest)
		}
	}
}

func TestStreakGapResetAppliesOnAdaptiveTestPath(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)
	ctx := context.Background()

	// Five consecutive mission days build a streak of 5.
	day := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := svc.UpdateProgressAfterMission(ctx, "u1", missionOn(models.TrackExam), resultsAt(80, day.AddDate(0, 0, i))); err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
	}
	if got := store.docs["u1"].OverallProgress.CurrentStreak; got != 5 {
		t.Fatalf("expected streak 5 after five consecutive days, got %d", got)
	}

	// After a 10-day gap the first activity is an adaptive test. It must apply
	// the gap reset itself; otherwise a mission later the same day sees a
	// same-day timestamp and keeps the stale streak.
	afterGap := day.AddDate(0, 0, 14)
	err := svc.UpdateProgressFromAdaptiveTest(ctx, "u1",
		&models.TestPerformance{Accuracy: 90, QuestionsAttempted: 10, QuestionsCorrect: 9, DurationMinutes: 10},
		&models.TestMetadata{SessionID: "s1", Track: models.TrackExam, TakenAt: afterGap},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.docs["u1"].OverallProgress.CurrentStreak; got != 1 {
		t.Errorf("gap must reset streak to 1 on the adaptive-test path, got %d", got)
	}

	progress, err := svc.UpdateProgressAfterMission(ctx, "u1", missionOn(models.TrackExam), resultsAt(80, afterGap.Add(2*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if progress.OverallProgress.CurrentStreak != 1 {
		t.Errorf("same-day mission after the gap must see streak 1, got %d", progress.OverallProgress.CurrentStreak)
	}
	if progress.OverallProgress.LongestStreak != 5 {
		t.Errorf("longest streak must survive the reset, got %d", progress.OverallProgress.LongestStreak)
	}
	wantRating := consistencyRating(1, progress.OverallProgress.TotalMissionsCompleted)
	if math.Abs(progress.OverallProgress.ConsistencyRating-wantRating) > 1e-9 {
		t.Errorf("consistency rating computed from stale streak: got %f, want %f", progress.OverallProgress.ConsistencyRating, wantRating)
	}
}

func TestConsistencyRating(t *testing.T) {
	testCases := []struct {
		streak   int
		missions int
		want     float64
	}{
		{0, 0, 0},
		{30, 100, 1},
		{15, 50, 0.5},
		{60, 300, 1}, // both parts cap at 1 before weighting
		{30, 0, 0.6},
		{0, 100, 0.4},
	}
	for _, tc := range testCases {
		got := consistencyRating(tc.streak, tc.missions)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("consistencyRating(%d, %d) = %f, want %f", tc.streak, tc.missions, got, tc.want)
		}
	}
}

func TestPeriodSummariesRollUp(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)
	ctx := context.Background()

	monday := time.Date(2025, 7, 21, 9, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	nextMonth := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)

	for _, day := range []time.Time{monday, tuesday, nextMonth} {
		if _, err := svc.UpdateProgressAfterMission(ctx, "u1", missionOn(models.TrackExam), resultsAt(90, day)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	progress := store.docs["u1"]
	if len(progress.WeeklySummaries) != 2 {
		t.Fatalf("expected 2 weekly summaries, got %d", len(progress.WeeklySummaries))
	}
	firstWeek := progress.WeeklySummaries[0]
	if firstWeek.Period != "2025-W30" || firstWeek.MissionsCompleted != 2 || firstWeek.MinutesInvested != 60 {
		t.Errorf("unexpected first week summary: %+v", firstWeek)
	}
	if len(progress.MonthlySummaries) != 2 {
		t.Fatalf("expected 2 monthly summaries, got %d", len(progress.MonthlySummaries))
	}
	if progress.MonthlySummaries[0].Period != "2025-07" || progress.MonthlySummaries[1].Period != "2025-08" {
		t.Errorf("unexpected month keys: %+v", progress.MonthlySummaries)
	}
}

func TestRecommendationsFlagWeakTracks(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)
	ctx := context.Background()

	progress := models.NewUnifiedProgress("u1")
	exam := progress.Track(models.TrackExam)
	exam.AverageScore = 60
	exam.SkillsInProgress = []string{"algebra", "geometry"}
	store.docs["u1"] = progress

	recs, err := svc.GetAdaptiveTestRecommendations(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if recs[0].Type != "remediation" || recs[0].Track != models.TrackExam {
		t.Errorf("unexpected recommendation: %+v", recs[0])
	}
	if len(recs[0].SkillIDs) != 2 {
		t.Errorf("expected both open skills flagged, got %v", recs[0].SkillIDs)
	}
}

func TestRecommendationsFallBackToComprehensive(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)

	recs, err := svc.GetAdaptiveTestRecommendations(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Type != "comprehensive" {
		t.Fatalf("expected a single comprehensive fallback, got %+v", recs)
	}
}

func TestJourneyLinkAndSync(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestService(store)
	ctx := context.Background()

	if err := svc.LinkJourney(ctx, "u1", "j1", "Become an engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Linking twice is a no-op.
	if err := svc.LinkJourney(ctx, "u1", "j1", "Become an engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(store.docs["u1"].LinkedJourneys); got != 1 {
		t.Fatalf("expected 1 linked journey, got %d", got)
	}

	if err := svc.UpdateJourneyProgress(ctx, "u1", "j1", 42.5, "halfway"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	contribution, ok := store.docs["u1"].JourneyProgress["j1"]
	if !ok {
		t.Fatal("expected journey contribution entry")
	}
	if contribution.Percentage != 42.5 || contribution.Milestone != "halfway" {
		t.Errorf("unexpected contribution: %+v", contribution)
	}
}

func TestStoreFailureIsWrappedNotSwallowed(t *testing.T) {
	store := newFakeProgressStore()
	store.docs["u1"] = models.NewUnifiedProgress("u1")
	store.replaceErr = errors.New("write timed out")
	svc := newTestService(store)

	_, err := svc.UpdateProgressAfterMission(context.Background(), "u1", missionOn(models.TrackExam), resultsAt(80, time.Time{}))
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	if !strings.Contains(err.Error(), "failed to update progress") {
		t.Errorf("expected descriptive wrapping, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "write timed out") {
		t.Errorf("expected cause preserved, got %q", err.Error())
	}
}
