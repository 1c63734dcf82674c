package services

import (
	"context"
	"fmt"
	"time"

	"goodfit-api/internal/models"
	"goodfit-api/internal/storage"
	"goodfit-api/internal/utils"

	"github.com/sirupsen/logrus"
)

const defaultSummaryDays = 30

// SummaryUpdate sets today's totals. Nil fields keep their stored value.
type SummaryUpdate struct {
	TotalSteps         *int
	TotalDistance      *float64
	TotalCalories      *int
	TotalActiveMinutes *int
	TotalWorkouts      *int
}

func (u *SummaryUpdate) validate() error {
	for name, v := range map[string]*int{
		"total_steps":          u.TotalSteps,
		"total_calories":       u.TotalCalories,
		"total_active_minutes": u.TotalActiveMinutes,
		"total_workouts":       u.TotalWorkouts,
	} {
		if v != nil && *v < 0 {
			return invalidf("%s must not be negative", name)
		}
	}
	if u.TotalDistance != nil && *u.TotalDistance < 0 {
		return invalidf("total_distance must not be negative")
	}
	return nil
}

func (u *SummaryUpdate) applyTo(s *models.DailySummary) {
	if u.TotalSteps != nil {
		s.TotalSteps = *u.TotalSteps
	}
	if u.TotalDistance != nil {
		s.TotalDistance = *u.TotalDistance
	}
	if u.TotalCalories != nil {
		s.TotalCalories = *u.TotalCalories
	}
	if u.TotalActiveMinutes != nil {
		s.TotalActiveMinutes = *u.TotalActiveMinutes
	}
	if u.TotalWorkouts != nil {
		s.TotalWorkouts = *u.TotalWorkouts
	}
}

// GoalsInput changes the user's goals. Nil fields keep their stored value.
type GoalsInput struct {
	SelectedGoals     []string
	DailyStepGoal     *int
	WeeklyWorkoutGoal *int
	DailyCalorieGoal  *int
}

func (in *GoalsInput) validate() error {
	for name, v := range map[string]*int{
		"daily_step_goal":     in.DailyStepGoal,
		"weekly_workout_goal": in.WeeklyWorkoutGoal,
		"daily_calorie_goal":  in.DailyCalorieGoal,
	} {
		if v != nil && *v < 0 {
			return invalidf("%s must not be negative", name)
		}
	}
	return nil
}

type SummaryService struct {
	repo  storage.SummaryRepository
	clock utils.Clock
}

func NewSummaryService(repo storage.SummaryRepository, clock utils.Clock) *SummaryService {
	return &SummaryService{repo: repo, clock: clock}
}

// List returns the summaries of the last days days (30 by default) up to
// today, newest first.
func (s *SummaryService) List(ctx context.Context, userID uint, days int) ([]models.DailySummary, error) {
	if days <= 0 {
		days = defaultSummaryDays
	}
	today := truncateDay(s.clock.Now())
	summaries, err := s.repo.ListDailySummaries(ctx, userID, today.AddDate(0, 0, -days), today)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	return summaries, nil
}

// Today returns today's summary, creating it with fresh goal progress on the
// first call of the day.
func (s *SummaryService) Today(ctx context.Context, userID uint) (*models.DailySummary, error) {
	summary, created, err := s.repo.GetOrCreateDailySummary(ctx, userID, truncateDay(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to load daily summary: %w", err)
	}
	if !created {
		return summary, nil
	}
	if err := s.refresh(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// Update overwrites today's totals and recomputes goal progress.
func (s *SummaryService) Update(ctx context.Context, userID uint, in SummaryUpdate) (*models.DailySummary, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	summary, _, err := s.repo.GetOrCreateDailySummary(ctx, userID, truncateDay(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to load daily summary: %w", err)
	}
	in.applyTo(summary)
	if err := s.refresh(ctx, summary); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"date":    summary.Date.Format("2006-01-02"),
		"steps":   summary.TotalSteps,
	}).Debug("daily summary updated")
	return summary, nil
}

func (s *SummaryService) Goals(ctx context.Context, userID uint) (*models.UserGoals, error) {
	goals, err := s.repo.GetOrCreateGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}
	return goals, nil
}

// UpdateGoals saves the changed goals. Stored summaries pick them up the next
// time they are updated.
func (s *SummaryService) UpdateGoals(ctx context.Context, userID uint, in GoalsInput) (*models.UserGoals, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	goals, err := s.Goals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.SelectedGoals != nil {
		goals.SelectedGoals = in.SelectedGoals
	}
	if in.DailyStepGoal != nil {
		goals.DailyStepGoal = *in.DailyStepGoal
	}
	if in.WeeklyWorkoutGoal != nil {
		goals.WeeklyWorkoutGoal = *in.WeeklyWorkoutGoal
	}
	if in.DailyCalorieGoal != nil {
		goals.DailyCalorieGoal = *in.DailyCalorieGoal
	}
	if err := s.repo.SaveGoals(ctx, goals); err != nil {
		return nil, fmt.Errorf("failed to save goals: %w", err)
	}
	return goals, nil
}

// refresh recomputes the progress of summary against the user's goals and
// saves it. Workout progress counts every workout of the summary's week
// (Monday first) up to and including its day.
func (s *SummaryService) refresh(ctx context.Context, summary *models.DailySummary) error {
	goals, err := s.repo.GetOrCreateGoals(ctx, summary.UserID)
	if err != nil {
		return fmt.Errorf("failed to load goals: %w", err)
	}

	day := truncateDay(summary.Date)
	week, err := s.repo.ListDailySummaries(ctx, summary.UserID, weekStart(day), day)
	if err != nil {
		return fmt.Errorf("failed to list daily summaries: %w", err)
	}
	workouts := summary.TotalWorkouts
	for _, other := range week {
		if !truncateDay(other.Date).Equal(day) {
			workouts += other.TotalWorkouts
		}
	}

	calculateProgress(summary, goals, workouts)
	if err := s.repo.SaveDailySummary(ctx, summary); err != nil {
		return fmt.Errorf("failed to save daily summary: %w", err)
	}
	return nil
}

// calculateProgress sets the goal percentages of summary, each capped at 100.
// A goal of zero yields zero progress.
func calculateProgress(summary *models.DailySummary, goals *models.UserGoals, weekWorkouts int) {
	summary.StepGoalProgress = goalProgress(float64(summary.TotalSteps), goals.DailyStepGoal)
	summary.CalorieGoalProgress = goalProgress(float64(summary.TotalCalories), goals.DailyCalorieGoal)
	summary.WorkoutGoalProgress = goalProgress(float64(weekWorkouts), goals.WeeklyWorkoutGoal)
}

func goalProgress(value float64, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	return round2(min(100, value/float64(goal)*100))
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
