package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goodfit-api/internal/models"
	"goodfit-api/internal/storage"
	"goodfit-api/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	recentActivityWindow = 30 * 24 * time.Hour
	recentActivityLimit  = 20
	defaultStatsDays     = 30
)

// ActivityInput carries the writable fields of a logged activity.
type ActivityInput struct {
	Type           string
	Title          string
	Notes          string
	StartTime      time.Time
	EndTime        *time.Time
	Duration       int
	Distance       *float64
	CaloriesBurned *int
	AverageSpeed   *float64
	Pace           *float64
	ElevationGain  *float64
	HeartRateAvg   *int
	HeartRateMax   *int
	StartLatitude  *float64
	StartLongitude *float64
	StartAddress   string
	Route          []models.GPSPoint
}

func (in *ActivityInput) validate() error {
	if !models.IsActivityType(in.Type) {
		return invalidf("unknown activity type %q", in.Type)
	}
	if in.Title == "" {
		return invalidf("title is required")
	}
	if in.StartTime.IsZero() {
		return invalidf("start_time is required")
	}
	if in.Duration < 0 {
		return invalidf("duration must not be negative")
	}
	if in.EndTime != nil && in.EndTime.Before(in.StartTime) {
		return invalidf("end_time must not be before start_time")
	}
	return nil
}

func (in *ActivityInput) applyTo(a *models.Activity) {
	a.Type = in.Type
	a.Title = in.Title
	a.Notes = in.Notes
	a.StartTime = in.StartTime
	a.EndTime = in.EndTime
	a.Duration = in.Duration
	a.Distance = in.Distance
	a.CaloriesBurned = in.CaloriesBurned
	a.AverageSpeed = in.AverageSpeed
	a.Pace = in.Pace
	a.ElevationGain = in.ElevationGain
	a.HeartRateAvg = in.HeartRateAvg
	a.HeartRateMax = in.HeartRateMax
	a.StartLatitude = in.StartLatitude
	a.StartLongitude = in.StartLongitude
	a.StartAddress = in.StartAddress
	a.Route = models.Route(in.Route)
}

// ActivityFilter narrows a listing. Empty fields match everything.
type ActivityFilter struct {
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type ActivityService struct {
	repo  storage.ActivityRepository
	clock utils.Clock
}

func NewActivityService(repo storage.ActivityRepository, clock utils.Clock) *ActivityService {
	return &ActivityService{repo: repo, clock: clock}
}

// Create logs a finished activity and folds it into the user's stats.
func (s *ActivityService) Create(ctx context.Context, userID uint, in ActivityInput) (*models.Activity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	activity := &models.Activity{UserID: userID}
	in.applyTo(activity)

	err := s.repo.ActivityTx(ctx, func(tx storage.ActivityTx) error {
		if err := tx.CreateActivity(activity); err != nil {
			return err
		}
		stats, err := tx.LockUserStats(userID)
		if err != nil {
			return err
		}
		applyActivity(stats, activity, s.clock.Now())
		return tx.SaveUserStats(stats)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"activity_id": activity.ID,
		"type":        activity.Type,
	}).Info("activity logged")
	return activity, nil
}

func (s *ActivityService) Get(ctx context.Context, userID, id uint) (*models.Activity, error) {
	activity, err := s.repo.GetActivity(ctx, userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	return activity, nil
}

func (s *ActivityService) List(ctx context.Context, userID uint, filter ActivityFilter) ([]models.Activity, error) {
	if filter.Type != "" && !models.IsActivityType(filter.Type) {
		return nil, invalidf("unknown activity type %q", filter.Type)
	}
	return s.repo.ListActivities(ctx, storage.ActivityQuery{
		UserID: userID,
		Type:   filter.Type,
		From:   filter.StartDate,
		To:     filter.EndDate,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Recent returns up to 20 activities started in the last 30 days.
func (s *ActivityService) Recent(ctx context.Context, userID uint) ([]models.Activity, error) {
	since := s.clock.Now().Add(-recentActivityWindow)
	return s.repo.ListActivities(ctx, storage.ActivityQuery{
		UserID: userID,
		From:   &since,
		Limit:  recentActivityLimit,
	})
}

// Update replaces the writable fields. Stats are not adjusted for edits.
func (s *ActivityService) Update(ctx context.Context, userID, id uint, in ActivityInput) (*models.Activity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	activity, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	in.applyTo(activity)
	if err := s.repo.UpdateActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	return activity, nil
}

// Delete removes the activity and subtracts it from the user's totals.
func (s *ActivityService) Delete(ctx context.Context, userID, id uint) error {
	activity, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	err = s.repo.ActivityTx(ctx, func(tx storage.ActivityTx) error {
		if err := tx.DeleteActivity(activity); err != nil {
			return err
		}
		stats, err := tx.LockUserStats(userID)
		if err != nil {
			return err
		}
		removeActivity(stats, activity)
		return tx.SaveUserStats(stats)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

// Stats aggregates activities started within the last days days.
func (s *ActivityService) Stats(ctx context.Context, userID uint, days int) (*models.ActivityStats, error) {
	if days <= 0 {
		days = defaultStatsDays
	}
	since := s.clock.Now().AddDate(0, 0, -days)
	activities, err := s.repo.ListActivities(ctx, storage.ActivityQuery{UserID: userID, From: &since})
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	return summarize(activities), nil
}

// UserStats returns lifetime totals, zeroed when nothing was logged yet.
func (s *ActivityService) UserStats(ctx context.Context, userID uint) (*models.UserStats, error) {
	stats, err := s.repo.GetUserStats(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.UserStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	return stats, nil
}
