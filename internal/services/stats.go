package services

import (
	"time"

	"goodfit-api/internal/models"
)

// applyActivity adds a logged activity to the lifetime totals and advances
// the daily streak for the day it was logged.
func applyActivity(stats *models.UserStats, a *models.Activity, now time.Time) {
	stats.TotalWorkouts++
	stats.TotalMinutes += a.Duration
	if a.CaloriesBurned != nil {
		stats.TotalCalories += *a.CaloriesBurned
	}
	if a.Distance != nil {
		stats.TotalDistance += *a.Distance
	}

	today := truncateDay(now)
	if stats.LastActivityDate == nil {
		stats.CurrentStreak = 1
	} else {
		switch days := int(today.Sub(truncateDay(*stats.LastActivityDate)).Hours() / 24); {
		case days == 1:
			stats.CurrentStreak++
		case days > 1:
			stats.CurrentStreak = 1
		}
	}
	stats.LastActivityDate = &today

	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
}

// removeActivity subtracts a deleted activity from the totals. Totals never
// go below zero and streaks are left alone.
func removeActivity(stats *models.UserStats, a *models.Activity) {
	stats.TotalWorkouts = max(0, stats.TotalWorkouts-1)
	stats.TotalMinutes = max(0, stats.TotalMinutes-a.Duration)
	if a.CaloriesBurned != nil {
		stats.TotalCalories = max(0, stats.TotalCalories-*a.CaloriesBurned)
	}
	if a.Distance != nil {
		stats.TotalDistance -= *a.Distance
		if stats.TotalDistance < 0 {
			stats.TotalDistance = 0
		}
	}
}

// summarize aggregates activities for the stats endpoint.
func summarize(activities []models.Activity) *models.ActivityStats {
	stats := &models.ActivityStats{ActivitiesByType: map[string]int64{}}
	for _, a := range activities {
		stats.TotalActivities++
		stats.TotalDuration += int64(a.Duration)
		if a.Distance != nil {
			stats.TotalDistance += *a.Distance
		}
		if a.CaloriesBurned != nil {
			stats.TotalCalories += int64(*a.CaloriesBurned)
		}
		if a.Duration > stats.LongestActivity {
			stats.LongestActivity = a.Duration
		}
		stats.ActivitiesByType[a.Type]++
	}
	if stats.TotalActivities > 0 {
		stats.AverageDuration = float64(stats.TotalDuration) / float64(stats.TotalActivities)
	}
	return stats
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
