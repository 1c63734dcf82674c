package models

import "time"

// DailySummary is one user's totals for a calendar day (UTC) and the
// progress of those totals toward the user's goals, in percent.
type DailySummary struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	UserID              uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_daily_user_date,priority:1"`
	Date                time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_daily_user_date,priority:2,sort:desc"`
	TotalSteps          int       `json:"total_steps" gorm:"default:0"`
	TotalDistance       float64   `json:"total_distance" gorm:"default:0"` // meters
	TotalCalories       int       `json:"total_calories" gorm:"default:0"`
	TotalActiveMinutes  int       `json:"total_active_minutes" gorm:"default:0"`
	TotalWorkouts       int       `json:"total_workouts" gorm:"default:0"`
	StepGoalProgress    float64   `json:"step_goal_progress" gorm:"default:0"`
	CalorieGoalProgress float64   `json:"calorie_goal_progress" gorm:"default:0"`
	WorkoutGoalProgress float64   `json:"workout_goal_progress" gorm:"default:0"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (DailySummary) TableName() string {
	return "daily_summaries"
}
