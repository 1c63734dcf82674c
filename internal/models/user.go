package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Email        string         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"not null"`
	DisplayName  string         `json:"display_name" gorm:"not null"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	LastSeen     *time.Time     `json:"last_seen,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserStats holds lifetime workout totals and the daily streak.
type UserStats struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	UserID           uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	CurrentStreak    int        `json:"current_streak" gorm:"default:0"`
	LongestStreak    int        `json:"longest_streak" gorm:"default:0"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty" gorm:"type:date"`
	TotalWorkouts    int        `json:"total_workouts" gorm:"default:0"`
	TotalMinutes     int        `json:"total_minutes" gorm:"default:0"`
	TotalCalories    int        `json:"total_calories" gorm:"default:0"`
	TotalDistance    float64    `json:"total_distance" gorm:"default:0"` // meters
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (UserStats) TableName() string {
	return "user_stats"
}

type DeviceToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_device_user_token"`
	Token     string    `json:"token" gorm:"not null;uniqueIndex:idx_device_user_token"`
	Platform  string    `json:"platform"` // ios, android, web
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Type      string    `json:"type" gorm:"not null"` // match, message
	Title     string    `json:"title" gorm:"not null"`
	Body      string    `json:"body" gorm:"not null"`
	Data      string    `json:"data" gorm:"type:jsonb"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// UserGoals holds the targets daily summaries are measured against.
type UserGoals struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	UserID            uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	SelectedGoals     pq.StringArray `json:"selected_goals" gorm:"type:text[]"`
	DailyStepGoal     int            `json:"daily_step_goal" gorm:"default:10000"`
	WeeklyWorkoutGoal int            `json:"weekly_workout_goal" gorm:"default:5"`
	DailyCalorieGoal  int            `json:"daily_calorie_goal" gorm:"default:500"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (UserGoals) TableName() string {
	return "user_goals"
}

// NewUserGoals returns goals carrying the column defaults.
func NewUserGoals(userID uint) *UserGoals {
	return &UserGoals{
		UserID:            userID,
		SelectedGoals:     pq.StringArray{},
		DailyStepGoal:     10000,
		WeeklyWorkoutGoal: 5,
		DailyCalorieGoal:  500,
	}
}
