package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActivityRun      = "Run"
	ActivityCycle    = "Cycle"
	ActivityWalk     = "Walk"
	ActivitySwim     = "Swim"
	ActivityYoga     = "Yoga"
	ActivityStrength = "Strength"
)

// ActivityTypes lists the accepted activity types in display order.
var ActivityTypes = []string{
	ActivityRun, ActivityCycle, ActivityWalk, ActivitySwim, ActivityYoga, ActivityStrength,
}

func IsActivityType(t string) bool {
	for _, known := range ActivityTypes {
		if known == t {
			return true
		}
	}
	return false
}

const (
	LiveStatusActive  = "active"
	LiveStatusPaused  = "paused"
	LiveStatusStopped = "stopped"
)

// GPSPoint is a single captured location sample.
type GPSPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Route = datatypes.JSONSlice[GPSPoint]

type Activity struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UserID         uint       `json:"user_id" gorm:"not null;index:idx_activities_user_start,priority:1"`
	Type           string     `json:"type" gorm:"size:20;not null;index"`
	Title          string     `json:"title" gorm:"size:200;not null"`
	Notes          string     `json:"notes"`
	StartTime      time.Time  `json:"start_time" gorm:"not null;index:idx_activities_user_start,priority:2,sort:desc"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Duration       int        `json:"duration"`           // minutes
	Distance       *float64   `json:"distance,omitempty"` // meters
	CaloriesBurned *int       `json:"calories_burned,omitempty"`
	AverageSpeed   *float64   `json:"average_speed,omitempty"` // km/h
	Pace           *float64   `json:"pace,omitempty"`          // min/km
	ElevationGain  *float64   `json:"elevation_gain,omitempty"`
	HeartRateAvg   *int       `json:"heart_rate_avg,omitempty"`
	HeartRateMax   *int       `json:"heart_rate_max,omitempty"`
	StartLatitude  *float64   `json:"start_latitude,omitempty"`
	StartLongitude *float64   `json:"start_longitude,omitempty"`
	StartAddress   string     `json:"start_address"`
	Route          Route      `json:"route,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LiveActivity is a tracking session. A user has at most one session that is
// not stopped. Version is bumped on every save and checked to detect
// concurrent writers.
type LiveActivity struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	UserID             uint       `json:"user_id" gorm:"not null;index:idx_live_user_status,priority:1;uniqueIndex:idx_live_user_open,where:status <> 'stopped'"`
	Type               string     `json:"type" gorm:"size:20;not null"`
	Title              string     `json:"title" gorm:"size:200;not null"`
	Status             string     `json:"status" gorm:"size:20;default:active;index:idx_live_user_status,priority:2"`
	StartTime          time.Time  `json:"start_time" gorm:"not null;index"`
	PausedAt           *time.Time `json:"paused_at,omitempty"`
	StoppedAt          *time.Time `json:"stopped_at,omitempty"`
	TotalPausedSeconds int        `json:"total_paused_duration" gorm:"default:0"`
	CurrentDistance    float64    `json:"current_distance" gorm:"default:0"` // meters
	CurrentCalories    int        `json:"current_calories" gorm:"default:0"`
	CurrentPace        *float64   `json:"current_pace,omitempty"`
	CurrentSpeed       *float64   `json:"current_speed,omitempty"`
	RoutePoints        Route      `json:"route_points"`
	LastLatitude       *float64   `json:"last_latitude,omitempty"`
	LastLongitude      *float64   `json:"last_longitude,omitempty"`
	LastUpdate         *time.Time `json:"last_update,omitempty"`
	FinalActivityID    *uint      `json:"final_activity,omitempty" gorm:"uniqueIndex"`
	Version            int        `json:"-" gorm:"not null;default:0"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (LiveActivity) TableName() string {
	return "live_activities"
}

// ActivityStats is the aggregate returned for a time window.
type ActivityStats struct {
	TotalActivities  int64            `json:"total_activities"`
	TotalDistance    float64          `json:"total_distance"`
	TotalDuration    int64            `json:"total_duration"`
	TotalCalories    int64            `json:"total_calories"`
	AverageDuration  float64          `json:"average_duration"`
	LongestActivity  int              `json:"longest_activity"`
	ActivitiesByType map[string]int64 `json:"activities_by_type"`
}
