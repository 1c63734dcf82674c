package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	FitnessBeginner     = "beginner"
	FitnessIntermediate = "intermediate"
	FitnessAdvanced     = "advanced"
	FitnessElite        = "elite"
)

const (
	GenderMale           = "male"
	GenderFemale         = "female"
	GenderNonBinary      = "non_binary"
	GenderPreferNotToSay = "prefer_not_to_say"
)

// Profile is the matching profile owned by a single user.
type Profile struct {
	ID                     uint           `json:"id" gorm:"primaryKey"`
	UserID                 uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	Age                    *int           `json:"age,omitempty"`
	Gender                 string         `json:"gender" gorm:"size:20"`
	LocationCity           string         `json:"location_city" gorm:"size:100"`
	LocationState          string         `json:"location_state" gorm:"size:100"`
	Latitude               *float64       `json:"latitude,omitempty"`
	Longitude              *float64       `json:"longitude,omitempty"`
	FitnessLevel           string         `json:"fitness_level" gorm:"size:20;default:beginner"`
	FavoriteActivities     pq.StringArray `json:"favorite_activities" gorm:"type:text[]"`
	FitnessGoals           pq.StringArray `json:"fitness_goals" gorm:"type:text[]"`
	LookingFor             pq.StringArray `json:"looking_for" gorm:"type:text[]"`
	PreferredAgeMin        int            `json:"preferred_age_min" gorm:"default:18"`
	PreferredAgeMax        int            `json:"preferred_age_max" gorm:"default:100"`
	PreferredDistanceMiles int            `json:"preferred_distance_miles" gorm:"default:25"`
	PreferredGenders       pq.StringArray `json:"preferred_genders" gorm:"type:text[]"`
	PromptQuestion         string         `json:"prompt_question" gorm:"size:200"`
	PhotoURL               string         `json:"photo_url,omitempty"`
	IsActive               bool           `json:"is_active" gorm:"default:true;index"`
	IsVerified             bool           `json:"is_verified" gorm:"default:false"`
	CreatedAt              time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt              time.Time      `json:"updated_at"`
	User                   *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Profile) TableName() string {
	return "user_profiles"
}

// HasLocation reports whether both coordinates are known.
func (p *Profile) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// NewProfile returns a profile carrying the column defaults.
func NewProfile(userID uint) *Profile {
	return &Profile{
		UserID:                 userID,
		FitnessLevel:           FitnessBeginner,
		PreferredAgeMin:        18,
		PreferredAgeMax:        100,
		PreferredDistanceMiles: 25,
		PromptQuestion:         "Ask me about my post-run snack routine",
		IsActive:               true,
	}
}
