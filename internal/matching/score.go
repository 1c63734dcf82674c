// Package matching ranks candidate profiles for discovery.
package matching

import (
	"goodfit-api/internal/geo"
	"goodfit-api/internal/models"
)

const (
	sharedActivityWeight   = 10
	sharedGoalWeight       = 5
	sharedLookingForWeight = 5
	sameLevelBonus         = 5
	adjacentLevelBonus     = 3
)

var fitnessLevels = map[string]int{
	models.FitnessBeginner:     1,
	models.FitnessIntermediate: 2,
	models.FitnessAdvanced:     3,
	models.FitnessElite:        4,
}

// FitnessRank maps a fitness level to its ordinal. Unknown levels rank as beginner.
func FitnessRank(level string) int {
	if rank, ok := fitnessLevels[level]; ok {
		return rank
	}
	return 1
}

// IsFitnessLevel reports whether level is a known fitness level.
func IsFitnessLevel(level string) bool {
	_, ok := fitnessLevels[level]
	return ok
}

// Score returns the additive compatibility score between a and b.
func Score(a, b *models.Profile) int {
	score := 0

	score += sharedCount(a.FavoriteActivities, b.FavoriteActivities) * sharedActivityWeight
	score += sharedCount(a.FitnessGoals, b.FitnessGoals) * sharedGoalWeight
	score += sharedCount(a.LookingFor, b.LookingFor) * sharedLookingForWeight

	switch abs(FitnessRank(a.FitnessLevel) - FitnessRank(b.FitnessLevel)) {
	case 0:
		score += sameLevelBonus
	case 1:
		score += adjacentLevelBonus
	}

	if d, ok := DistanceMiles(a, b); ok {
		score += distanceBonus(d)
	}

	return score
}

// DistanceMiles returns the distance between two profiles when both have coordinates.
func DistanceMiles(a, b *models.Profile) (float64, bool) {
	if !a.HasLocation() || !b.HasLocation() {
		return 0, false
	}
	return geo.Miles(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude), true
}

func distanceBonus(miles float64) int {
	switch {
	case miles < 5:
		return 8
	case miles < 10:
		return 5
	case miles < 20:
		return 2
	}
	return 0
}

// sharedCount returns the size of the set intersection of a and b.
func sharedCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	n := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			n++
			delete(set, v)
		}
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
