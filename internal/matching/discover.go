package matching

import (
	"sort"

	"goodfit-api/internal/models"
)

// MaxCandidates caps a discovery result.
const MaxCandidates = 50

// Unknown requester ages are compared with these values so they pass every
// candidate's age preference.
const (
	unknownAgeForMin = 100
	unknownAgeForMax = 18
)

type Candidate struct {
	Profile       models.Profile `json:"profile"`
	Score         int            `json:"compatibility_score"`
	DistanceMiles *float64       `json:"distance_miles,omitempty"`
}

// Discover filters pool for requester and ranks the survivors. swiped holds
// every user id the requester already swiped on. The pool is not modified.
func Discover(requester *models.Profile, pool []models.Profile, swiped map[uint]struct{}) []Candidate {
	eligible := make([]models.Profile, 0, len(pool))
	for _, candidate := range pool {
		if candidate.UserID == requester.UserID || !candidate.IsActive {
			continue
		}
		if _, ok := swiped[candidate.UserID]; ok {
			continue
		}
		if !Compatible(requester, &candidate) {
			continue
		}
		eligible = append(eligible, candidate)
	}

	if !requester.HasLocation() {
		return newest(eligible)
	}

	limit := float64(requester.PreferredDistanceMiles)
	scored := make([]Candidate, 0, len(eligible))
	for i := range eligible {
		candidate := &eligible[i]
		d, ok := DistanceMiles(requester, candidate)
		if !ok || d > limit {
			continue
		}
		distance := d
		scored = append(scored, Candidate{
			Profile:       *candidate,
			Score:         Score(requester, candidate),
			DistanceMiles: &distance,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > MaxCandidates {
		scored = scored[:MaxCandidates]
	}
	return scored
}

// Compatible applies the gender and mutual age hard filters.
func Compatible(requester, candidate *models.Profile) bool {
	if len(requester.PreferredGenders) > 0 && !contains(requester.PreferredGenders, candidate.Gender) {
		return false
	}

	if candidate.Age == nil {
		return false
	}
	if *candidate.Age < requester.PreferredAgeMin || *candidate.Age > requester.PreferredAgeMax {
		return false
	}

	forMin, forMax := PreferenceAges(requester)
	return candidate.PreferredAgeMin <= forMin && candidate.PreferredAgeMax >= forMax
}

// PreferenceAges returns the ages p is compared as against another profile's
// preferred minimum and maximum.
func PreferenceAges(p *models.Profile) (forMin, forMax int) {
	if p.Age != nil {
		return *p.Age, *p.Age
	}
	return unknownAgeForMin, unknownAgeForMax
}

func newest(profiles []models.Profile) []Candidate {
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
	})
	if len(profiles) > MaxCandidates {
		profiles = profiles[:MaxCandidates]
	}
	out := make([]Candidate, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, Candidate{Profile: p})
	}
	return out
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
