package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"goodfit-api/internal/matching"
	"goodfit-api/internal/models"
	"goodfit-api/internal/storage"

	"github.com/sirupsen/logrus"
)

// ProfileInput is a full replacement of the editable profile fields.
type ProfileInput struct {
	Age                    *int
	Gender                 string
	LocationCity           string
	LocationState          string
	Latitude               *float64
	Longitude              *float64
	FitnessLevel           string
	FavoriteActivities     []string
	FitnessGoals           []string
	LookingFor             []string
	PreferredAgeMin        int
	PreferredAgeMax        int
	PreferredGenders       []string
	PreferredDistanceMiles int
	PromptQuestion         string
}

func (in *ProfileInput) validate() error {
	if in.Age != nil && (*in.Age < 18 || *in.Age > 100) {
		return invalidf("age must be between 18 and 100")
	}
	if in.Gender != "" && !isGender(in.Gender) {
		return invalidf("unknown gender %q", in.Gender)
	}
	for _, g := range in.PreferredGenders {
		if !isGender(g) {
			return invalidf("unknown preferred gender %q", g)
		}
	}
	if in.FitnessLevel != "" && !matching.IsFitnessLevel(in.FitnessLevel) {
		return invalidf("unknown fitness level %q", in.FitnessLevel)
	}
	if in.PreferredAgeMin < 18 || in.PreferredAgeMax > 100 || in.PreferredAgeMin > in.PreferredAgeMax {
		return invalidf("preferred age range must be within 18 and 100 with min not above max")
	}
	if in.PreferredDistanceMiles <= 0 {
		return invalidf("preferred distance must be positive")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return invalidf("latitude and longitude must be set together")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90 || *in.Longitude < -180 || *in.Longitude > 180) {
		return invalidf("coordinates out of range")
	}
	return nil
}

func isGender(g string) bool {
	switch g {
	case models.GenderMale, models.GenderFemale, models.GenderNonBinary, models.GenderPreferNotToSay:
		return true
	}
	return false
}

type ProfileService struct {
	repo    storage.ProfileRepository
	objects ObjectStore
	photos  *PhotoSigner
}

// NewProfileService builds the profile flow. objects may be nil, which
// disables photo uploads, and photos may be nil to return stored URLs.
func NewProfileService(repo storage.ProfileRepository, objects ObjectStore, photos *PhotoSigner) *ProfileService {
	return &ProfileService{repo: repo, objects: objects, photos: photos}
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.photos.Sign(ctx, profile)
	return profile, nil
}

func (s *ProfileService) load(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProfileRequired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// Save creates the user's profile or replaces its editable fields.
func (s *ProfileService) Save(ctx context.Context, userID uint, in ProfileInput) (*models.Profile, error) {
	if in.FitnessLevel == "" {
		in.FitnessLevel = models.FitnessBeginner
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		profile = models.NewProfile(userID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	profile.Age = in.Age
	profile.Gender = in.Gender
	profile.LocationCity = in.LocationCity
	profile.LocationState = in.LocationState
	profile.Latitude = in.Latitude
	profile.Longitude = in.Longitude
	profile.FitnessLevel = in.FitnessLevel
	profile.FavoriteActivities = in.FavoriteActivities
	profile.FitnessGoals = in.FitnessGoals
	profile.LookingFor = in.LookingFor
	profile.PreferredAgeMin = in.PreferredAgeMin
	profile.PreferredAgeMax = in.PreferredAgeMax
	profile.PreferredGenders = in.PreferredGenders
	profile.PreferredDistanceMiles = in.PreferredDistanceMiles
	if in.PromptQuestion != "" {
		profile.PromptQuestion = in.PromptQuestion
	}

	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	s.photos.Sign(ctx, profile)
	return profile, nil
}

// UploadPhoto stores a new profile photo and removes the previous one.
func (s *ProfileService) UploadPhoto(ctx context.Context, userID uint, filename string, body io.Reader, size int64, contentType string) (*models.Profile, error) {
	if s.objects == nil {
		return nil, invalidf("photo uploads are not configured")
	}
	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.objects.Upload(ctx, PhotoKey(userID, filename), body, size, contentType)
	if err != nil {
		return nil, err
	}
	previous := profile.PhotoURL
	profile.PhotoURL = url
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	if previous != "" {
		if err := s.objects.Delete(ctx, previous); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("failed to delete previous photo")
		}
	}
	s.photos.Sign(ctx, profile)
	return profile, nil
}
