package storage

import (
	"context"
	"time"

	"goodfit-api/internal/matching"
	"goodfit-api/internal/models"

	"gorm.io/gorm/clause"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) TouchLastSeen(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_seen", at).Error
}

func (s *Store) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (s *Store) SaveProfile(ctx context.Context, profile *models.Profile) error {
	return translate(s.db.WithContext(ctx).Omit("User").Save(profile).Error)
}

func (s *Store) ListDiscoverable(ctx context.Context, requester *models.Profile) ([]models.Profile, error) {
	forMin, forMax := matching.PreferenceAges(requester)
	query := s.db.WithContext(ctx).
		Preload("User").
		Where("user_id <> ? AND is_active = ?", requester.UserID, true).
		Where("user_id NOT IN (?)", s.db.Model(&models.Swipe{}).
			Select("to_user_id").
			Where("from_user_id = ?", requester.UserID)).
		Where("age IS NOT NULL AND age BETWEEN ? AND ?", requester.PreferredAgeMin, requester.PreferredAgeMax).
		Where("preferred_age_min <= ? AND preferred_age_max >= ?", forMin, forMax)

	if len(requester.PreferredGenders) > 0 {
		query = query.Where("gender IN ?", []string(requester.PreferredGenders))
	}

	var profiles []models.Profile
	err := query.Find(&profiles).Error
	return profiles, err
}

func (s *Store) CreateNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&notifications).Error
}

// SaveDeviceToken inserts the token or refreshes the platform of an existing one.
func (s *Store) SaveDeviceToken(ctx context.Context, token *models.DeviceToken) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"platform", "updated_at"}),
	}).Create(token).Error
}

func (s *Store) DeviceTokens(ctx context.Context, userIDs []uint) ([]string, error) {
	var tokens []string
	if len(userIDs) == 0 {
		return tokens, nil
	}
	err := s.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("user_id IN ?", userIDs).
		Pluck("token", &tokens).Error
	return tokens, err
}

func (s *Store) DeleteDeviceTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("token IN ?", tokens).Delete(&models.DeviceToken{}).Error
}
