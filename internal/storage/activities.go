package storage

import (
	"context"

	"goodfit-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) GetActivity(ctx context.Context, userID, id uint) (*models.Activity, error) {
	var activity models.Activity
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&activity).Error
	if err != nil {
		return nil, translate(err)
	}
	return &activity, nil
}

func (s *Store) ListActivities(ctx context.Context, query ActivityQuery) ([]models.Activity, error) {
	tx := s.db.WithContext(ctx).Where("user_id = ?", query.UserID)
	if query.Type != "" {
		tx = tx.Where("type = ?", query.Type)
	}
	if query.From != nil {
		tx = tx.Where("start_time >= ?", *query.From)
	}
	if query.To != nil {
		tx = tx.Where("start_time <= ?", *query.To)
	}
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	if query.Offset > 0 {
		tx = tx.Offset(query.Offset)
	}

	var activities []models.Activity
	err := tx.Order("start_time DESC").Find(&activities).Error
	return activities, err
}

func (s *Store) UpdateActivity(ctx context.Context, activity *models.Activity) error {
	return s.db.WithContext(ctx).Save(activity).Error
}

func (s *Store) GetUserStats(ctx context.Context, userID uint) (*models.UserStats, error) {
	var stats models.UserStats
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, translate(err)
	}
	return &stats, nil
}

func (s *Store) ActivityTx(ctx context.Context, fn func(tx ActivityTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
}

func (s *Store) CreateLiveActivity(ctx context.Context, session *models.LiveActivity) error {
	return translate(s.db.WithContext(ctx).Create(session).Error)
}

func (s *Store) GetLiveActivity(ctx context.Context, userID, id uint) (*models.LiveActivity, error) {
	var session models.LiveActivity
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (s *Store) FindOpenLiveActivity(ctx context.Context, userID uint) (*models.LiveActivity, error) {
	var session models.LiveActivity
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, models.LiveStatusStopped).
		Order("start_time DESC").
		First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (s *Store) ListLiveActivities(ctx context.Context, userID uint) ([]models.LiveActivity, error) {
	var sessions []models.LiveActivity
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Find(&sessions).Error
	return sessions, err
}

func (s *Store) UpdateLiveActivity(ctx context.Context, session *models.LiveActivity) error {
	return updateLiveActivity(s.db.WithContext(ctx), session)
}

func (t *txStore) UpdateLiveActivity(session *models.LiveActivity) error {
	return updateLiveActivity(t.db, session)
}

func updateLiveActivity(db *gorm.DB, session *models.LiveActivity) error {
	expected := session.Version
	session.Version++

	res := db.Model(session).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(session)
	if res.Error != nil {
		session.Version = expected
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		session.Version = expected
		return ErrStaleVersion
	}
	return nil
}

func (t *txStore) CreateActivity(activity *models.Activity) error {
	return t.db.Create(activity).Error
}

func (t *txStore) DeleteActivity(activity *models.Activity) error {
	res := t.db.Where("user_id = ?", activity.UserID).Delete(&models.Activity{}, activity.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txStore) LockUserStats(userID uint) (*models.UserStats, error) {
	seed := models.UserStats{UserID: userID}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&seed).Error
	if err != nil {
		return nil, err
	}

	var stats models.UserStats
	err = t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&stats).Error
	if err != nil {
		return nil, translate(err)
	}
	return &stats, nil
}

func (t *txStore) SaveUserStats(stats *models.UserStats) error {
	return t.db.Save(stats).Error
}
