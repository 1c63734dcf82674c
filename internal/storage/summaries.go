package storage

import (
	"context"
	"time"

	"goodfit-api/internal/models"

	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

func (s *Store) GetOrCreateGoals(ctx context.Context, userID uint) (*models.UserGoals, error) {
	db := s.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(models.NewUserGoals(userID)).Error
	if err != nil {
		return nil, err
	}

	var goals models.UserGoals
	if err := db.Where("user_id = ?", userID).First(&goals).Error; err != nil {
		return nil, translate(err)
	}
	return &goals, nil
}

func (s *Store) SaveGoals(ctx context.Context, goals *models.UserGoals) error {
	return s.db.WithContext(ctx).Save(goals).Error
}

func (s *Store) GetOrCreateDailySummary(ctx context.Context, userID uint, day time.Time) (*models.DailySummary, bool, error) {
	db := s.db.WithContext(ctx)
	summary := &models.DailySummary{UserID: userID, Date: day}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(summary)
	if res.Error != nil {
		return nil, false, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return summary, true, nil
	}

	var existing models.DailySummary
	err := db.Where("user_id = ? AND date = ?", userID, day.Format(dateLayout)).First(&existing).Error
	if err != nil {
		return nil, false, translate(err)
	}
	return &existing, false, nil
}

func (s *Store) ListDailySummaries(ctx context.Context, userID uint, from, to time.Time) ([]models.DailySummary, error) {
	var summaries []models.DailySummary
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from.Format(dateLayout), to.Format(dateLayout)).
		Order("date DESC").
		Find(&summaries).Error
	return summaries, err
}

func (s *Store) SaveDailySummary(ctx context.Context, summary *models.DailySummary) error {
	return s.db.WithContext(ctx).Save(summary).Error
}
