package storage

import (
	"context"
	"time"

	"goodfit-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) ListSwipes(ctx context.Context, query SwipeQuery) ([]models.Swipe, error) {
	tx := s.db.WithContext(ctx).Model(&models.Swipe{})
	if query.FromUserID != 0 {
		tx = tx.Where("from_user_id = ?", query.FromUserID).Preload("ToUser")
	}
	if query.ToUserID != 0 {
		tx = tx.Where("to_user_id = ?", query.ToUserID).Preload("FromUser")
	}
	if len(query.Actions) > 0 {
		tx = tx.Where("action IN ?", query.Actions)
	}

	var swipes []models.Swipe
	err := tx.Order("created_at DESC").Find(&swipes).Error
	return swipes, err
}

func (s *Store) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	if err := s.db.WithContext(ctx).Preload("User1").Preload("User2").First(&match, id).Error; err != nil {
		return nil, translate(err)
	}
	return &match, nil
}

func (s *Store) ListMatches(ctx context.Context, userID uint, since time.Time) ([]models.Match, error) {
	tx := s.db.WithContext(ctx).
		Preload("User1").Preload("User2").
		Where("(user1_id = ? OR user2_id = ?) AND is_active = ?", userID, userID, true)
	if !since.IsZero() {
		tx = tx.Where("matched_at >= ?", since)
	}

	var matches []models.Match
	err := tx.Order("matched_at DESC").Find(&matches).Error
	return matches, err
}

func (s *Store) DeactivateMatch(ctx context.Context, m *models.Match) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Match{}).
			Where("id = ?", m.ID).
			Updates(map[string]interface{}{
				"is_active":    false,
				"unmatched_by": m.UnmatchedBy,
				"unmatched_at": m.UnmatchedAt,
			}).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("match_id = ?", m.ID).
			Update("is_active", false).Error
	})
}

func (s *Store) MatchTx(ctx context.Context, fn func(tx MatchTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
}

// LockPair takes a transaction scoped advisory lock keyed on the ordered pair.
func (t *txStore) LockPair(a, b uint) error {
	lo, hi := models.OrderedPair(a, b)
	key := int64(lo)<<32 | int64(hi)
	return t.db.Exec("SELECT pg_advisory_xact_lock(?)", key).Error
}

func (t *txStore) CreateSwipe(swipe *models.Swipe) error {
	return translate(t.db.Omit(clause.Associations).Create(swipe).Error)
}

func (t *txStore) HasLiked(fromUserID, toUserID uint) (bool, error) {
	var count int64
	err := t.db.Model(&models.Swipe{}).
		Where("from_user_id = ? AND to_user_id = ? AND action IN ?",
			fromUserID, toUserID, []string{models.SwipeLike, models.SwipeSuperLike}).
		Count(&count).Error
	return count > 0, err
}

func (t *txStore) CreateMatch(m *models.Match) (bool, error) {
	res := t.db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
		DoNothing: true,
	}).Create(m)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	err := t.db.Where("user1_id = ? AND user2_id = ?", m.User1ID, m.User2ID).First(m).Error
	return false, translate(err)
}

func (t *txStore) OpenConversation(matchID uint) (*models.Conversation, error) {
	conv := &models.Conversation{MatchID: matchID, IsActive: true}
	err := t.db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "match_id"}},
		DoNothing: true,
	}).Create(conv).Error
	if err != nil {
		return nil, err
	}
	if conv.ID == 0 {
		if err := t.db.Where("match_id = ?", matchID).First(conv).Error; err != nil {
			return nil, translate(err)
		}
	}
	return conv, nil
}
