package storage

import (
	"context"
	"time"

	"goodfit-api/internal/models"

	"gorm.io/gorm"
)

func (s *Store) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.db.WithContext(ctx).Preload("Match").First(&conv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

func (s *Store) ListConversations(ctx context.Context, userID uint) ([]ConversationSummary, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Joins("JOIN matches ON matches.id = conversations.match_id").
		Where("conversations.is_active = ? AND (matches.user1_id = ? OR matches.user2_id = ?)", true, userID, userID).
		Preload("Match.User1").Preload("Match.User2").
		Order("conversations.last_message_at DESC NULLS LAST").
		Order("conversations.created_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return []ConversationSummary{}, nil
	}

	ids := make([]uint, len(convs))
	for i, conv := range convs {
		ids[i] = conv.ID
	}

	var rows []struct {
		ConversationID uint
		Unread         int64
	}
	err = s.db.WithContext(ctx).Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS unread").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", ids, userID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	unread := make(map[uint]int64, len(rows))
	for _, row := range rows {
		unread[row.ConversationID] = row.Unread
	}

	summaries := make([]ConversationSummary, len(convs))
	for i, conv := range convs {
		summaries[i] = ConversationSummary{Conversation: conv, UnreadCount: unread[conv.ID]}
	}
	return summaries, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]interface{}{
				"last_message_text": msg.Text,
				"last_message_at":   msg.CreatedAt,
			}).Error
	})
}

func (s *Store) MarkRead(ctx context.Context, conversationID, readerID uint, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	return res.RowsAffected, res.Error
}
