package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"goodfit-api/internal/models"
	"goodfit-api/internal/storage"
	"goodfit-api/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	defaultMessagePage = 50
	maxMessagePage     = 200
	previewLength      = 100
)

// ConversationBroadcaster pushes a raw frame to everyone who joined a conversation.
type ConversationBroadcaster interface {
	BroadcastToConversation(conversationID uint, message []byte)
}

type ConversationView struct {
	ID              uint         `json:"id"`
	MatchID         uint         `json:"match_id"`
	OtherUser       *models.User `json:"other_user"`
	LastMessageText string       `json:"last_message_text"`
	LastMessageAt   *time.Time   `json:"last_message_at,omitempty"`
	UnreadCount     int64        `json:"unread_count"`
	CreatedAt       time.Time    `json:"created_at"`
}

type MessagingService struct {
	repo     storage.MessageRepository
	notifier *Notifier
	rooms    ConversationBroadcaster
	clock    utils.Clock
}

// NewMessagingService builds the messaging flow. notifier and rooms may be nil.
func NewMessagingService(repo storage.MessageRepository, notifier *Notifier, rooms ConversationBroadcaster, clock utils.Clock) *MessagingService {
	return &MessagingService{repo: repo, notifier: notifier, rooms: rooms, clock: clock}
}

func (s *MessagingService) Conversations(ctx context.Context, userID uint) ([]ConversationView, error) {
	summaries, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	views := make([]ConversationView, 0, len(summaries))
	for _, summary := range summaries {
		conv := summary.Conversation
		view := ConversationView{
			ID:              conv.ID,
			MatchID:         conv.MatchID,
			LastMessageText: conv.LastMessageText,
			LastMessageAt:   conv.LastMessageAt,
			UnreadCount:     summary.UnreadCount,
			CreatedAt:       conv.CreatedAt,
		}
		if conv.Match != nil {
			view.OtherUser = newMatchView(conv.Match, userID).OtherUser
		}
		views = append(views, view)
	}
	return views, nil
}

// Messages returns a page of the conversation, oldest first, and marks the
// caller's incoming messages as read.
func (s *MessagingService) Messages(ctx context.Context, userID, conversationID uint, limit, offset int) ([]models.Message, error) {
	if _, err := s.conversationFor(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessagePage
	}
	limit = min(limit, maxMessagePage)
	offset = max(offset, 0)

	messages, err := s.repo.ListMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if _, err := s.repo.MarkRead(ctx, conversationID, userID, s.clock.Now()); err != nil {
		logrus.WithError(err).WithField("conversation_id", conversationID).Warn("failed to mark messages read")
	}
	return messages, nil
}

func (s *MessagingService) Send(ctx context.Context, senderID, conversationID uint, text, messageType string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidf("message text is required")
	}
	switch messageType {
	case "":
		messageType = "text"
	case "text", "image", "emoji":
	default:
		return nil, invalidf("unknown message type %q", messageType)
	}

	conv, err := s.conversationFor(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsActive {
		return nil, ErrConversationClosed
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		MessageType:    messageType,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if s.rooms != nil {
		if frame, err := json.Marshal(map[string]interface{}{"type": "message", "message": msg}); err == nil {
			s.rooms.BroadcastToConversation(conversationID, frame)
		}
	}
	if s.notifier != nil {
		recipient := conv.Match.OtherUserID(senderID)
		s.notifier.Notify(ctx, []uint{recipient}, Notice{
			Type:  "message",
			Title: "New message",
			Body:  preview(text),
			Data: map[string]string{
				"conversation_id": strconv.FormatUint(uint64(conversationID), 10),
				"message_id":      strconv.FormatUint(uint64(msg.ID), 10),
			},
			Payload: msg,
		})
	}
	return msg, nil
}

func (s *MessagingService) MarkRead(ctx context.Context, userID, conversationID uint) (int64, error) {
	if _, err := s.conversationFor(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkRead(ctx, conversationID, userID, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return n, nil
}

// IsParticipant reports whether userID belongs to an active conversation.
func (s *MessagingService) IsParticipant(ctx context.Context, userID, conversationID uint) bool {
	conv, err := s.conversationFor(ctx, userID, conversationID)
	return err == nil && conv.IsActive
}

// conversationFor loads the conversation and checks userID is one of its two participants.
func (s *MessagingService) conversationFor(ctx context.Context, userID, conversationID uint) (*models.Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv.Match == nil || !conv.Match.Involves(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
