package handlers

import (
	"context"
	"net/http"

	"goodfit-api/internal/models"
	"goodfit-api/internal/services"

	"github.com/gin-gonic/gin"
)

type messagingService interface {
	Conversations(ctx context.Context, userID uint) ([]services.ConversationView, error)
	Messages(ctx context.Context, userID, conversationID uint, limit, offset int) ([]models.Message, error)
	Send(ctx context.Context, senderID, conversationID uint, text, messageType string) (*models.Message, error)
	MarkRead(ctx context.Context, userID, conversationID uint) (int64, error)
}

type MessageHandler struct {
	messaging messagingService
}

type SendMessageRequest struct {
	Text        string `json:"text" binding:"required,max=2000"`
	MessageType string `json:"message_type" binding:"omitempty,oneof=text image emoji"`
}

func NewMessageHandler(messaging messagingService) *MessageHandler {
	return &MessageHandler{messaging: messaging}
}

func (h *MessageHandler) GetConversations(c *gin.Context) {
	conversations, err := h.messaging.Conversations(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	conversationID, ok := idParam(c, "id")
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 0)
	offset := intQuery(c, "offset", 0)

	messages, err := h.messaging.Messages(c.Request.Context(), currentUserID(c), conversationID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	conversationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messaging.Send(c.Request.Context(), currentUserID(c), conversationID, req.Text, req.MessageType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	conversationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	updated, err := h.messaging.MarkRead(c.Request.Context(), currentUserID(c), conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_read": updated})
}
