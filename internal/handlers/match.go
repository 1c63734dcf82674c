package handlers

import (
	"context"
	"net/http"

	"goodfit-api/internal/matching"
	"goodfit-api/internal/models"
	"goodfit-api/internal/services"

	"github.com/gin-gonic/gin"
)

type matchService interface {
	Discover(ctx context.Context, userID uint) ([]matching.Candidate, error)
	RecordSwipe(ctx context.Context, fromUserID, toUserID uint, action string) (*services.SwipeResult, error)
	Unmatch(ctx context.Context, matchID, byUserID uint) (*models.Match, error)
	MyLikes(ctx context.Context, userID uint) ([]models.Swipe, error)
	LikesReceived(ctx context.Context, userID uint) ([]models.Swipe, error)
	ListMatches(ctx context.Context, userID uint) ([]services.MatchView, error)
	RecentMatches(ctx context.Context, userID uint) ([]services.MatchView, error)
	GetMatch(ctx context.Context, matchID, viewerID uint) (*services.MatchView, error)
}

type MatchHandler struct {
	matches matchService
}

type SwipeRequest struct {
	ToUserID uint   `json:"to_user_id" binding:"required"`
	Action   string `json:"action" binding:"required,swipe_action"`
}

func NewMatchHandler(matches matchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

func (h *MatchHandler) Discover(c *gin.Context) {
	candidates, err := h.matches.Discover(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates, "count": len(candidates)})
}

func (h *MatchHandler) Swipe(c *gin.Context) {
	var req SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.matches.RecordSwipe(c.Request.Context(), currentUserID(c), req.ToUserID, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Swipe recorded"
	if result.MatchCreated {
		message = "It's a match!"
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":       message,
		"swipe":         result.Swipe,
		"match_created": result.MatchCreated,
		"match":         result.Match,
	})
}

func (h *MatchHandler) MyLikes(c *gin.Context) {
	likes, err := h.matches.MyLikes(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *MatchHandler) LikesReceived(c *gin.Context) {
	likes, err := h.matches.LikesReceived(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *MatchHandler) GetMatches(c *gin.Context) {
	matches, err := h.matches.ListMatches(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *MatchHandler) RecentMatches(c *gin.Context) {
	matches, err := h.matches.RecentMatches(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *MatchHandler) GetMatch(c *gin.Context) {
	matchID, ok := idParam(c, "id")
	if !ok {
		return
	}

	match, err := h.matches.GetMatch(c.Request.Context(), matchID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": match})
}

func (h *MatchHandler) Unmatch(c *gin.Context) {
	matchID, ok := idParam(c, "id")
	if !ok {
		return
	}

	match, err := h.matches.Unmatch(c.Request.Context(), matchID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unmatched successfully", "match": match})
}
