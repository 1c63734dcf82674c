package handlers

import (
	"context"
	"net/http"
	"time"

	"goodfit-api/internal/models"
	"goodfit-api/internal/services"
	"goodfit-api/internal/tracking"

	"github.com/gin-gonic/gin"
)

type liveActivityService interface {
	View(session *models.LiveActivity) *services.LiveActivityView
	Start(ctx context.Context, userID uint, activityType, title string) (*models.LiveActivity, error)
	Get(ctx context.Context, userID, id uint) (*models.LiveActivity, error)
	Snapshot(ctx context.Context, userID, id uint) (*services.LiveSnapshot, error)
	Active(ctx context.Context, userID uint) (*models.LiveActivity, error)
	List(ctx context.Context, userID uint) ([]models.LiveActivity, error)
	AddPoint(ctx context.Context, userID, id uint, point tracking.PointInput) (*models.LiveActivity, error)
	Pause(ctx context.Context, userID, id uint) (*models.LiveActivity, error)
	Resume(ctx context.Context, userID, id uint) (*models.LiveActivity, error)
	UpdateMetrics(ctx context.Context, userID, id uint, metrics tracking.Metrics) (*models.LiveActivity, error)
	Stop(ctx context.Context, userID, id uint) (*services.StopResult, error)
}

type LiveActivityHandler struct {
	live liveActivityService
}

type StartLiveRequest struct {
	Type  string `json:"type" binding:"required,activity_type"`
	Title string `json:"title" binding:"max=200"`
}

type AddPointRequest struct {
	Latitude  *float64   `json:"latitude" binding:"required,latitude"`
	Longitude *float64   `json:"longitude" binding:"required,longitude"`
	Altitude  *float64   `json:"altitude"`
	Speed     *float64   `json:"speed" binding:"omitempty,min=0"`
	Accuracy  *float64   `json:"accuracy" binding:"omitempty,min=0"`
	Timestamp *time.Time `json:"timestamp"`
}

type UpdateMetricsRequest struct {
	Calories *int     `json:"calories" binding:"omitempty,min=0"`
	Pace     *float64 `json:"pace" binding:"omitempty,min=0"`
	Speed    *float64 `json:"speed" binding:"omitempty,min=0"`
}

func NewLiveActivityHandler(live liveActivityService) *LiveActivityHandler {
	return &LiveActivityHandler{live: live}
}

func (h *LiveActivityHandler) Start(c *gin.Context) {
	var req StartLiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.live.Start(c.Request.Context(), currentUserID(c), req.Type, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"live_activity": h.live.View(session)})
}

func (h *LiveActivityHandler) List(c *gin.Context) {
	sessions, err := h.live.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]*services.LiveActivityView, len(sessions))
	for i := range sessions {
		views[i] = h.live.View(&sessions[i])
	}
	c.JSON(http.StatusOK, gin.H{"live_activities": views})
}

func (h *LiveActivityHandler) Active(c *gin.Context) {
	session, err := h.live.Active(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true, "live_activity": h.live.View(session)})
}

func (h *LiveActivityHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	session, err := h.live.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"live_activity": h.live.View(session)})
}

// Snapshot serves the cached progress of a session for frequent polling.
func (h *LiveActivityHandler) Snapshot(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	snapshot, err := h.live.Snapshot(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

func (h *LiveActivityHandler) AddPoint(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AddPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.live.AddPoint(c.Request.Context(), currentUserID(c), id, tracking.PointInput{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Altitude:  req.Altitude,
		Speed:     req.Speed,
		Accuracy:  req.Accuracy,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"live_activity": h.live.View(session)})
}

func (h *LiveActivityHandler) Pause(c *gin.Context) {
	h.transition(c, h.live.Pause)
}

func (h *LiveActivityHandler) Resume(c *gin.Context) {
	h.transition(c, h.live.Resume)
}

func (h *LiveActivityHandler) transition(c *gin.Context, fn func(ctx context.Context, userID, id uint) (*models.LiveActivity, error)) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	session, err := fn(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"live_activity": h.live.View(session)})
}

func (h *LiveActivityHandler) UpdateMetrics(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.live.UpdateMetrics(c.Request.Context(), currentUserID(c), id, tracking.Metrics{
		Calories: req.Calories,
		Pace:     req.Pace,
		Speed:    req.Speed,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"live_activity": h.live.View(session)})
}

func (h *LiveActivityHandler) Stop(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.live.Stop(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Activity saved",
		"activity":      result.Activity,
		"live_activity": h.live.View(result.Session),
	})
}
