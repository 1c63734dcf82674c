package handlers

import (
	"context"
	"net/http"
	"time"

	"goodfit-api/internal/models"
	"goodfit-api/internal/services"

	"github.com/gin-gonic/gin"
)

type activityService interface {
	Create(ctx context.Context, userID uint, in services.ActivityInput) (*models.Activity, error)
	Get(ctx context.Context, userID, id uint) (*models.Activity, error)
	List(ctx context.Context, userID uint, filter services.ActivityFilter) ([]models.Activity, error)
	Recent(ctx context.Context, userID uint) ([]models.Activity, error)
	Update(ctx context.Context, userID, id uint, in services.ActivityInput) (*models.Activity, error)
	Delete(ctx context.Context, userID, id uint) error
	Stats(ctx context.Context, userID uint, days int) (*models.ActivityStats, error)
	UserStats(ctx context.Context, userID uint) (*models.UserStats, error)
}

type ActivityHandler struct {
	activities activityService
}

type ActivityRequest struct {
	Type           string            `json:"type" binding:"required,activity_type"`
	Title          string            `json:"title" binding:"required,max=200"`
	Notes          string            `json:"notes"`
	StartTime      time.Time         `json:"start_time" binding:"required"`
	EndTime        *time.Time        `json:"end_time"`
	Duration       int               `json:"duration" binding:"min=0"`
	Distance       *float64          `json:"distance" binding:"omitempty,min=0"`
	CaloriesBurned *int              `json:"calories_burned" binding:"omitempty,min=0"`
	AverageSpeed   *float64          `json:"average_speed" binding:"omitempty,min=0"`
	Pace           *float64          `json:"pace" binding:"omitempty,min=0"`
	ElevationGain  *float64          `json:"elevation_gain"`
	HeartRateAvg   *int              `json:"heart_rate_avg" binding:"omitempty,min=0"`
	HeartRateMax   *int              `json:"heart_rate_max" binding:"omitempty,min=0"`
	StartLatitude  *float64          `json:"start_latitude" binding:"omitempty,latitude"`
	StartLongitude *float64          `json:"start_longitude" binding:"omitempty,longitude"`
	StartAddress   string            `json:"start_address"`
	Route          []models.GPSPoint `json:"route"`
}

func (r *ActivityRequest) toInput() services.ActivityInput {
	return services.ActivityInput{
		Type:           r.Type,
		Title:          r.Title,
		Notes:          r.Notes,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Duration:       r.Duration,
		Distance:       r.Distance,
		CaloriesBurned: r.CaloriesBurned,
		AverageSpeed:   r.AverageSpeed,
		Pace:           r.Pace,
		ElevationGain:  r.ElevationGain,
		HeartRateAvg:   r.HeartRateAvg,
		HeartRateMax:   r.HeartRateMax,
		StartLatitude:  r.StartLatitude,
		StartLongitude: r.StartLongitude,
		StartAddress:   r.StartAddress,
		Route:          r.Route,
	}
}

type ActivityListQuery struct {
	Type      string     `form:"type" binding:"omitempty,activity_type"`
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
	Limit     int        `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset    int        `form:"offset" binding:"omitempty,min=0"`
}

func NewActivityHandler(activities activityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

func (h *ActivityHandler) Create(c *gin.Context) {
	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	activity, err := h.activities.Create(c.Request.Context(), currentUserID(c), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"activity": activity})
}

func (h *ActivityHandler) List(c *gin.Context) {
	var query ActivityListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if query.Limit == 0 {
		query.Limit = 20
	}

	activities, err := h.activities.List(c.Request.Context(), currentUserID(c), services.ActivityFilter{
		Type:      query.Type,
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (h *ActivityHandler) Recent(c *gin.Context) {
	activities, err := h.activities.Recent(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (h *ActivityHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	activity, err := h.activities.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

func (h *ActivityHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	activity, err := h.activities.Update(c.Request.Context(), currentUserID(c), id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.activities.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Activity deleted successfully"})
}

// Stats aggregates the last ?days=N days (30 by default).
func (h *ActivityHandler) Stats(c *gin.Context) {
	stats, err := h.activities.Stats(c.Request.Context(), currentUserID(c), intQuery(c, "days", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *ActivityHandler) LifetimeStats(c *gin.Context) {
	stats, err := h.activities.UserStats(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
