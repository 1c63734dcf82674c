package handlers

import (
	"context"
	"net/http"

	"goodfit-api/internal/models"
	"goodfit-api/internal/services"

	"github.com/gin-gonic/gin"
)

type summaryService interface {
	List(ctx context.Context, userID uint, days int) ([]models.DailySummary, error)
	Today(ctx context.Context, userID uint) (*models.DailySummary, error)
	Update(ctx context.Context, userID uint, in services.SummaryUpdate) (*models.DailySummary, error)
	Goals(ctx context.Context, userID uint) (*models.UserGoals, error)
	UpdateGoals(ctx context.Context, userID uint, in services.GoalsInput) (*models.UserGoals, error)
}

type SummaryHandler struct {
	summaries summaryService
}

type SummaryUpdateRequest struct {
	TotalSteps         *int     `json:"total_steps" binding:"omitempty,min=0"`
	TotalDistance      *float64 `json:"total_distance" binding:"omitempty,min=0"`
	TotalCalories      *int     `json:"total_calories" binding:"omitempty,min=0"`
	TotalActiveMinutes *int     `json:"total_active_minutes" binding:"omitempty,min=0"`
	TotalWorkouts      *int     `json:"total_workouts" binding:"omitempty,min=0"`
}

type GoalsRequest struct {
	SelectedGoals     []string `json:"selected_goals" binding:"omitempty,dive,min=1,max=50"`
	DailyStepGoal     *int     `json:"daily_step_goal" binding:"omitempty,min=0"`
	WeeklyWorkoutGoal *int     `json:"weekly_workout_goal" binding:"omitempty,min=0"`
	DailyCalorieGoal  *int     `json:"daily_calorie_goal" binding:"omitempty,min=0"`
}

func NewSummaryHandler(summaries summaryService) *SummaryHandler {
	return &SummaryHandler{summaries: summaries}
}

// List returns the summaries of the last ?days=N days (30 by default).
func (h *SummaryHandler) List(c *gin.Context) {
	summaries, err := h.summaries.List(c.Request.Context(), currentUserID(c), intQuery(c, "days", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

func (h *SummaryHandler) Today(c *gin.Context) {
	summary, err := h.summaries.Today(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *SummaryHandler) Update(c *gin.Context) {
	var req SummaryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.summaries.Update(c.Request.Context(), currentUserID(c), services.SummaryUpdate{
		TotalSteps:         req.TotalSteps,
		TotalDistance:      req.TotalDistance,
		TotalCalories:      req.TotalCalories,
		TotalActiveMinutes: req.TotalActiveMinutes,
		TotalWorkouts:      req.TotalWorkouts,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *SummaryHandler) GetGoals(c *gin.Context) {
	goals, err := h.summaries.Goals(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (h *SummaryHandler) UpdateGoals(c *gin.Context) {
	var req GoalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goals, err := h.summaries.UpdateGoals(c.Request.Context(), currentUserID(c), services.GoalsInput{
		SelectedGoals:     req.SelectedGoals,
		DailyStepGoal:     req.DailyStepGoal,
		WeeklyWorkoutGoal: req.WeeklyWorkoutGoal,
		DailyCalorieGoal:  req.DailyCalorieGoal,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}
