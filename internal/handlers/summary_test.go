package handlers

import (
	"context"
	"net/http"
	"testing"

	"goodfit-api/internal/models"
	"goodfit-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSummaryService struct {
	mock.Mock
}

func (m *mockSummaryService) List(ctx context.Context, userID uint, days int) ([]models.DailySummary, error) {
	args := m.Called(ctx, userID, days)
	summaries, _ := args.Get(0).([]models.DailySummary)
	return summaries, args.Error(1)
}

func (m *mockSummaryService) Today(ctx context.Context, userID uint) (*models.DailySummary, error) {
	args := m.Called(ctx, userID)
	summary, _ := args.Get(0).(*models.DailySummary)
	return summary, args.Error(1)
}

func (m *mockSummaryService) Update(ctx context.Context, userID uint, in services.SummaryUpdate) (*models.DailySummary, error) {
	args := m.Called(ctx, userID, in)
	summary, _ := args.Get(0).(*models.DailySummary)
	return summary, args.Error(1)
}

func (m *mockSummaryService) Goals(ctx context.Context, userID uint) (*models.UserGoals, error) {
	args := m.Called(ctx, userID)
	goals, _ := args.Get(0).(*models.UserGoals)
	return goals, args.Error(1)
}

func (m *mockSummaryService) UpdateGoals(ctx context.Context, userID uint, in services.GoalsInput) (*models.UserGoals, error) {
	args := m.Called(ctx, userID, in)
	goals, _ := args.Get(0).(*models.UserGoals)
	return goals, args.Error(1)
}

func newSummaryRouter(svc *mockSummaryService) *gin.Engine {
	h := NewSummaryHandler(svc)
	router := gin.New()
	router.Use(asUser(1))
	router.GET("/activities/summaries", h.List)
	router.GET("/activities/summaries/today", h.Today)
	router.POST("/activities/summaries/update", h.Update)
	router.GET("/profiles/me/goals", h.GetGoals)
	router.PUT("/profiles/me/goals", h.UpdateGoals)
	return router
}

func TestSummaryList_PassesDays(t *testing.T) {
	svc := &mockSummaryService{}
	router := newSummaryRouter(svc)
	svc.On("List", mock.Anything, uint(1), 7).Return([]models.DailySummary{{ID: 4, TotalSteps: 900}}, nil).Once()
	svc.On("List", mock.Anything, uint(1), 0).Return([]models.DailySummary{}, nil).Once()

	w := doJSON(router, http.MethodGet, "/activities/summaries?days=7", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	summaries, ok := decode(t, w)["summaries"].([]interface{})
	require.True(t, ok)
	assert.Len(t, summaries, 1)

	w = doJSON(router, http.MethodGet, "/activities/summaries", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}

func TestSummaryUpdate(t *testing.T) {
	svc := &mockSummaryService{}
	router := newSummaryRouter(svc)
	svc.On("Update", mock.Anything, uint(1), mock.MatchedBy(func(in services.SummaryUpdate) bool {
		return in.TotalSteps != nil && *in.TotalSteps == 8000 && in.TotalCalories == nil
	})).Return(&models.DailySummary{ID: 2, TotalSteps: 8000, StepGoalProgress: 80}, nil).Once()

	w := doJSON(router, http.MethodPost, "/activities/summaries/update", gin.H{"total_steps": 8000})
	assert.Equal(t, http.StatusOK, w.Code)
	summary, ok := decode(t, w)["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 80.0, summary["step_goal_progress"])

	w = doJSON(router, http.MethodPost, "/activities/summaries/update", gin.H{"total_steps": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestGoals(t *testing.T) {
	svc := &mockSummaryService{}
	router := newSummaryRouter(svc)
	svc.On("Goals", mock.Anything, uint(1)).Return(models.NewUserGoals(1), nil).Once()
	svc.On("UpdateGoals", mock.Anything, uint(1), mock.MatchedBy(func(in services.GoalsInput) bool {
		return in.WeeklyWorkoutGoal != nil && *in.WeeklyWorkoutGoal == 4 && in.DailyStepGoal == nil
	})).Return(&models.UserGoals{UserID: 1, WeeklyWorkoutGoal: 4}, nil).Once()

	w := doJSON(router, http.MethodGet, "/profiles/me/goals", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	goals, ok := decode(t, w)["goals"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 10000.0, goals["daily_step_goal"])

	w = doJSON(router, http.MethodPut, "/profiles/me/goals", gin.H{"weekly_workout_goal": 4})
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}
