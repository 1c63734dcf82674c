package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"goodfit-api/internal/services"
	"goodfit-api/internal/tracking"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, tracking.ErrNotActive):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAlreadySwiped),
		errors.Is(err, services.ErrSessionInProgress),
		errors.Is(err, services.ErrConcurrentUpdate),
		errors.Is(err, services.ErrConversationClosed),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, tracking.ErrAlreadyStopped):
		return http.StatusConflict
	case errors.Is(err, services.ErrProfileRequired):
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// currentUserID returns the id AuthRequired put on the context.
func currentUserID(c *gin.Context) uint {
	userID, _ := c.Get("user_id")
	id, _ := userID.(uint)
	return id
}

// idParam parses a positive numeric path parameter, writing a 400 when it is not one.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func intQuery(c *gin.Context, name string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return defaultValue
	}
	return value
}
