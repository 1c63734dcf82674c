// Package tracking implements the live activity state machine:
// active -> paused -> active ... -> stopped.
package tracking

import (
	"errors"
	"sort"
	"time"

	"goodfit-api/internal/geo"
	"goodfit-api/internal/models"
	"goodfit-api/internal/utils"
)

var (
	ErrNotActive      = errors.New("activity is not active")
	ErrAlreadyStopped = errors.New("activity already stopped")
)

// PointInput is a GPS sample as reported by a device. Timestamp is optional;
// when absent the tracker stamps the capture time.
type PointInput struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64
	Speed     *float64
	Accuracy  *float64
	Timestamp *time.Time
}

// Metrics carries device-computed values. Nil fields are left unchanged.
type Metrics struct {
	Calories *int
	Pace     *float64
	Speed    *float64
}

type Tracker struct {
	clock utils.Clock
}

func NewTracker(clock utils.Clock) *Tracker {
	return &Tracker{clock: clock}
}

// Start returns a new active session beginning now.
func (t *Tracker) Start(userID uint, activityType, title string) *models.LiveActivity {
	return &models.LiveActivity{
		UserID:      userID,
		Type:        activityType,
		Title:       title,
		Status:      models.LiveStatusActive,
		StartTime:   t.clock.Now(),
		RoutePoints: models.Route{},
	}
}

// AddPoint appends a GPS sample and updates the cumulative distance.
// In-order samples add a single segment; a sample older than the last one is
// inserted by timestamp and the whole route is measured again.
func (t *Tracker) AddPoint(s *models.LiveActivity, in PointInput) error {
	if s.Status != models.LiveStatusActive {
		return ErrNotActive
	}

	now := t.clock.Now()
	point := models.GPSPoint{
		Lat:       in.Latitude,
		Lng:       in.Longitude,
		Altitude:  in.Altitude,
		Speed:     in.Speed,
		Accuracy:  in.Accuracy,
		Timestamp: now,
	}
	if in.Timestamp != nil {
		point.Timestamp = in.Timestamp.UTC()
	}

	n := len(s.RoutePoints)
	if n > 0 && point.Timestamp.Before(s.RoutePoints[n-1].Timestamp) {
		idx := sort.Search(n, func(i int) bool {
			return s.RoutePoints[i].Timestamp.After(point.Timestamp)
		})
		s.RoutePoints = append(s.RoutePoints, models.GPSPoint{})
		copy(s.RoutePoints[idx+1:], s.RoutePoints[idx:])
		s.RoutePoints[idx] = point
		s.CurrentDistance = RouteDistance(s.RoutePoints)
	} else {
		if n > 0 {
			last := s.RoutePoints[n-1]
			s.CurrentDistance += geo.Meters(last.Lat, last.Lng, point.Lat, point.Lng)
		}
		s.RoutePoints = append(s.RoutePoints, point)
	}

	latest := s.RoutePoints[len(s.RoutePoints)-1]
	s.LastLatitude = &latest.Lat
	s.LastLongitude = &latest.Lng
	s.LastUpdate = &now
	return nil
}

// Pause moves an active session to paused. It reports whether the state changed.
func (t *Tracker) Pause(s *models.LiveActivity) bool {
	if s.Status != models.LiveStatusActive {
		return false
	}
	now := t.clock.Now()
	s.Status = models.LiveStatusPaused
	s.PausedAt = &now
	return true
}

// Resume moves a paused session back to active, adding the whole seconds spent
// paused to the running total. It reports whether the state changed.
func (t *Tracker) Resume(s *models.LiveActivity) bool {
	if s.Status != models.LiveStatusPaused || s.PausedAt == nil {
		return false
	}
	s.TotalPausedSeconds += pausedSeconds(*s.PausedAt, t.clock.Now())
	s.Status = models.LiveStatusActive
	s.PausedAt = nil
	return true
}

// Stop finalizes the session and returns the Activity to persist. A paused
// session has its open pause interval counted before the duration is taken.
func (t *Tracker) Stop(s *models.LiveActivity) (*models.Activity, error) {
	switch s.Status {
	case models.LiveStatusActive, models.LiveStatusPaused:
	case models.LiveStatusStopped:
		return nil, ErrAlreadyStopped
	default:
		return nil, ErrNotActive
	}

	now := t.clock.Now()
	if s.Status == models.LiveStatusPaused && s.PausedAt != nil {
		s.TotalPausedSeconds += pausedSeconds(*s.PausedAt, now)
		s.PausedAt = nil
	}
	s.Status = models.LiveStatusStopped
	s.StoppedAt = &now

	activeSeconds := ActiveDurationSeconds(s, now)
	distance := s.CurrentDistance
	calories := s.CurrentCalories
	end := now

	activity := &models.Activity{
		UserID:         s.UserID,
		Type:           s.Type,
		Title:          s.Title,
		StartTime:      s.StartTime,
		EndTime:        &end,
		Duration:       activeSeconds / 60,
		Distance:       &distance,
		CaloriesBurned: &calories,
		AverageSpeed:   averageSpeed(s, activeSeconds),
		Pace:           s.CurrentPace,
		Route:          append(models.Route{}, s.RoutePoints...),
	}
	if len(s.RoutePoints) > 0 {
		first := s.RoutePoints[0]
		activity.StartLatitude = &first.Lat
		activity.StartLongitude = &first.Lng
	}
	return activity, nil
}

// UpdateMetrics records device-computed calories, pace and speed.
func (t *Tracker) UpdateMetrics(s *models.LiveActivity, m Metrics) error {
	if s.Status == models.LiveStatusStopped {
		return ErrAlreadyStopped
	}
	if m.Calories != nil {
		s.CurrentCalories = *m.Calories
	}
	if m.Pace != nil {
		s.CurrentPace = m.Pace
	}
	if m.Speed != nil {
		s.CurrentSpeed = m.Speed
	}
	return nil
}

// ActiveDurationSeconds is the elapsed session time excluding pauses, measured
// up to the stop time or now. An open pause is not counted as active.
func ActiveDurationSeconds(s *models.LiveActivity, now time.Time) int {
	end := now
	if s.StoppedAt != nil {
		end = *s.StoppedAt
	}
	if s.Status == models.LiveStatusPaused && s.PausedAt != nil {
		end = *s.PausedAt
	}
	active := int(end.Sub(s.StartTime).Seconds()) - s.TotalPausedSeconds
	if active < 0 {
		return 0
	}
	return active
}

// RouteDistance sums the haversine segments of points in meters.
func RouteDistance(points []models.GPSPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		total += geo.Meters(prev.Lat, prev.Lng, curr.Lat, curr.Lng)
	}
	return total
}

// averageSpeed prefers the device-reported speed and otherwise derives km/h
// from distance over active time.
func averageSpeed(s *models.LiveActivity, activeSeconds int) *float64 {
	if s.CurrentSpeed != nil {
		v := *s.CurrentSpeed
		return &v
	}
	if activeSeconds <= 0 || s.CurrentDistance <= 0 {
		return nil
	}
	kmh := (s.CurrentDistance / 1000) / (float64(activeSeconds) / 3600)
	return &kmh
}

func pausedSeconds(from, to time.Time) int {
	secs := int(to.Sub(from).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}
