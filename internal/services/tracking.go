package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"goodfit-api/internal/models"
	"goodfit-api/internal/storage"
	"goodfit-api/internal/tracking"
	"goodfit-api/internal/utils"
	"goodfit-api/internal/websocket"

	"github.com/sirupsen/logrus"
)

// maxUpdateAttempts bounds the load, apply, save loop on version conflicts.
const maxUpdateAttempts = 3

const metersPerMile = 1609.34

// LiveActivityView adds the derived duration and distance figures to a session.
type LiveActivityView struct {
	*models.LiveActivity
	ActiveDuration int     `json:"active_duration"` // seconds
	DistanceKm     float64 `json:"distance_km"`
	DistanceMiles  float64 `json:"distance_miles"`
}

// LiveSnapshot is the progress record kept in redis for cheap polling.
type LiveSnapshot struct {
	ID       uint    `json:"id"`
	UserID   uint    `json:"user_id"`
	Status   string  `json:"status"`
	Distance float64 `json:"distance"` // meters
	Points   int     `json:"points"`
	Version  int     `json:"version"`
}

func newLiveSnapshot(session *models.LiveActivity) *LiveSnapshot {
	return &LiveSnapshot{
		ID:       session.ID,
		UserID:   session.UserID,
		Status:   session.Status,
		Distance: session.CurrentDistance,
		Points:   len(session.RoutePoints),
		Version:  session.Version,
	}
}

// parseLiveSnapshot reads a snapshot hash. It reports false for a missing or
// malformed hash.
func parseLiveSnapshot(id uint, fields map[string]string) (*LiveSnapshot, bool) {
	if len(fields) == 0 {
		return nil, false
	}
	userID, err1 := strconv.ParseUint(fields["user_id"], 10, 64)
	distance, err2 := strconv.ParseFloat(fields["distance"], 64)
	points, err3 := strconv.Atoi(fields["points"])
	version, err4 := strconv.Atoi(fields["version"])
	if err := errors.Join(err1, err2, err3, err4); err != nil || fields["status"] == "" {
		return nil, false
	}
	return &LiveSnapshot{
		ID:       id,
		UserID:   uint(userID),
		Status:   fields["status"],
		Distance: distance,
		Points:   points,
		Version:  version,
	}, true
}

func liveSnapshotKey(id uint) string {
	return "live:" + strconv.FormatUint(uint64(id), 10)
}

type StopResult struct {
	Session  *models.LiveActivity `json:"session"`
	Activity *models.Activity     `json:"activity"`
}

type LiveActivityService struct {
	repo        storage.LiveActivityRepository
	tracker     *tracking.Tracker
	clock       utils.Clock
	cache       Cache
	events      EventPublisher
	snapshotTTL time.Duration
}

// NewLiveActivityService builds the tracking service. cache and events may be nil.
func NewLiveActivityService(repo storage.LiveActivityRepository, clock utils.Clock, cache Cache, events EventPublisher, snapshotTTL time.Duration) *LiveActivityService {
	return &LiveActivityService{
		repo:        repo,
		tracker:     tracking.NewTracker(clock),
		clock:       clock,
		cache:       cache,
		events:      events,
		snapshotTTL: snapshotTTL,
	}
}

func (s *LiveActivityService) View(session *models.LiveActivity) *LiveActivityView {
	return &LiveActivityView{
		LiveActivity:   session,
		ActiveDuration: tracking.ActiveDurationSeconds(session, s.clock.Now()),
		DistanceKm:     round2(session.CurrentDistance / 1000),
		DistanceMiles:  round2(session.CurrentDistance / metersPerMile),
	}
}

// Start opens a new session. A user may only have one session that is not stopped.
func (s *LiveActivityService) Start(ctx context.Context, userID uint, activityType, title string) (*models.LiveActivity, error) {
	if !models.IsActivityType(activityType) {
		return nil, invalidf("unknown activity type %q", activityType)
	}
	if title == "" {
		title = activityType
	}

	_, err := s.repo.FindOpenLiveActivity(ctx, userID)
	if err == nil {
		return nil, ErrSessionInProgress
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check open sessions: %w", err)
	}

	session := s.tracker.Start(userID, activityType, title)
	if err := s.repo.CreateLiveActivity(ctx, session); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrSessionInProgress
		}
		return nil, fmt.Errorf("failed to start live activity: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":          userID,
		"live_activity_id": session.ID,
		"type":             activityType,
	}).Info("live activity started")
	s.publish(ctx, session)
	return session, nil
}

func (s *LiveActivityService) Get(ctx context.Context, userID, id uint) (*models.LiveActivity, error) {
	session, err := s.repo.GetLiveActivity(ctx, userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load live activity: %w", err)
	}
	return session, nil
}

// Active returns the user's open session, or nil when there is none.
func (s *LiveActivityService) Active(ctx context.Context, userID uint) (*models.LiveActivity, error) {
	session, err := s.repo.FindOpenLiveActivity(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active live activity: %w", err)
	}
	return session, nil
}

// Snapshot returns the session's progress from redis, falling back to the
// database when the snapshot has expired or belongs to someone else.
func (s *LiveActivityService) Snapshot(ctx context.Context, userID, id uint) (*LiveSnapshot, error) {
	if s.cache != nil {
		fields, err := s.cache.HGetAll(ctx, liveSnapshotKey(id))
		if err != nil {
			logrus.WithError(err).WithField("live_activity_id", id).Warn("failed to read live snapshot")
		} else if snapshot, ok := parseLiveSnapshot(id, fields); ok && snapshot.UserID == userID {
			return snapshot, nil
		}
	}

	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return newLiveSnapshot(session), nil
}

func (s *LiveActivityService) List(ctx context.Context, userID uint) ([]models.LiveActivity, error) {
	return s.repo.ListLiveActivities(ctx, userID)
}

func (s *LiveActivityService) AddPoint(ctx context.Context, userID, id uint, point tracking.PointInput) (*models.LiveActivity, error) {
	return s.update(ctx, userID, id, func(session *models.LiveActivity) error {
		return s.tracker.AddPoint(session, point)
	})
}

// Pause pauses an active session. Pausing in any other state leaves the
// session unchanged.
func (s *LiveActivityService) Pause(ctx context.Context, userID, id uint) (*models.LiveActivity, error) {
	return s.update(ctx, userID, id, func(session *models.LiveActivity) error {
		if !s.tracker.Pause(session) {
			return errUnchanged
		}
		return nil
	})
}

// Resume resumes a paused session. Resuming in any other state leaves the
// session unchanged.
func (s *LiveActivityService) Resume(ctx context.Context, userID, id uint) (*models.LiveActivity, error) {
	return s.update(ctx, userID, id, func(session *models.LiveActivity) error {
		if !s.tracker.Resume(session) {
			return errUnchanged
		}
		return nil
	})
}

func (s *LiveActivityService) UpdateMetrics(ctx context.Context, userID, id uint, metrics tracking.Metrics) (*models.LiveActivity, error) {
	return s.update(ctx, userID, id, func(session *models.LiveActivity) error {
		return s.tracker.UpdateMetrics(session, metrics)
	})
}

// Stop finalizes the session. The activity, the link back to it and the
// user's stats are written in one transaction.
func (s *LiveActivityService) Stop(ctx context.Context, userID, id uint) (*StopResult, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		session, err := s.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}

		activity, err := s.tracker.Stop(session)
		if err != nil {
			return nil, err
		}

		err = s.repo.ActivityTx(ctx, func(tx storage.ActivityTx) error {
			if err := tx.CreateActivity(activity); err != nil {
				return err
			}
			session.FinalActivityID = &activity.ID
			if err := tx.UpdateLiveActivity(session); err != nil {
				return err
			}
			stats, err := tx.LockUserStats(userID)
			if err != nil {
				return err
			}
			applyActivity(stats, activity, s.clock.Now())
			return tx.SaveUserStats(stats)
		})
		if errors.Is(err, storage.ErrStaleVersion) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stop live activity: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"user_id":          userID,
			"live_activity_id": session.ID,
			"activity_id":      activity.ID,
			"duration":         activity.Duration,
		}).Info("live activity stopped")
		s.publish(ctx, session)
		return &StopResult{Session: session, Activity: activity}, nil
	}
	return nil, ErrConcurrentUpdate
}

// errUnchanged marks a mutation that was a no-op and needs no save.
var errUnchanged = errors.New("unchanged")

// update runs apply against the latest stored session and saves the result
// with a version check, reloading and retrying on conflict.
func (s *LiveActivityService) update(ctx context.Context, userID, id uint, apply func(*models.LiveActivity) error) (*models.LiveActivity, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		session, err := s.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}

		if err := apply(session); err != nil {
			if errors.Is(err, errUnchanged) {
				return session, nil
			}
			return nil, err
		}

		err = s.repo.UpdateLiveActivity(ctx, session)
		if errors.Is(err, storage.ErrStaleVersion) {
			logrus.WithFields(logrus.Fields{
				"live_activity_id": id,
				"attempt":          attempt + 1,
			}).Debug("live activity version conflict")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save live activity: %w", err)
		}

		s.publish(ctx, session)
		return session, nil
	}
	return nil, ErrConcurrentUpdate
}

// publish writes the session snapshot to redis and pushes it to the owner's
// other connected devices.
func (s *LiveActivityService) publish(ctx context.Context, session *models.LiveActivity) {
	if s.cache != nil {
		err := s.cache.HSetWithTTL(ctx, liveSnapshotKey(session.ID), map[string]interface{}{
			"user_id":  session.UserID,
			"status":   session.Status,
			"distance": session.CurrentDistance,
			"points":   len(session.RoutePoints),
			"version":  session.Version,
		}, s.snapshotTTL)
		if err != nil {
			logrus.WithError(err).WithField("live_activity_id", session.ID).Warn("failed to write live snapshot")
		}
	}

	if s.events != nil {
		payload, err := json.Marshal(s.View(session))
		if err == nil {
			err = s.events.PublishEvent(ctx, websocket.Event{
				Type:    "live_update",
				UserIDs: []uint{session.UserID},
				Payload: payload,
			})
		}
		if err != nil {
			logrus.WithError(err).WithField("live_activity_id", session.ID).Warn("failed to publish live update")
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
