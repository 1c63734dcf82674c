package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"goodfit-api/internal/matching"
	"goodfit-api/internal/models"
	"goodfit-api/internal/storage"
	"goodfit-api/internal/utils"

	"github.com/sirupsen/logrus"
)

const recentMatchWindow = 7 * 24 * time.Hour

type SwipeResult struct {
	Swipe        *models.Swipe `json:"swipe"`
	MatchCreated bool          `json:"match_created"`
	Match        *models.Match `json:"match,omitempty"`
}

// MatchView is a match as seen by one of its participants.
type MatchView struct {
	ID          uint         `json:"id"`
	OtherUser   *models.User `json:"other_user"`
	OtherUserID uint         `json:"other_user_id"`
	IsActive    bool         `json:"is_active"`
	MatchedAt   time.Time    `json:"matched_at"`
}

func newMatchView(m *models.Match, viewerID uint) MatchView {
	other := m.User1
	if m.User1ID == viewerID {
		other = m.User2
	}
	return MatchView{
		ID:          m.ID,
		OtherUser:   other,
		OtherUserID: m.OtherUserID(viewerID),
		IsActive:    m.IsActive,
		MatchedAt:   m.MatchedAt,
	}
}

type MatchService struct {
	profiles storage.ProfileRepository
	matches  storage.MatchRepository
	cache    Cache
	notifier *Notifier
	clock    utils.Clock
	cacheTTL time.Duration
	photos   *PhotoSigner
}

// NewMatchService wires the swipe and match flow. cache, notifier and photos
// may be nil.
func NewMatchService(profiles storage.ProfileRepository, matches storage.MatchRepository, cache Cache, notifier *Notifier, clock utils.Clock, cacheTTL time.Duration, photos *PhotoSigner) *MatchService {
	return &MatchService{
		profiles: profiles,
		matches:  matches,
		cache:    cache,
		notifier: notifier,
		clock:    clock,
		cacheTTL: cacheTTL,
		photos:   photos,
	}
}

// Discover returns ranked candidates for userID. The caller must have a profile.
func (s *MatchService) Discover(ctx context.Context, userID uint) ([]matching.Candidate, error) {
	requester, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProfileRequired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	// The repository already drops swiped users; Discover re-checks the
	// remaining filters and does the distance cut and ranking.
	pool, err := s.profiles.ListDiscoverable(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	candidates := matching.Discover(requester, pool, nil)
	for i := range candidates {
		s.photos.Sign(ctx, &candidates[i].Profile)
	}
	return candidates, nil
}

// RecordSwipe stores a swipe and, when it completes a mutual like, the match
// for the pair. Only one match is ever created per pair.
func (s *MatchService) RecordSwipe(ctx context.Context, fromUserID, toUserID uint, action string) (*SwipeResult, error) {
	if fromUserID == toUserID {
		return nil, ErrSelfSwipe
	}
	if !models.IsSwipeAction(action) {
		return nil, invalidf("unknown swipe action %q", action)
	}

	target, err := s.profiles.GetProfile(ctx, toUserID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !target.IsActive) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load target profile: %w", err)
	}

	result := &SwipeResult{}
	err = s.matches.MatchTx(ctx, func(tx storage.MatchTx) error {
		if err := tx.LockPair(fromUserID, toUserID); err != nil {
			return err
		}

		swipe := &models.Swipe{
			FromUserID: fromUserID,
			ToUserID:   toUserID,
			Action:     action,
			CreatedAt:  s.clock.Now(),
		}
		if err := tx.CreateSwipe(swipe); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return ErrAlreadySwiped
			}
			return err
		}
		result.Swipe = swipe

		if !models.IsLikeAction(action) {
			return nil
		}
		mutual, err := tx.HasLiked(toUserID, fromUserID)
		if err != nil || !mutual {
			return err
		}

		user1, user2 := models.OrderedPair(fromUserID, toUserID)
		match := &models.Match{
			User1ID:   user1,
			User2ID:   user2,
			IsActive:  true,
			MatchedAt: s.clock.Now(),
		}
		created, err := tx.CreateMatch(match)
		if err != nil {
			return err
		}
		result.Match = match
		result.MatchCreated = created
		if created {
			if _, err := tx.OpenConversation(match.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrAlreadySwiped) {
		return nil, ErrAlreadySwiped
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record swipe: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"from_user_id":  fromUserID,
		"to_user_id":    toUserID,
		"action":        action,
		"match_created": result.MatchCreated,
	}).Info("swipe recorded")

	if result.MatchCreated {
		s.announceMatch(ctx, result.Match)
	}
	return result, nil
}

// Unmatch deactivates a match on behalf of one participant. The row is kept
// and the pair cannot match again.
func (s *MatchService) Unmatch(ctx context.Context, matchID, byUserID uint) (*models.Match, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if !match.Involves(byUserID) {
		return nil, ErrNotParticipant
	}
	if !match.IsActive {
		return match, nil
	}

	now := s.clock.Now()
	match.IsActive = false
	match.UnmatchedBy = &byUserID
	match.UnmatchedAt = &now
	if err := s.matches.DeactivateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to unmatch: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, matchCacheKey(match.ID)); err != nil {
			logrus.WithError(err).WithField("match_id", match.ID).Warn("failed to evict cached match")
		}
	}
	return match, nil
}

// MyLikes lists the likes and super likes userID has sent.
func (s *MatchService) MyLikes(ctx context.Context, userID uint) ([]models.Swipe, error) {
	return s.matches.ListSwipes(ctx, storage.SwipeQuery{
		FromUserID: userID,
		Actions:    []string{models.SwipeLike, models.SwipeSuperLike},
	})
}

// LikesReceived lists the likes and super likes sent to userID.
func (s *MatchService) LikesReceived(ctx context.Context, userID uint) ([]models.Swipe, error) {
	return s.matches.ListSwipes(ctx, storage.SwipeQuery{
		ToUserID: userID,
		Actions:  []string{models.SwipeLike, models.SwipeSuperLike},
	})
}

func (s *MatchService) ListMatches(ctx context.Context, userID uint) ([]MatchView, error) {
	return s.listMatches(ctx, userID, time.Time{})
}

// RecentMatches lists active matches from the last seven days.
func (s *MatchService) RecentMatches(ctx context.Context, userID uint) ([]MatchView, error) {
	return s.listMatches(ctx, userID, s.clock.Now().Add(-recentMatchWindow))
}

func (s *MatchService) listMatches(ctx context.Context, userID uint, since time.Time) ([]MatchView, error) {
	matches, err := s.matches.ListMatches(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	views := make([]MatchView, len(matches))
	for i := range matches {
		views[i] = newMatchView(&matches[i], userID)
	}
	return views, nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID, viewerID uint) (*MatchView, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if !match.Involves(viewerID) {
		return nil, ErrNotParticipant
	}
	view := newMatchView(match, viewerID)
	return &view, nil
}

func (s *MatchService) announceMatch(ctx context.Context, m *models.Match) {
	if s.cache != nil {
		err := s.cache.HSetWithTTL(ctx, matchCacheKey(m.ID), map[string]interface{}{
			"id":         m.ID,
			"user1_id":   m.User1ID,
			"user2_id":   m.User2ID,
			"matched_at": m.MatchedAt.Unix(),
		}, s.cacheTTL)
		if err != nil {
			logrus.WithError(err).WithField("match_id", m.ID).Warn("failed to cache match")
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, []uint{m.User1ID, m.User2ID}, Notice{
			Type:    "match",
			Title:   "New Match!",
			Body:    "You have a new match! Start chatting now.",
			Data:    map[string]string{"match_id": strconv.FormatUint(uint64(m.ID), 10)},
			Payload: m,
		})
	}
}

func matchCacheKey(id uint) string {
	return "match:" + strconv.FormatUint(uint64(id), 10)
}
