package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"goodfit-api/internal/matching"
	"goodfit-api/internal/models"
	"goodfit-api/internal/storage"
	"goodfit-api/internal/websocket"

	"github.com/stretchr/testify/mock"
)

// fakeStore is an in-memory stand-in for storage.Store. It enforces the same
// unique keys and version checks as the database and returns copies so that
// callers cannot mutate stored rows without saving them.
type fakeStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	nextID        uint
	now           func() time.Time
	users         map[uint]*models.User
	profiles      map[uint]*models.Profile
	swipes        []models.Swipe
	matches       map[uint]*models.Match
	conversations map[uint]*models.Conversation
	messages      []models.Message
	notifications []models.Notification
	devices       []models.DeviceToken
	activities    map[uint]*models.Activity
	stats         map[uint]*models.UserStats
	live          map[uint]*models.LiveActivity
	goals         map[uint]*models.UserGoals
	summaries     map[uint]*models.DailySummary

	// staleWrites makes the next n live activity updates fail the version check.
	staleWrites int
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{
		now:           now,
		users:         map[uint]*models.User{},
		profiles:      map[uint]*models.Profile{},
		matches:       map[uint]*models.Match{},
		conversations: map[uint]*models.Conversation{},
		activities:    map[uint]*models.Activity{},
		stats:         map[uint]*models.UserStats{},
		live:          map[uint]*models.LiveActivity{},
		goals:         map[uint]*models.UserGoals{},
		summaries:     map[uint]*models.DailySummary{},
	}
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func cloneMap[V any](m map[uint]*V) map[uint]*V {
	out := make(map[uint]*V, len(m))
	for k, v := range m {
		c := *v
		out[k] = &c
	}
	return out
}

func cloneLive(l *models.LiveActivity) *models.LiveActivity {
	c := *l
	c.RoutePoints = append(models.Route{}, l.RoutePoints...)
	return &c
}

type fakeSnapshot struct {
	swipes        []models.Swipe
	matches       map[uint]*models.Match
	conversations map[uint]*models.Conversation
	activities    map[uint]*models.Activity
	stats         map[uint]*models.UserStats
	live          map[uint]*models.LiveActivity
}

func (s *fakeStore) snapshot() fakeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := make(map[uint]*models.LiveActivity, len(s.live))
	for k, v := range s.live {
		live[k] = cloneLive(v)
	}
	return fakeSnapshot{
		swipes:        append([]models.Swipe(nil), s.swipes...),
		matches:       cloneMap(s.matches),
		conversations: cloneMap(s.conversations),
		activities:    cloneMap(s.activities),
		stats:         cloneMap(s.stats),
		live:          live,
	}
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swipes = snap.swipes
	s.matches = snap.matches
	s.conversations = snap.conversations
	s.activities = snap.activities
	s.stats = snap.stats
	s.live = snap.live
}

// users

func (s *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	user.ID = s.id()
	user.CreatedAt = s.now()
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) TouchLastSeen(_ context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastSeen = &at
	}
	return nil
}

// userCopy expects s.mu to be held.
func (s *fakeStore) userCopy(id uint) *models.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

// profiles

func (s *fakeStore) addProfile(p *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	if _, ok := s.users[p.UserID]; !ok {
		s.users[p.UserID] = &models.User{ID: p.UserID, IsActive: true}
	}
	c := *p
	s.profiles[p.UserID] = &c
}

func (s *fakeStore) GetProfile(_ context.Context, userID uint) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s *fakeStore) SaveProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID == 0 {
		profile.ID = s.id()
		profile.CreatedAt = s.now()
	}
	c := *profile
	s.profiles[profile.UserID] = &c
	return nil
}

// ListDiscoverable applies the same pre-filter as the SQL query.
func (s *fakeStore) ListDiscoverable(_ context.Context, requester *models.Profile) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swiped := map[uint]bool{}
	for _, sw := range s.swipes {
		if sw.FromUserID == requester.UserID {
			swiped[sw.ToUserID] = true
		}
	}
	var out []models.Profile
	for _, p := range s.profiles {
		if p.UserID == requester.UserID || !p.IsActive || swiped[p.UserID] {
			continue
		}
		if matching.Compatible(requester, p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// notifications

func (s *fakeStore) CreateNotifications(_ context.Context, notifications []models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range notifications {
		n.ID = s.id()
		s.notifications = append(s.notifications, n)
	}
	return nil
}

func (s *fakeStore) SaveDeviceToken(_ context.Context, token *models.DeviceToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.devices {
		if d.UserID == token.UserID && d.Token == token.Token {
			s.devices[i].Platform = token.Platform
			token.ID = d.ID
			return nil
		}
	}
	token.ID = s.id()
	s.devices = append(s.devices, *token)
	return nil
}

func (s *fakeStore) DeviceTokens(_ context.Context, userIDs []uint) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tokens []string
	for _, d := range s.devices {
		for _, id := range userIDs {
			if d.UserID == id {
				tokens = append(tokens, d.Token)
			}
		}
	}
	return tokens, nil
}

func (s *fakeStore) DeleteDeviceTokens(_ context.Context, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.devices[:0]
	for _, d := range s.devices {
		if !containsString(tokens, d.Token) {
			kept = append(kept, d)
		}
	}
	s.devices = kept
	return nil
}

func (s *fakeStore) notificationsFor(userID uint) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// swipes and matches

func (s *fakeStore) ListSwipes(_ context.Context, query storage.SwipeQuery) ([]models.Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Swipe
	for _, sw := range s.swipes {
		if query.FromUserID != 0 && sw.FromUserID != query.FromUserID {
			continue
		}
		if query.ToUserID != 0 && sw.ToUserID != query.ToUserID {
			continue
		}
		if len(query.Actions) > 0 && !containsString(query.Actions, sw.Action) {
			continue
		}
		out = append(out, sw)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) GetMatch(_ context.Context, id uint) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (s *fakeStore) ListMatches(_ context.Context, userID uint, since time.Time) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Match
	for _, m := range s.matches {
		if m.IsActive && m.Involves(userID) && !m.MatchedAt.Before(since) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchedAt.After(out[j].MatchedAt) })
	return out, nil
}

func (s *fakeStore) DeactivateMatch(_ context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.matches[m.ID]
	if !ok {
		return storage.ErrNotFound
	}
	stored.IsActive = false
	stored.UnmatchedBy = m.UnmatchedBy
	stored.UnmatchedAt = m.UnmatchedAt
	for _, conv := range s.conversations {
		if conv.MatchID == m.ID {
			conv.IsActive = false
		}
	}
	return nil
}

func (s *fakeStore) MatchTx(_ context.Context, fn func(tx storage.MatchTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(fakeTx{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *fakeStore) matchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

// fakeTx runs inside MatchTx or ActivityTx with txMu held.
type fakeTx struct {
	s *fakeStore
}

func (t fakeTx) LockPair(a, b uint) error { return nil }

func (t fakeTx) CreateSwipe(swipe *models.Swipe) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, sw := range t.s.swipes {
		if sw.FromUserID == swipe.FromUserID && sw.ToUserID == swipe.ToUserID {
			return storage.ErrDuplicate
		}
	}
	swipe.ID = t.s.id()
	t.s.swipes = append(t.s.swipes, *swipe)
	return nil
}

func (t fakeTx) HasLiked(fromUserID, toUserID uint) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, sw := range t.s.swipes {
		if sw.FromUserID == fromUserID && sw.ToUserID == toUserID && models.IsLikeAction(sw.Action) {
			return true, nil
		}
	}
	return false, nil
}

func (t fakeTx) CreateMatch(m *models.Match) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, existing := range t.s.matches {
		if existing.User1ID == m.User1ID && existing.User2ID == m.User2ID {
			*m = *existing
			return false, nil
		}
	}
	m.ID = t.s.id()
	c := *m
	t.s.matches[m.ID] = &c
	return true, nil
}

func (t fakeTx) OpenConversation(matchID uint) (*models.Conversation, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, conv := range t.s.conversations {
		if conv.MatchID == matchID {
			c := *conv
			return &c, nil
		}
	}
	conv := &models.Conversation{ID: t.s.id(), MatchID: matchID, IsActive: true, CreatedAt: t.s.now()}
	c := *conv
	t.s.conversations[conv.ID] = &c
	return conv, nil
}

// activities

func (s *fakeStore) GetActivity(_ context.Context, userID, id uint) (*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok || a.UserID != userID {
		return nil, storage.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (s *fakeStore) ListActivities(_ context.Context, query storage.ActivityQuery) ([]models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Activity
	for _, a := range s.activities {
		if a.UserID != query.UserID {
			continue
		}
		if query.Type != "" && a.Type != query.Type {
			continue
		}
		if query.From != nil && a.StartTime.Before(*query.From) {
			continue
		}
		if query.To != nil && a.StartTime.After(*query.To) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if query.Offset > 0 {
		if query.Offset >= len(out) {
			return nil, nil
		}
		out = out[query.Offset:]
	}
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (s *fakeStore) UpdateActivity(_ context.Context, activity *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[activity.ID]; !ok {
		return storage.ErrNotFound
	}
	c := *activity
	s.activities[activity.ID] = &c
	return nil
}

func (s *fakeStore) GetUserStats(_ context.Context, userID uint) (*models.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *st
	return &c, nil
}

func (s *fakeStore) ActivityTx(_ context.Context, fn func(tx storage.ActivityTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(fakeTx{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (t fakeTx) CreateActivity(activity *models.Activity) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	activity.ID = t.s.id()
	activity.CreatedAt = t.s.now()
	c := *activity
	t.s.activities[activity.ID] = &c
	return nil
}

func (t fakeTx) DeleteActivity(activity *models.Activity) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if a, ok := t.s.activities[activity.ID]; !ok || a.UserID != activity.UserID {
		return storage.ErrNotFound
	}
	delete(t.s.activities, activity.ID)
	return nil
}

func (t fakeTx) LockUserStats(userID uint) (*models.UserStats, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	st, ok := t.s.stats[userID]
	if !ok {
		st = &models.UserStats{ID: t.s.id(), UserID: userID}
		t.s.stats[userID] = st
	}
	c := *st
	return &c, nil
}

func (t fakeTx) SaveUserStats(stats *models.UserStats) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c := *stats
	t.s.stats[stats.UserID] = &c
	return nil
}

func (t fakeTx) UpdateLiveActivity(session *models.LiveActivity) error {
	return t.s.updateLive(session)
}

// live activities

func (s *fakeStore) CreateLiveActivity(_ context.Context, session *models.LiveActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.live {
		if l.UserID == session.UserID && l.Status != models.LiveStatusStopped {
			return storage.ErrDuplicate
		}
	}
	session.ID = s.id()
	s.live[session.ID] = cloneLive(session)
	return nil
}

func (s *fakeStore) GetLiveActivity(_ context.Context, userID, id uint) (*models.LiveActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.live[id]
	if !ok || l.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return cloneLive(l), nil
}

func (s *fakeStore) FindOpenLiveActivity(_ context.Context, userID uint) (*models.LiveActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.live {
		if l.UserID == userID && l.Status != models.LiveStatusStopped {
			return cloneLive(l), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) ListLiveActivities(_ context.Context, userID uint) ([]models.LiveActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LiveActivity
	for _, l := range s.live {
		if l.UserID == userID {
			out = append(out, *cloneLive(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (s *fakeStore) UpdateLiveActivity(_ context.Context, session *models.LiveActivity) error {
	return s.updateLive(session)
}

func (s *fakeStore) updateLive(session *models.LiveActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.live[session.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if s.staleWrites > 0 {
		s.staleWrites--
		stored.Version++
		return storage.ErrStaleVersion
	}
	if stored.Version != session.Version {
		return storage.ErrStaleVersion
	}
	session.Version++
	s.live[session.ID] = cloneLive(session)
	return nil
}

func (s *fakeStore) liveByID(id uint) *models.LiveActivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLive(s.live[id])
}

// messaging

func (s *fakeStore) GetConversation(_ context.Context, id uint) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *conv
	if m, ok := s.matches[conv.MatchID]; ok {
		mc := *m
		c.Match = &mc
	}
	return &c, nil
}

func (s *fakeStore) ListConversations(_ context.Context, userID uint) ([]storage.ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.ConversationSummary
	for _, conv := range s.conversations {
		m, ok := s.matches[conv.MatchID]
		if !conv.IsActive || !ok || !m.Involves(userID) {
			continue
		}
		c := *conv
		mc := *m
		mc.User1 = s.userCopy(m.User1ID)
		mc.User2 = s.userCopy(m.User2ID)
		c.Match = &mc
		var unread int64
		for _, msg := range s.messages {
			if msg.ConversationID == conv.ID && msg.SenderID != userID && !msg.IsRead {
				unread++
			}
		}
		out = append(out, storage.ConversationSummary{Conversation: c, UnreadCount: unread})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Conversation.ID < out[j].Conversation.ID })
	return out, nil
}

func (s *fakeStore) ListMessages(_ context.Context, conversationID uint, limit, offset int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) CreateMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		return storage.ErrNotFound
	}
	msg.ID = s.id()
	s.messages = append(s.messages, *msg)
	at := msg.CreatedAt
	conv.LastMessageText = msg.Text
	conv.LastMessageAt = &at
	return nil
}

func (s *fakeStore) MarkRead(_ context.Context, conversationID, readerID uint, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.messages {
		msg := &s.messages[i]
		if msg.ConversationID == conversationID && msg.SenderID != readerID && !msg.IsRead {
			msg.IsRead = true
			readAt := at
			msg.ReadAt = &readAt
			n++
		}
	}
	return n, nil
}

// summaries and goals

func (s *fakeStore) GetOrCreateGoals(_ context.Context, userID uint) (*models.UserGoals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	goals, ok := s.goals[userID]
	if !ok {
		goals = models.NewUserGoals(userID)
		goals.ID = s.id()
		s.goals[userID] = goals
	}
	c := *goals
	c.SelectedGoals = append([]string{}, goals.SelectedGoals...)
	return &c, nil
}

func (s *fakeStore) SaveGoals(_ context.Context, goals *models.UserGoals) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *goals
	s.goals[goals.UserID] = &c
	return nil
}

func (s *fakeStore) GetOrCreateDailySummary(_ context.Context, userID uint, day time.Time) (*models.DailySummary, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, summary := range s.summaries {
		if summary.UserID == userID && summary.Date.Equal(day) {
			c := *summary
			return &c, false, nil
		}
	}
	summary := &models.DailySummary{ID: s.id(), UserID: userID, Date: day, CreatedAt: s.now()}
	s.summaries[summary.ID] = summary
	c := *summary
	return &c, true, nil
}

func (s *fakeStore) ListDailySummaries(_ context.Context, userID uint, from, to time.Time) ([]models.DailySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DailySummary
	for _, summary := range s.summaries {
		if summary.UserID == userID && !summary.Date.Before(from) && !summary.Date.After(to) {
			out = append(out, *summary)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *fakeStore) SaveDailySummary(_ context.Context, summary *models.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.summaries[summary.ID]; !ok {
		return storage.ErrNotFound
	}
	c := *summary
	s.summaries[summary.ID] = &c
	return nil
}

// fakeCache records hash writes and deletes.
type fakeCache struct {
	mu     sync.Mutex
	hashes map[string]map[string]interface{}
	ttls   map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{hashes: map[string]map[string]interface{}{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) HSetWithTTL(_ context.Context, key string, values map[string]interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[key] = values
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) HGetAll(_ context.Context, key string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]string{}
	for k, v := range c.hashes[key] {
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.hashes, key)
		delete(c.ttls, key)
	}
	return nil
}

func (c *fakeCache) get(key string) (map[string]interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.hashes[key]
	return v, ok
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event websocket.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []websocket.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []websocket.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type mockPusher struct {
	mock.Mock
}

func (m *mockPusher) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	args := m.Called(ctx, tokens, title, body, data)
	dead, _ := args.Get(0).([]string)
	return dead, args.Error(1)
}

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, body, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) Delete(ctx context.Context, fileURL string) error {
	args := m.Called(ctx, fileURL)
	return args.Error(0)
}

// prefixSigner presigns by appending a query string, failing for URLs that
// contain "broken".
type prefixSigner struct{}

func (prefixSigner) SignURL(_ context.Context, fileURL string, ttl time.Duration) (string, error) {
	if strings.Contains(fileURL, "broken") {
		return "", errors.New("no such key")
	}
	return fileURL + "?expires=" + ttl.String(), nil
}

type recordingRooms struct {
	mu     sync.Mutex
	frames map[uint][][]byte
}

func (r *recordingRooms) BroadcastToConversation(conversationID uint, message []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frames == nil {
		r.frames = map[uint][][]byte{}
	}
	r.frames[conversationID] = append(r.frames[conversationID], message)
}
