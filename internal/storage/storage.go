package storage

import (
	"context"
	"errors"
	"time"

	"goodfit-api/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already exists")
	ErrStaleVersion = errors.New("record was modified concurrently")
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastSeen(ctx context.Context, id uint, at time.Time) error
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID uint) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
	// ListDiscoverable returns the active profiles, other than the requester's,
	// that the requester has not swiped on and that pass the gender and mutual
	// age filters of matching.Compatible.
	ListDiscoverable(ctx context.Context, requester *models.Profile) ([]models.Profile, error)
}

type NotificationRepository interface {
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
	SaveDeviceToken(ctx context.Context, token *models.DeviceToken) error
	DeviceTokens(ctx context.Context, userIDs []uint) ([]string, error)
	DeleteDeviceTokens(ctx context.Context, tokens []string) error
}

// SwipeQuery selects swipes by either side. Zero fields are ignored.
type SwipeQuery struct {
	FromUserID uint
	ToUserID   uint
	Actions    []string
}

type MatchRepository interface {
	ListSwipes(ctx context.Context, query SwipeQuery) ([]models.Swipe, error)
	GetMatch(ctx context.Context, id uint) (*models.Match, error)
	// ListMatches returns the user's active matches made at or after since,
	// newest first. A zero since returns all of them.
	ListMatches(ctx context.Context, userID uint, since time.Time) ([]models.Match, error)
	// DeactivateMatch persists the unmatch fields of m and closes its conversation.
	DeactivateMatch(ctx context.Context, m *models.Match) error
	MatchTx(ctx context.Context, fn func(tx MatchTx) error) error
}

// MatchTx is the set of writes performed atomically when a swipe is recorded.
type MatchTx interface {
	// LockPair serializes concurrent swipes between the same two users.
	LockPair(a, b uint) error
	CreateSwipe(swipe *models.Swipe) error
	HasLiked(fromUserID, toUserID uint) (bool, error)
	// CreateMatch inserts m unless the pair already has a match, in which
	// case m is filled from the existing row. It reports whether m is new.
	CreateMatch(m *models.Match) (bool, error)
	OpenConversation(matchID uint) (*models.Conversation, error)
}

// ActivityQuery filters a user's activities. Nil bounds are open.
type ActivityQuery struct {
	UserID uint
	Type   string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type ActivityRepository interface {
	GetActivity(ctx context.Context, userID, id uint) (*models.Activity, error)
	ListActivities(ctx context.Context, query ActivityQuery) ([]models.Activity, error)
	UpdateActivity(ctx context.Context, activity *models.Activity) error
	GetUserStats(ctx context.Context, userID uint) (*models.UserStats, error)
	ActivityTx(ctx context.Context, fn func(tx ActivityTx) error) error
}

// ActivityTx groups the writes that must land together with a stats update.
type ActivityTx interface {
	CreateActivity(activity *models.Activity) error
	DeleteActivity(activity *models.Activity) error
	// LockUserStats returns the user's stats row locked for update, creating
	// an empty row first if needed.
	LockUserStats(userID uint) (*models.UserStats, error)
	SaveUserStats(stats *models.UserStats) error
	UpdateLiveActivity(session *models.LiveActivity) error
}

// SummaryRepository stores daily summaries and the goals they are measured
// against. Days are UTC calendar dates.
type SummaryRepository interface {
	// GetOrCreateGoals returns the user's goals, inserting the defaults first
	// if the user has none.
	GetOrCreateGoals(ctx context.Context, userID uint) (*models.UserGoals, error)
	SaveGoals(ctx context.Context, goals *models.UserGoals) error
	// GetOrCreateDailySummary returns the user's summary for day, inserting an
	// empty one first if needed. It reports whether the row was created.
	GetOrCreateDailySummary(ctx context.Context, userID uint, day time.Time) (*models.DailySummary, bool, error)
	// ListDailySummaries returns summaries dated from through to inclusive,
	// newest first.
	ListDailySummaries(ctx context.Context, userID uint, from, to time.Time) ([]models.DailySummary, error)
	SaveDailySummary(ctx context.Context, summary *models.DailySummary) error
}

type LiveActivityRepository interface {
	CreateLiveActivity(ctx context.Context, session *models.LiveActivity) error
	GetLiveActivity(ctx context.Context, userID, id uint) (*models.LiveActivity, error)
	// FindOpenLiveActivity returns the user's session that is not stopped.
	FindOpenLiveActivity(ctx context.Context, userID uint) (*models.LiveActivity, error)
	ListLiveActivities(ctx context.Context, userID uint) ([]models.LiveActivity, error)
	// UpdateLiveActivity saves session if its version is unchanged since it
	// was read and bumps the version. Otherwise it returns ErrStaleVersion.
	UpdateLiveActivity(ctx context.Context, session *models.LiveActivity) error
	ActivityTx(ctx context.Context, fn func(tx ActivityTx) error) error
}

// ConversationSummary is a conversation with the caller's unread count.
type ConversationSummary struct {
	Conversation models.Conversation
	UnreadCount  int64
}

type MessageRepository interface {
	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uint) ([]ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]models.Message, error)
	// CreateMessage stores msg and refreshes the conversation preview.
	CreateMessage(ctx context.Context, msg *models.Message) error
	MarkRead(ctx context.Context, conversationID, readerID uint, at time.Time) (int64, error)
}

// Store implements every repository on top of gorm.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var (
	_ UserRepository         = (*Store)(nil)
	_ ProfileRepository      = (*Store)(nil)
	_ NotificationRepository = (*Store)(nil)
	_ MatchRepository        = (*Store)(nil)
	_ ActivityRepository     = (*Store)(nil)
	_ LiveActivityRepository = (*Store)(nil)
	_ SummaryRepository      = (*Store)(nil)
	_ MessageRepository      = (*Store)(nil)
	_ MatchTx                = (*txStore)(nil)
	_ ActivityTx             = (*txStore)(nil)
)

// txStore runs repository writes inside an open transaction.
type txStore struct {
	db *gorm.DB
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
