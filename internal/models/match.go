package models

import (
	"time"
)

const (
	SwipeLike      = "like"
	SwipePass      = "pass"
	SwipeSuperLike = "super_like"
)

// IsSwipeAction reports whether action is one of the recorded swipe actions.
func IsSwipeAction(action string) bool {
	switch action {
	case SwipeLike, SwipePass, SwipeSuperLike:
		return true
	}
	return false
}

// IsLikeAction reports whether action counts toward a mutual like.
func IsLikeAction(action string) bool {
	return action == SwipeLike || action == SwipeSuperLike
}

type Swipe struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FromUserID uint      `json:"from_user_id" gorm:"not null;uniqueIndex:idx_swipes_pair;index:idx_swipes_from_action,priority:1"`
	ToUserID   uint      `json:"to_user_id" gorm:"not null;uniqueIndex:idx_swipes_pair;index:idx_swipes_to_action,priority:1"`
	Action     string    `json:"action" gorm:"size:20;not null;index:idx_swipes_from_action,priority:2;index:idx_swipes_to_action,priority:2"`
	CreatedAt  time.Time `json:"created_at"`
	FromUser   *User     `json:"from_user,omitempty" gorm:"foreignKey:FromUserID"`
	ToUser     *User     `json:"to_user,omitempty" gorm:"foreignKey:ToUserID"`
}

// Match pairs two users; User1ID is always the lower id.
type Match struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	User1ID     uint       `json:"user1_id" gorm:"not null;uniqueIndex:idx_matches_pair"`
	User2ID     uint       `json:"user2_id" gorm:"not null;uniqueIndex:idx_matches_pair"`
	IsActive    bool       `json:"is_active" gorm:"default:true;index"`
	UnmatchedBy *uint      `json:"unmatched_by,omitempty"`
	UnmatchedAt *time.Time `json:"unmatched_at,omitempty"`
	MatchedAt   time.Time  `json:"matched_at" gorm:"autoCreateTime"`
	User1       *User      `json:"user1,omitempty" gorm:"foreignKey:User1ID"`
	User2       *User      `json:"user2,omitempty" gorm:"foreignKey:User2ID"`
}

// OrderedPair normalizes two user ids so the lower one comes first.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// Involves reports whether userID is one side of the match.
func (m *Match) Involves(userID uint) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// OtherUserID returns the participant that is not userID.
func (m *Match) OtherUserID(userID uint) uint {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

type Conversation struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	MatchID         uint       `json:"match_id" gorm:"not null;uniqueIndex"`
	IsActive        bool       `json:"is_active" gorm:"default:true"`
	LastMessageText string     `json:"last_message_text"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Match           *Match     `json:"match,omitempty" gorm:"foreignKey:MatchID"`
}

type Message struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	ConversationID uint       `json:"conversation_id" gorm:"not null;index"`
	SenderID       uint       `json:"sender_id" gorm:"not null"`
	Text           string     `json:"text" gorm:"not null"`
	MessageType    string     `json:"message_type" gorm:"default:text"` // text, image, emoji
	IsRead         bool       `json:"is_read" gorm:"default:false"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
