package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSelfSwipe          = fmt.Errorf("%w: cannot swipe on yourself", ErrInvalidInput)
	ErrAlreadySwiped      = errors.New("already swiped on this user")
	ErrProfileRequired    = errors.New("complete profile first")
	ErrNotParticipant     = errors.New("not a participant")
	ErrSessionInProgress  = errors.New("a live activity is already in progress")
	ErrConcurrentUpdate   = errors.New("live activity was updated concurrently, retry")
	ErrConversationClosed = errors.New("conversation is no longer active")
	ErrEmailTaken         = errors.New("email already registered")
	ErrBadCredentials     = errors.New("invalid email or password")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
