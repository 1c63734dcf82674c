package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"goodfit-api/internal/models"
	"goodfit-api/internal/storage"
	"goodfit-api/internal/utils"

	"github.com/sirupsen/logrus"
)

const minPasswordLength = 8

type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type AuthService struct {
	users  storage.UserRepository
	secret string
	expiry time.Duration
	clock  utils.Clock
}

func NewAuthService(users storage.UserRepository, secret string, expiry time.Duration, clock utils.Clock) *AuthService {
	return &AuthService{users: users, secret: secret, expiry: expiry, clock: clock}
}

func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidf("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, invalidf("password must be at least %d characters", minPasswordLength)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, invalidf("display name is required")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logrus.WithField("user_id", user.ID).Info("user registered")
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive || !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrBadCredentials
	}

	if err := s.users.TouchLastSeen(ctx, user.ID, s.clock.Now()); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to update last seen")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	now := s.clock.Now()
	token, err := utils.GenerateToken(s.secret, user.ID, s.expiry, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: now.Add(s.expiry), User: user}, nil
}
