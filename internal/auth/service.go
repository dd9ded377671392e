// Package auth registers and logs in players and issues their access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/pkg/config"
	"github.com/wonny/tradingquiz/pkg/logger"
	"github.com/wonny/tradingquiz/pkg/redis"
)

const (
	minPasswordLen = 6
	// bcrypt rejects longer inputs.
	maxPasswordLen = 72
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// Limiter is satisfied by *redis.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, cfg redis.RateLimitConfig) (bool, int, error)
}

// Session is returned by Register and Login.
type Session struct {
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expiresAt"`
	User      contracts.PublicUser `json:"user"`
}

// Service handles registration, login and token parsing
// ⭐ SSOT: password hashing and token issuance live here only
type Service struct {
	users      contracts.UserRepository
	jwt        JWT
	bcryptCost int
	limiter    Limiter
	logger     *logger.Logger
	now        func() time.Time
}

// NewService creates an auth service. limiter may be nil.
func NewService(users contracts.UserRepository, cfg config.AuthConfig, limiter Limiter, log *logger.Logger) *Service {
	return &Service{
		users:      users,
		jwt:        JWT{Secret: []byte(cfg.JWTSecret), TokenTTL: cfg.TokenTTL},
		bcryptCost: cfg.BcryptCost,
		limiter:    limiter,
		logger:     log,
		now:        time.Now,
	}
}

// Register creates a user with the initial rating and returns a session.
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 characters of letters, digits, '_', '.' or '-'", contracts.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", contracts.ErrInvalidInput, minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", contracts.ErrInvalidInput, maxPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &contracts.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Rating:       contracts.InitialRating,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithUser(user.ID).Info("User registered")
	return s.session(user)
}

// Login checks credentials. Unknown users and wrong passwords both yield
// ErrUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)

	if s.limiter != nil {
		allowed, _, err := s.limiter.Allow(ctx, redis.LoginRateLimit(username))
		if err != nil {
			s.logger.WithError(err).Warn("Login rate limiter unavailable")
		} else if !allowed {
			return nil, fmt.Errorf("%w: too many login attempts", contracts.ErrRateLimited)
		}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", contracts.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", contracts.ErrUnauthorized)
	}

	return s.session(user)
}

// ParseToken returns the user id carried by a valid token.
func (s *Service) ParseToken(token string) (string, error) {
	return s.jwt.Verify(token)
}

func (s *Service) session(user *contracts.User) (*Session, error) {
	token, exp, err := s.jwt.Sign(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: user.Public()}, nil
}
