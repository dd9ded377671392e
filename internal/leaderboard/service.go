// Package leaderboard ranks players by rating.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/internal/realtime"
	"github.com/wonny/tradingquiz/pkg/logger"
	"github.com/wonny/tradingquiz/pkg/redis"
)

const (
	// DefaultLimit is used when the caller passes limit <= 0.
	DefaultLimit = 100
	// MaxLimit caps a single page.
	MaxLimit = 500
)

// Publisher is satisfied by *realtime.Hub.
type Publisher interface {
	Publish(typ realtime.EventType, data interface{})
}

// Service serves cached leaderboard pages and announces rating changes
// ⭐ SSOT: leaderboard ordering and rank rules live here only
type Service struct {
	users     contracts.UserRepository
	cache     *redis.Cache
	ttl       time.Duration
	publisher Publisher
	logger    *logger.Logger
}

// NewService creates a leaderboard service. cache and publisher may be nil.
func NewService(users contracts.UserRepository, cache *redis.Cache, ttl time.Duration, publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		users:     users,
		cache:     cache,
		ttl:       ttl,
		publisher: publisher,
		logger:    log,
	}
}

// NormalizeLimit applies the default and the cap.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Top returns up to limit users ordered by rating DESC, created_at ASC, id ASC.
func (s *Service) Top(ctx context.Context, limit int) ([]contracts.LeaderboardEntry, error) {
	limit = NormalizeLimit(limit)

	if s.cache == nil {
		return s.load(ctx, limit)
	}

	var entries []contracts.LeaderboardEntry
	err := s.cache.GetOrSet(ctx, redis.LeaderboardKey(limit), &entries, s.ttl, func() (interface{}, error) {
		return s.load(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []contracts.LeaderboardEntry{}
	}
	return entries, nil
}

func (s *Service) load(ctx context.Context, limit int) ([]contracts.LeaderboardEntry, error) {
	users, err := s.users.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return Rank(users), nil
}

// Rank assigns 1-based positions to an already ordered slice.
func Rank(users []*contracts.User) []contracts.LeaderboardEntry {
	entries := make([]contracts.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = contracts.LeaderboardEntry{
			ID:       u.ID,
			Username: u.Username,
			Rating:   u.Rating,
			Rank:     i + 1,
		}
	}
	return entries
}

// RankOf returns 1 + the number of users with a strictly higher rating.
func (s *Service) RankOf(ctx context.Context, userID string) (int, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	above, err := s.users.CountAbove(ctx, user.Rating)
	if err != nil {
		return 0, fmt.Errorf("count users above: %w", err)
	}
	return above + 1, nil
}

// Invalidate drops every cached page.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeletePattern(ctx, redis.LeaderboardPattern)
}

// RatingChanged broadcasts a default page read straight from the store and
// then invalidates the cache. Failures are logged, never returned.
func (s *Service) RatingChanged(ctx context.Context, userID string) {
	log := s.logger.WithUser(userID)

	if s.publisher != nil {
		// The broadcast must not see a page cached before this change.
		entries, err := s.load(ctx, DefaultLimit)
		if err != nil {
			log.WithError(err).Warn("Failed to load leaderboard for broadcast")
		} else {
			s.publisher.Publish(realtime.EventLeaderboard, entries)
		}
	}

	if err := s.Invalidate(ctx); err != nil {
		log.WithError(err).Warn("Failed to invalidate leaderboard cache")
	}
}

// Warm loads the default page into the cache.
func (s *Service) Warm(ctx context.Context) (int, error) {
	entries, err := s.Top(ctx, DefaultLimit)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
