package market

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/pkg/logger"
	"github.com/wonny/tradingquiz/pkg/redis"
)

const (
	DefaultDays = 180
	MaxDays     = 365
)

// Source fetches a live series. *CoinGeckoClient satisfies it.
type Source interface {
	History(ctx context.Context, days int) ([]Point, error)
}

// HistoryService serves price history, falling back to the generator when
// the live source fails
// ⭐ SSOT: price history for quiz rounds and imports comes from here
type HistoryService struct {
	source    Source
	generator Generator
	cache     *redis.Cache
	ttl       time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewHistoryService creates a history service. source and cache may be nil.
func NewHistoryService(source Source, gen Generator, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *HistoryService {
	return &HistoryService{
		source:    source,
		generator: gen,
		cache:     cache,
		ttl:       ttl,
		logger:    log,
		now:       time.Now,
	}
}

// ValidateDays applies the default and the 1..365 range.
func ValidateDays(days int) (int, error) {
	if days == 0 {
		return DefaultDays, nil
	}
	if days < 1 || days > MaxDays {
		return 0, fmt.Errorf("%w: days must be between 1 and %d", contracts.ErrInvalidInput, MaxDays)
	}
	return days, nil
}

// History returns days of daily closes. Live data is cached; the synthetic
// fallback is not.
func (s *HistoryService) History(ctx context.Context, days int) (*History, error) {
	days, err := ValidateDays(days)
	if err != nil {
		return nil, err
	}

	key := redis.PriceHistoryKey("bitcoin", days)
	if s.cache != nil {
		var cached History
		if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
			return &cached, nil
		}
	}

	if s.source != nil {
		points, err := s.source.History(ctx, days)
		if err == nil {
			h := &History{Symbol: Symbol, Data: points, Source: SourceCoinGecko}
			if s.cache != nil {
				if err := s.cache.Set(ctx, key, h, s.ttl); err != nil {
					s.logger.WithError(err).Warn("Failed to cache price history")
				}
			}
			return h, nil
		}
		s.logger.WithError(err).Warn("Live price history unavailable, using static data")
	}

	return &History{
		Symbol: Symbol,
		Data:   s.generator.Generate(days, s.now()),
		Source: SourceStatic,
	}, nil
}
