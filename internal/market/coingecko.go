package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/tradingquiz/pkg/config"
	"github.com/wonny/tradingquiz/pkg/httputil"
	"github.com/wonny/tradingquiz/pkg/logger"
	"github.com/wonny/tradingquiz/pkg/redis"
)

// CoinGeckoClient fetches BTC/USD history from the public CoinGecko API
type CoinGeckoClient struct {
	http    *httputil.Client
	baseURL string
	now     func() time.Time
}

// NewCoinGeckoClient creates a throttled client. limiter may be nil; when
// set it shares the request budget across processes through Redis.
func NewCoinGeckoClient(cfg config.CoinGeckoConfig, limiter *redis.RateLimiter, log *logger.Logger) *CoinGeckoClient {
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = redis.CoinGeckoRateLimit.Limit
	}

	client := httputil.NewWithTimeout(log, cfg.Timeout).
		WithRetry(1, 500*time.Millisecond).
		WithLimiter(rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1))
	if limiter != nil {
		rl := redis.CoinGeckoRateLimit
		rl.Limit = perMin
		client = client.WithRateLimiter(limiter, rl)
	}

	return &CoinGeckoClient{
		http:    client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		now:     time.Now,
	}
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// History returns the last days of BTC/USD closes with unix-second timestamps.
func (c *CoinGeckoClient) History(ctx context.Context, days int) ([]Point, error) {
	end := c.now().Unix()
	start := end - int64(days)*24*60*60

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("from", strconv.FormatInt(start, 10))
	q.Set("to", strconv.FormatInt(end, 10))
	endpoint := c.baseURL + "/coins/bitcoin/market_chart/range?" + q.Encode()

	var body marketChartResponse
	if err := c.http.GetJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("coingecko market chart: %w", err)
	}
	if len(body.Prices) == 0 {
		return nil, fmt.Errorf("coingecko market chart: empty price list")
	}

	points := make([]Point, len(body.Prices))
	for i, p := range body.Prices {
		points[i] = Point{Time: int64(p[0] / 1000), Value: p[1]}
	}
	return points, nil
}
