package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/common"
	"github.com/sentinelsec/guardgate/pkg/config"
	guardprometheus "github.com/sentinelsec/guardgate/pkg/infra/prometheus"
)

const rateLimitKeyPattern = "ratelimit:%s:%d"

// rateLimitMiddleware applies a Redis fixed window per API key. A failing
// Redis backend lets requests through; limiting is protection, not a
// correctness requirement.
type rateLimitMiddleware struct {
	logger       *logrus.Logger
	redis        *redis.Client
	limit        int
	window       time.Duration
	timeProvider func() time.Time
}

type RateLimitOpts struct {
	TimeProvider func() time.Time
}

func NewRateLimitMiddleware(
	logger *logrus.Logger,
	redisClient *redis.Client,
	cfg config.RateLimitConfig,
	opts *RateLimitOpts,
) Middleware {
	window, err := time.ParseDuration(cfg.Window)
	if err != nil || window <= 0 {
		window = time.Minute
	}
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	return &rateLimitMiddleware{
		logger:       logger,
		redis:        redisClient,
		limit:        cfg.Limit,
		window:       window,
		timeProvider: timeProvider,
	}
}

func (m *rateLimitMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		apiKey, _ := ctx.Locals(common.ApiKeyKey).(string)
		if apiKey == "" {
			apiKey = ctx.IP()
		}

		now := m.timeProvider()
		windowStart := now.Truncate(m.window)
		key := fmt.Sprintf(rateLimitKeyPattern, apiKey, windowStart.Unix())

		count, err := m.redis.Incr(ctx.Context(), key).Result()
		if err != nil {
			m.logger.WithError(err).Warn("rate limiter backend unavailable, allowing request")
			return ctx.Next()
		}
		if count == 1 {
			if err := m.redis.Expire(ctx.Context(), key, m.window).Err(); err != nil {
				m.logger.WithError(err).Warn("failed to set rate limit window expiry")
			}
		}

		if count > int64(m.limit) {
			guardprometheus.RateLimited.Inc()
			retryAfter := windowStart.Add(m.window).Sub(now)
			ctx.Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		return ctx.Next()
	}
}
