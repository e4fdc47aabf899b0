// Package ratelimit throttles user-triggered due checks so that repeated
// mileage updates do not hammer the notification pipeline.
package ratelimit

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/hawkinslabdev/rideway-sub002/pkg/redis"
	"github.com/hawkinslabdev/rideway-sub002/pkg/tracing"
)

const (
	// DefaultDueCheckLimit caps due sweeps at one per user per window, so
	// a shorter poll interval never sweeps the same user more than hourly.
	DefaultDueCheckLimit = 1

	// DefaultDueCheckWindow is the sliding window for due-check throttling.
	DefaultDueCheckWindow = time.Hour
)

// Manager handles rate limiting for due-check sweeps
type Manager struct {
	limiter *redis.RateLimiter
	logger  ectologger.Logger
	limit   int64
	window  time.Duration
}

// NewManager creates a new rate limit manager
func NewManager(redisClient *redis.Client, logger ectologger.Logger) *Manager {
	return &Manager{
		limiter: redis.NewRateLimiter(redisClient, "rideway:ratelimit:"),
		logger:  logger,
		limit:   DefaultDueCheckLimit,
		window:  DefaultDueCheckWindow,
	}
}

// AllowDueCheck reports whether a due-check sweep for the user is allowed
// right now. Redis errors fail open so a cache outage never suppresses
// notifications.
func (m *Manager) AllowDueCheck(ctx context.Context, userID uuid.UUID) bool {
	ctx, span := tracing.StartSpan(ctx, "RateLimitManager.AllowDueCheck")
	defer span.End()

	result, err := m.limiter.Allow(ctx, "duecheck:"+userID.String(), m.limit, m.window)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Warnf("due check rate limit unavailable, allowing")
		return true
	}

	if !result.Allowed {
		m.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"user_id":  userID.String(),
			"retry_in": result.RetryIn.String(),
		}).Debugf("due check throttled")
	}

	return result.Allowed
}
