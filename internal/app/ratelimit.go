// Package app holds shared bootstrap helpers used by the command entrypoints.
package app

import (
	"fmt"
	"net/http"

	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	redis "github.com/redis/go-redis/v9"
)

// NewLimiterStore wires a rate limiter store backed by Redis.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "ratelimit",
	})
}

// NewRateLimitMiddleware builds a chi-compatible middleware from a formatted
// rate such as "300-M" (300 requests per minute, keyed by client IP).
func NewRateLimitMiddleware(store limiter.Store, formatted string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit %q: %w", formatted, err)
	}
	instance := limiter.New(store, rate)
	mw := limiterstdlib.NewMiddleware(instance)
	return mw.Handler, nil
}
