package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/roomkit/api/infrastructure/logger"
	"go.uber.org/zap"
)

type RateLimiterConfig struct {
	RequestsPerWindow int           // Number of requests allowed
	Window            time.Duration // Time window
	BlockDuration     time.Duration // How long to block after exceeding limit
}

// ModerateRateLimiterConfig for normal API endpoints
func ModerateRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 60,              // 60 requests
		Window:            time.Minute,     // per minute
		BlockDuration:     time.Minute * 5, // block for 5 minutes
	}
}

// LenientRateLimiterConfig for read-heavy endpoints
func LenientRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 200,             // 200 requests
		Window:            time.Minute,     // per minute
		BlockDuration:     time.Minute * 2, // block for 2 minutes
	}
}

const rateLimitScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local expiry = tonumber(ARGV[4])

local windowStart = now - window
redis.call('ZREMRANGEBYSCORE', key, 0, windowStart)

local currentCount = redis.call('ZCARD', key)

redis.call('ZADD', key, now, now)
redis.call('EXPIRE', key, expiry)

local remaining = math.max(limit - currentCount - 1, 0)
local allowed = currentCount < limit

return {allowed and 1 or 0, remaining, currentCount + 1}
`

const checkBlockScript = `
local blockKey = KEYS[1]

local exists = redis.call('EXISTS', blockKey)
if exists == 0 then
    return {0, 0}
end

local ttl = redis.call('TTL', blockKey)
return {1, ttl}
`

// RateLimiterMiddleware applies a sliding-window limit per client IP.
// Redis errors fail open: a broken limiter must not take the API down.
func RateLimiterMiddleware(redisClient *redis.Client, logger *logger.Logger, config RateLimiterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		ctx := c.Request.Context()

		blockKey := fmt.Sprintf("ratelimit:block:%s", clientIP)
		blockResult, err := redisClient.Eval(ctx, checkBlockScript, []string{blockKey}).Result()
		if err != nil {
			logger.Error("failed to check if client is blocked", zap.Error(err), zap.String("ip", clientIP))
			c.Next()
			return
		}

		blockInfo := blockResult.([]any)
		isBlocked := blockInfo[0].(int64) == 1

		if isBlocked {
			ttl := time.Duration(blockInfo[1].(int64)) * time.Second

			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.RequestsPerWindow))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests. You have been temporarily blocked.",
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		allowed, remaining, err := checkRateLimit(ctx, redisClient, clientIP, config)
		if err != nil {
			logger.Error("failed to check rate limit", zap.Error(err), zap.String("ip", clientIP))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.RequestsPerWindow))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			if err := redisClient.Set(ctx, blockKey, 1, config.BlockDuration).Err(); err != nil {
				logger.Error("failed to set rate limit block", zap.Error(err), zap.String("ip", clientIP))
			}

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests.",
				"retry_after": int(config.BlockDuration.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func checkRateLimit(ctx context.Context, redisClient *redis.Client, clientIP string, config RateLimiterConfig) (bool, int64, error) {
	key := fmt.Sprintf("ratelimit:%s", clientIP)
	now := time.Now().UnixMilli()
	window := config.Window.Milliseconds()
	expiry := int64(config.Window.Seconds()) + 1

	result, err := redisClient.Eval(ctx, rateLimitScript,
		[]string{key},
		now, window, config.RequestsPerWindow, expiry,
	).Result()
	if err != nil {
		return false, 0, err
	}

	values := result.([]any)
	allowed := values[0].(int64) == 1
	remaining := values[1].(int64)

	return allowed, remaining, nil
}
