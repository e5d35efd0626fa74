package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitIPPrefix is the Redis key prefix for IP buckets.
	rateLimitIPPrefix = "ratelimit:ip:"
	// rateLimitIPTTLMargin is kept on top of the full refill time.
	rateLimitIPTTLMargin = time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

// tokenBucketScript refills and takes one token atomically.
// Time is in milliseconds so sub-second refills are not lost.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per millisecond
	local burst = tonumber(ARGV[2])     -- bucket capacity
	local now = tonumber(ARGV[3])       -- current time in ms
	local ttl = tonumber(ARGV[4])       -- idle TTL in ms

	local data = redis.call('HMGET', key, 'tokens', 'ts')
	local tokens = tonumber(data[1]) or burst
	local ts = tonumber(data[2]) or now

	local elapsed = math.max(0, now - ts)
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tostring(tokens), 'ts', tostring(now))
	redis.call('PEXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// AllowIP takes one token from the bucket of ip.
// On Redis failure the request is allowed and the error is returned so the
// caller can log it.
func (c *Cache) AllowIP(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	open := &RateLimitResult{Allowed: true, Limit: burst, Remaining: int64(burst)}
	if ratePerSecond <= 0 || burst <= 0 {
		return open, nil
	}

	key := rateLimitIPPrefix + hashIP(ip)
	now := time.Now().UnixMilli()
	rate := float64(ratePerSecond) / 1000.0

	res, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		rate, burst, now, bucketTTL(ratePerSecond, burst).Milliseconds(),
	).Int64Slice()
	if err != nil {
		return open, fmt.Errorf("rate limit script: %w", err)
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		Limit:      burst,
		Remaining:  res[2],
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
	}, nil
}

// bucketTTL is how long an idle bucket must live: the time an empty bucket
// takes to refill to burst, plus a margin.
func bucketTTL(ratePerSecond, burst int) time.Duration {
	refillMs := math.Ceil(float64(burst) * 1000 / float64(ratePerSecond))
	return time.Duration(refillMs)*time.Millisecond + rateLimitIPTTLMargin
}

// hashIP creates a truncated SHA256 hash of an IP address.
// Raw addresses are never written to Redis.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
