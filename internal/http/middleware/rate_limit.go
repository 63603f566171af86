package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/vms/internal/http/response"
	"github.com/diagnosis/vms/pkg/database"
	"github.com/diagnosis/vms/pkg/logger"
)

// RateLimitStore counts hits for a key inside a fixed window and returns the running count.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, error)
}

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int                            // Max requests per window
	Window   time.Duration                  // Time window duration
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
	SkipFunc func(r *http.Request) bool     // Function to skip rate limiting
}

// RateLimiter provides rate limiting functionality
type RateLimiter struct {
	store  RateLimitStore
	config RateLimitConfig
}

func NewRateLimiter(store RateLimitStore, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIPKeyFunc
	}
	return &RateLimiter{
		store:  store,
		config: config,
	}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.config.SkipFunc != nil && rl.config.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			for _, key := range rl.config.KeyFunc(r) {
				if !rl.allow(r.Context(), key) {
					w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.config.Window.Seconds())))
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	count, err := rl.store.Hit(ctx, hashKey(key), rl.config.Window)
	if err != nil {
		// Fail open on store errors.
		logger.WarnContext(ctx, "Rate limit check failed", "error", err)
		return true
	}
	return count <= rl.config.Requests
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum)
}

// PostgresRateLimitStore keeps counters in the rate_limits table.
type PostgresRateLimitStore struct {
	db  database.DB
	now func() time.Time
}

func NewPostgresRateLimitStore(db database.DB) *PostgresRateLimitStore {
	return &PostgresRateLimitStore{db: db, now: time.Now}
}

func (s *PostgresRateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (int, error) {
	const q = `
		INSERT INTO rate_limits (key, count, window_start, expires_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			count = CASE
				WHEN rate_limits.window_start < $4 THEN 1
				ELSE rate_limits.count + 1
			END,
			window_start = CASE
				WHEN rate_limits.window_start < $4 THEN $2
				ELSE rate_limits.window_start
			END,
			expires_at = $3
		RETURNING count`

	now := s.now().UTC()
	var count int
	err := s.db.QueryRow(ctx, q, key, now, now.Add(window), now.Add(-window)).Scan(&count)
	return count, err
}

// RedisRateLimitStore uses INCR with a TTL set on the first hit of each window.
type RedisRateLimitStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client, prefix: "vms:ratelimit:"}
}

func (s *RedisRateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (int, error) {
	k := s.prefix + key
	n, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}

// ClientIPKeyFunc limits by the caller's address.
func ClientIPKeyFunc(r *http.Request) []string {
	if ip := ClientIP(r); ip != "" {
		return []string{"ip:" + ip}
	}
	return nil
}

// ClientIP extracts the real client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
