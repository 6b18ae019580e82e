package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/lab-report-server/internal/domain"
)

var errRateLimited = errors.New("rate limit exceeded for client")

// ClientRateLimiter hands out one token bucket per client IP. The set of
// buckets is bounded; the least recently seen clients are evicted first.
type ClientRateLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
}

// NewClientRateLimiter creates a limiter set from the rate limit config.
func NewClientRateLimiter(cfg domain.RateLimitConfig) (*ClientRateLimiter, error) {
	maxClients := cfg.MaxClients
	if maxClients <= 0 {
		maxClients = 10000
	}
	cache, err := lru.New[string, *rate.Limiter](maxClients)
	if err != nil {
		return nil, err
	}
	return &ClientRateLimiter{
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		limiters: cache,
	}, nil
}

// Allow reports whether the client may make a request now.
func (l *ClientRateLimiter) Allow(clientKey string) bool {
	return l.limiter(clientKey).Allow()
}

// Clients returns the number of tracked clients.
func (l *ClientRateLimiter) Clients() int {
	return l.limiters.Len()
}

func (l *ClientRateLimiter) limiter(clientKey string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters.Get(clientKey); ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Add(clientKey, lim)
	return lim
}

// RateLimit rejects requests beyond the client's budget with 429.
func RateLimit(limiter *ClientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(1))
		c.AbortWithStatusJSON(http.StatusTooManyRequests,
			domain.NewErrorResponse(domain.MsgRateLimited, errRateLimited, GetCorrelationID(c)))
	}
}
