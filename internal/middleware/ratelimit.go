package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/example/horeca/internal/apperr"
)

const maxClients = 4096

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	idle       time.Duration
	retryAfter string

	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

// NewRateLimiter allows burst requests at once and one every interval after that.
func NewRateLimiter(interval time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		limit:      rate.Every(interval),
		burst:      burst,
		idle:       interval * time.Duration(burst),
		retryAfter: strconv.Itoa(int(math.Ceil(interval.Seconds()))),
		clients:    make(map[string]*client),
		now:        time.Now,
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.clients) >= maxClients {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > l.idle {
				delete(l.clients, k)
			}
		}
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Handler rejects over-budget clients with a rate_limited error.
func (l *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.allow(c.IP()) {
			c.Set(fiber.HeaderRetryAfter, l.retryAfter)
			return apperr.RateLimited("too many requests, try again shortly")
		}
		return c.Next()
	}
}
