package middleware

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/iliyamo/activity-booking/internal/model"
)

// HeaderAPIKey carries the webhook credential.
const HeaderAPIKey = "X-API-KEY"

// KeyAuthenticator resolves a raw API key.
type KeyAuthenticator func(ctx context.Context, raw string) (*model.APIKey, error)

// APIKeyAuth authenticates webhook calls by X-API-KEY and applies the
// per-key limiter.  A nil limiter disables limiting.
func APIKeyAuth(auth KeyAuthenticator, limiter *KeyLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			k, err := auth(ctx, c.Request().Header.Get(HeaderAPIKey))
			if err != nil {
				if errors.Is(err, model.ErrUnauthorized) {
					zerolog.Ctx(ctx).Info().Err(err).Str("ip", c.RealIP()).Msg("webhook rejected")
					return unauthorized(c, "invalid or missing API key")
				}
				return err
			}
			if limiter != nil && !limiter.Allow(k.ID) {
				secs := int(math.Ceil(1 / float64(limiter.limit)))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded for this API key",
					"retry_after": secs,
				})
			}
			c.Set(apiKeyKey, k)
			req := c.Request()
			l := zerolog.Ctx(ctx).With().Uint64("api_key_id", k.ID).Uint64("user_id", k.UserID).Logger()
			c.SetRequest(req.WithContext(l.WithContext(ctx)))
			return next(c)
		}
	}
}

type keyEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyLimiter keeps one in-process token bucket per API key.  Entries idle
// longer than idle are evicted by Run.
type KeyLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	entries map[uint64]*keyEntry
}

func NewKeyLimiter(rps float64, burst int, idle time.Duration) *KeyLimiter {
	return &KeyLimiter{limit: rate.Limit(rps), burst: burst, idle: idle, entries: make(map[uint64]*keyEntry)}
}

// Allow takes one token from the bucket of keyID.
func (l *KeyLimiter) Allow(keyID uint64) bool {
	l.mu.Lock()
	e, ok := l.entries[keyID]
	if !ok {
		e = &keyEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[keyID] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

// Len is the number of tracked keys.
func (l *KeyLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run evicts idle entries until ctx is done.
func (l *KeyLimiter) Run(ctx context.Context) {
	if l.idle <= 0 {
		return
	}
	t := time.NewTicker(l.idle / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.evict(now)
		}
	}
}

func (l *KeyLimiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idle {
			delete(l.entries, id)
		}
	}
}
