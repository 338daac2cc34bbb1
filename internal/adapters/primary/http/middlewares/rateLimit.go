package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers"
)

type RateLimitConfig struct {
	Enabled bool          `envconfig:"ENABLED" default:"true"`
	Every   time.Duration `envconfig:"EVERY" default:"2s"`
	Burst   int           `envconfig:"BURST" default:"5"`
	// лимитеры пользователей, молчащих дольше, удаляются
	IdleTTL time.Duration `envconfig:"IDLE_TTL" default:"10m"`
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter ограничивает всплески запросов одного пользователя.
// Квоты тут не при чём: это защита LLM от частых повторов.
type rateLimiter struct {
	cfg      RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*visitor
	lastGC   time.Time
	now      func() time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	return &rateLimiter{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastGC) > l.cfg.IdleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.cfg.IdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastGC = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.cfg.Every), l.cfg.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit ограничение частоты по пользователю, для анонимных запросов по IP
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newRateLimiter(cfg)

	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := UserID(c); ok {
			key = userID.String()
		}
		if !limiter.allow(key) {
			c.Header("Retry-After", "1")
			controllers.Abort(c, http.StatusTooManyRequests, controllers.CodeRateLimited, "too many requests, slow down")
			return
		}
		c.Next()
	}
}
