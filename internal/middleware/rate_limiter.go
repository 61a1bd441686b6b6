package middleware

import (
	"net/http"
	"sync"
	"time"

	"cashrecon/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// windowCounter counts requests per IP in fixed windows.
type windowCounter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*windowEntry
}

type windowEntry struct {
	count     int
	windowEnd time.Time
}

func newWindowCounter(limit int, window time.Duration) *windowCounter {
	return &windowCounter{limit: limit, window: window, entries: make(map[string]*windowEntry)}
}

// allow records one request from ip and reports whether it is within the
// limit, plus when the current window ends.
func (w *windowCounter) allow(ip string, now time.Time) (bool, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &windowEntry{windowEnd: now.Add(w.window)}
		w.entries[ip] = e
	}
	e.count++
	return e.count <= w.limit, e.windowEnd
}

// purge drops entries whose window has ended and returns how many it removed.
func (w *windowCounter) purge(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for ip, e := range w.entries {
		if now.After(e.windowEnd) {
			delete(w.entries, ip)
			n++
		}
	}
	return n
}

var (
	countersMu sync.Mutex
	counters   []*windowCounter
	purgeOnce  sync.Once
)

func register(w *windowCounter) *windowCounter {
	countersMu.Lock()
	counters = append(counters, w)
	countersMu.Unlock()
	purgeOnce.Do(func() { go purgeExpiredEntries() })
	return w
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	wc := register(newWindowCounter(20, time.Minute))
	return func(c *gin.Context) {
		if ok, _ := wc.allow(c.ClientIP(), time.Now()); !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many login attempts. Try again in a minute."))
			return
		}
		c.Next()
	}
}

// RateLimiter allows limit requests per window per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	wc := register(newWindowCounter(limit, window))
	return func(c *gin.Context) {
		ok, end := wc.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", end.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many requests. Try again shortly."))
			return
		}
		c.Next()
	}
}

const purgeInterval = 5 * time.Minute

// purgeExpiredEntries keeps the maps from growing with IPs that never return.
func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		countersMu.Lock()
		list := append([]*windowCounter(nil), counters...)
		countersMu.Unlock()

		purged := 0
		for _, wc := range list {
			purged += wc.purge(now)
		}
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Msg("rate limiter maps purged")
		}
	}
}
