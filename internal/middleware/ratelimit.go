package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/edustack/school-content-api/internal/utils"

	"github.com/gorilla/mux"
)

const rateLimitWindow = time.Hour

// Per-client request budgets for one window, keyed by endpoint class.
var rateLimits = map[string]int{
	"upload":  20,
	"search":  100,
	"default": 200,
}

type clientWindow struct {
	start time.Time
	count int
}

// RateLimiter enforces fixed-window per-client request limits. Expensive
// endpoints (upload, search) get tighter budgets than the rest of the API.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	logger  *utils.Logger
}

func NewRateLimiter(logger *utils.Logger) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientWindow),
		logger:  logger,
	}
	go rl.sweep()
	return rl
}

// classify maps a request path to its endpoint class.
func classify(path string) string {
	switch {
	case strings.HasSuffix(path, "/upload") || strings.HasSuffix(path, "/analyze"):
		return "upload"
	case strings.HasSuffix(path, "/search"):
		return "search"
	default:
		return "default"
	}
}

// allow counts the request against the client's window and reports whether
// it fits the budget along with the remaining allowance.
func (rl *RateLimiter) allow(ip, class string) (bool, int) {
	limit := rateLimits[class]
	key := ip + ":" + class
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	window, ok := rl.clients[key]
	if !ok || now.Sub(window.start) >= rateLimitWindow {
		rl.clients[key] = &clientWindow{start: now, count: 1}
		return true, limit - 1
	}

	window.count++
	if window.count > limit {
		return false, 0
	}
	return true, limit - window.count
}

// sweep drops expired windows so idle clients do not accumulate.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rateLimitWindow)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		rl.mu.Lock()
		for key, window := range rl.clients {
			if now.Sub(window.start) >= rateLimitWindow {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware enforces the rate limits, answering blocked requests with 429.
func (rl *RateLimiter) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := classify(r.URL.Path)
			ip := ClientIP(r)

			ok, remaining := rl.allow(ip, class)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rateLimits[class]))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				rl.logger.Warn("Rate limit exceeded", "remote", ip, "class", class, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Rate limit exceeded, try again later",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
