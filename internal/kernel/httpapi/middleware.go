package httpapi

import (
	"fmt"
	"net/http"
	"net/netip"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/ratelimit"
	"github.com/uaesivakumar/authority-kernel/pkg/logger"
	"github.com/uaesivakumar/authority-kernel/pkg/tracing"
)

// responseWriter captures the status code written so logging middleware
// can record it after the handler returns.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestLogging logs method, path, status, and duration for every
// request, grounded on the teacher's middleware.LoggingMiddleware.
func RequestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   wrapped.statusCode,
				"duration": time.Since(start).String(),
			}).Info("request")
		})
	}
}

// Trace wraps every request in a span named "METHOD path" (the request's
// URL path, not the chi route pattern), so downstream service calls
// within the handler nest under it.
func Trace(tracer tracing.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, finish := tracer.StartSpan(r.Context(), r.Method+" "+r.URL.Path, map[string]string{
				"http.method": r.Method,
				"http.path":   r.URL.Path,
			})
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(ctx))
			if wrapped.statusCode >= http.StatusInternalServerError {
				finish(fmt.Errorf("http %d", wrapped.statusCode))
			} else {
				finish(nil)
			}
		})
	}
}

// Recover turns a panic in any downstream handler into a 500 response
// instead of crashing the process, grounded on the teacher's
// middleware.RecoveryMiddleware.
func Recover(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithFields(map[string]interface{}{
						"panic": fmt.Sprintf("%v", rec),
						"stack": string(debug.Stack()),
						"path":  r.URL.Path,
					}).Error("panic recovered")
					writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
						"success": false, "error": "INTERNAL", "message": "internal server error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultLimiter is a per-key token bucket guarding every request, not
// just the sensitive-read endpoints, grounded on the teacher's
// infrastructure/middleware.RateLimiter: one golang.org/x/time/rate
// limiter per actor (or client IP, when unauthenticated), created lazily
// and swept periodically so the map doesn't grow without bound.
type DefaultLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewDefaultLimiter builds a DefaultLimiter allowing perSecond requests
// per key with the given burst.
func NewDefaultLimiter(perSecond, burst int) *DefaultLimiter {
	return &DefaultLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *DefaultLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// StartCleanup periodically drops every tracked limiter so idle keys
// (actors or IPs that stopped sending traffic) don't pin memory forever.
// The returned func stops the sweep.
func (l *DefaultLimiter) StartCleanup(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				l.mu.Lock()
				l.limiters = make(map[string]*rate.Limiter)
				l.mu.Unlock()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

// DefaultRateLimit enforces a default per-actor (or per-IP, pre-auth)
// request ceiling across the whole router, distinct from the
// redis-backed SensitiveReadLimit which only guards a handful of
// sensitive-read endpoints against a much lower per-action ceiling.
func DefaultRateLimit(limiter *DefaultLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if actor, ok := actorFrom(r.Context()); ok {
				key = actor.ActorID
			}
			if !limiter.getLimiter(key).Allow() {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
					"success": false, "error": "RATE_LIMIT_EXCEEDED", "message": "too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller's address for rate-limit keying when no
// authenticated actor is available yet.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	addr, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return addr.Addr().String()
}

// SensitiveReadLimit enforces the per-(user_id, action) rate ceiling on
// drill-down, export, and bulk-read endpoints before they reach the
// handler.
func SensitiveReadLimit(limiter *ratelimit.Limiter, action string, max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := actorFrom(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"success": false, "error": "UNAUTHENTICATED", "message": "bearer token required",
				})
				return
			}
			_, allowed, err := limiter.Allow(r.Context(), actor.ActorID, action, max)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
					"success": false, "error": "INTERNAL", "message": "rate limit check failed",
				})
				return
			}
			if !allowed {
				writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
					"success": false, "error": "RATE_LIMIT_EXCEEDED", "message": "too many " + action + " requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
