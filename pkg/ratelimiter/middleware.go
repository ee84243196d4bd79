package ratelimiter

import (
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/auditoria/auditoria/pkg/logger"
)

// maxKeyLength bounds keys before they are hashed.
const maxKeyLength = 64

// KeyFunc extracts a rate limit key from the request. An empty key skips
// the limiter.
type KeyFunc func(r *http.Request) string

// Composite joins the non-empty keys of keyFuncs; long keys are hashed
// with FNV-1a.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}
		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) <= maxKeyLength {
			return combined
		}
		h := fnv.New64a()
		h.Write([]byte(combined))
		return strconv.FormatUint(h.Sum64(), 36)
	}
}

// Static returns a KeyFunc that always yields key, for limits shared by
// every caller of a route.
func Static(key string) KeyFunc {
	return func(*http.Request) string { return key }
}

type middlewareConfig struct {
	logger *slog.Logger
}

type MiddlewareOption func(*middlewareConfig)

func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Middleware answers 429 {"error": "Too many requests"} once a key
// exceeds its window. When the counter store fails the request is let
// through and the failure logged.
func Middleware(w *Window, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger.With(logger.Component("ratelimiter"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(rw, r)
				return
			}

			res, err := w.Allow(r.Context(), key)
			if err != nil {
				if r.Context().Err() == nil {
					log.LogAttrs(r.Context(), slog.LevelWarn, "rate limit check failed, allowing request", logger.Error(err))
				}
				next.ServeHTTP(rw, r)
				return
			}

			h := rw.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				retry := int(math.Ceil(res.RetryAfter(w.now()).Seconds()))
				h.Set("Retry-After", strconv.Itoa(max(retry, 1)))
				log.LogAttrs(r.Context(), slog.LevelWarn, "rate limit exceeded", slog.String("key", key))
				writeTooManyRequests(rw)
				return
			}
			next.ServeHTTP(rw, r)
		})
	}
}

func writeTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests"})
}
