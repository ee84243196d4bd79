package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// VerifyOption configures VerifyMiddleware.
type VerifyOption func(*verifyConfig)

type verifyConfig struct {
	maxAge   time.Duration
	maxBody  int64
	now      func() time.Time
	onReject func(w http.ResponseWriter, r *http.Request, err error)
}

// WithMaxAge sets the accepted signature age. Zero disables the check.
func WithMaxAge(d time.Duration) VerifyOption {
	return func(c *verifyConfig) { c.maxAge = d }
}

// WithMaxBodySize caps the number of body bytes read for verification.
func WithMaxBodySize(n int64) VerifyOption {
	return func(c *verifyConfig) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithRejectHandler replaces the default 401 response.
func WithRejectHandler(fn func(w http.ResponseWriter, r *http.Request, err error)) VerifyOption {
	return func(c *verifyConfig) {
		if fn != nil {
			c.onReject = fn
		}
	}
}

func withClock(now func() time.Time) VerifyOption {
	return func(c *verifyConfig) { c.now = now }
}

// VerifyMiddleware rejects requests whose body does not carry a valid
// signature for secret. The body is buffered and handed to the next handler
// unchanged. An empty secret disables verification.
func VerifyMiddleware(secret string, opts ...VerifyOption) func(http.Handler) http.Handler {
	cfg := verifyConfig{
		maxAge:   5 * time.Minute,
		maxBody:  1 << 20,
		now:      time.Now,
		onReject: rejectUnauthorized,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers, err := ExtractSignatureHeaders(r.Header)
			if err != nil {
				cfg.onReject(w, r, err)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, cfg.maxBody+1))
			_ = r.Body.Close()
			if err != nil {
				cfg.onReject(w, r, errors.Join(ErrInvalidPayload, err))
				return
			}
			if int64(len(body)) > cfg.maxBody {
				cfg.onReject(w, r, ErrInvalidPayload)
				return
			}

			if err := verifyAt(secret, body, headers, cfg.maxAge, cfg.now()); err != nil {
				cfg.onReject(w, r, err)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

func rejectUnauthorized(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
