package jwt

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// TokenExtractorFunc pulls a raw token out of a request. It returns
// ErrMissingToken when the request carries none.
type TokenExtractorFunc func(r *http.Request) (string, error)

// SkipFunc reports whether a request bypasses the middleware.
type SkipFunc func(r *http.Request) bool

// ErrorHandlerFunc writes the rejection response.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, status int, err error)

// MiddlewareConfig configures MiddlewareWithConfig.
type MiddlewareConfig struct {
	Service *Service
	// Extractors are tried in order; the first token found wins. Defaults to Bearer.
	Extractors []TokenExtractorFunc
	Skip       SkipFunc
	// Optional lets requests without any token through as anonymous.
	// A token that is present but invalid is still rejected.
	Optional     bool
	ErrorHandler ErrorHandlerFunc
}

// Middleware requires a valid Bearer token on every request.
func Middleware(service *Service) func(next http.Handler) http.Handler {
	return MiddlewareWithConfig(MiddlewareConfig{Service: service})
}

// MiddlewareWithConfig verifies the request's token and stores its claims in
// the request context.
func MiddlewareWithConfig(cfg MiddlewareConfig) func(next http.Handler) http.Handler {
	if len(cfg.Extractors) == 0 {
		cfg.Extractors = []TokenExtractorFunc{BearerTokenExtractor}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = WriteJSONError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := extract(r, cfg.Extractors)
			if errors.Is(err, ErrMissingToken) && cfg.Optional {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				cfg.ErrorHandler(w, r, http.StatusUnauthorized, err)
				return
			}

			claims, err := cfg.Service.Parse(token)
			if err != nil {
				cfg.ErrorHandler(w, r, http.StatusUnauthorized, err)
				return
			}

			ctx := SetClaims(SetToken(r.Context(), token), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role claim differs from role with 403.
// Anonymous callers are rejected the same way.
func RequireRole(role string, onError ErrorHandlerFunc) func(next http.Handler) http.Handler {
	if onError == nil {
		onError = WriteJSONError
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok || claims.Role != role {
				onError(w, r, http.StatusForbidden, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extract(r *http.Request, extractors []TokenExtractorFunc) (string, error) {
	for _, ex := range extractors {
		token, err := ex(r)
		if errors.Is(err, ErrMissingToken) {
			continue
		}
		return token, err
	}
	return "", ErrMissingToken
}

// WriteJSONError writes {"error": "..."} with status.
func WriteJSONError(w http.ResponseWriter, _ *http.Request, status int, err error) {
	msg := http.StatusText(status)
	if status == http.StatusForbidden {
		msg = "Unauthorized"
	} else if err != nil {
		msg = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// CookieTokenExtractor reads the token from the named cookie.
func CookieTokenExtractor(cookieName string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if err != nil || cookie.Value == "" {
			return "", ErrMissingToken
		}
		return cookie.Value, nil
	}
}

// QueryTokenExtractor reads the token from a query parameter. EventSource
// clients cannot set headers, so the stream endpoint accepts this form.
func QueryTokenExtractor(param string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		token := r.URL.Query().Get(param)
		if token == "" {
			return "", ErrMissingToken
		}
		return token, nil
	}
}
