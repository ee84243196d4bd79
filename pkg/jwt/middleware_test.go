package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditoria/auditoria/pkg/jwt"
)

func newService(t *testing.T) *jwt.Service {
	t.Helper()
	svc, err := jwt.New([]byte("secret"))
	require.NoError(t, err)
	return svc
}

func echoRecipient() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := jwt.GetToken(r.Context()); !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(jwt.RecipientID(r.Context())))
	})
}

func TestMiddleware(t *testing.T) {
	svc := newService(t)
	token, err := svc.Issue("user-1", "", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		cfg      jwt.MiddlewareConfig
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name:     "bearer token",
			cfg:      jwt.MiddlewareConfig{Service: svc},
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantCode: http.StatusOK,
			wantBody: "user-1",
		},
		{
			name:     "missing token required",
			cfg:      jwt.MiddlewareConfig{Service: svc},
			setup:    func(*http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing token optional",
			cfg:      jwt.MiddlewareConfig{Service: svc, Optional: true},
			setup:    func(*http.Request) {},
			wantCode: http.StatusOK,
			wantBody: "anonymous",
		},
		{
			name:     "invalid token optional still rejected",
			cfg:      jwt.MiddlewareConfig{Service: svc, Optional: true},
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "malformed header",
			cfg:      jwt.MiddlewareConfig{Service: svc, Optional: true},
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "query fallback",
			cfg: jwt.MiddlewareConfig{Service: svc, Extractors: []jwt.TokenExtractorFunc{
				jwt.BearerTokenExtractor, jwt.QueryTokenExtractor("token"),
			}},
			setup:    func(r *http.Request) { r.URL.RawQuery = "token=" + token },
			wantCode: http.StatusOK,
			wantBody: "user-1",
		},
		{
			name: "cookie",
			cfg:  jwt.MiddlewareConfig{Service: svc, Extractors: []jwt.TokenExtractorFunc{jwt.CookieTokenExtractor("auth")}},
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "auth", Value: token})
			},
			wantCode: http.StatusOK,
			wantBody: "user-1",
		},
		{
			name:     "skip",
			cfg:      jwt.MiddlewareConfig{Service: svc, Skip: func(*http.Request) bool { return true }},
			setup:    func(*http.Request) {},
			wantCode: http.StatusOK,
			wantBody: "anonymous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			jwt.MiddlewareWithConfig(tt.cfg)(echoRecipient()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	svc := newService(t)
	admin, err := svc.Issue("admin-1", "", "admin")
	require.NoError(t, err)
	user, err := svc.Issue("user-1", "", "agent")
	require.NoError(t, err)

	h := jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{Service: svc, Optional: true})(
		jwt.RequireRole("admin", nil)(echoRecipient()),
	)

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{"admin", admin, http.StatusOK},
		{"non admin", user, http.StatusForbidden},
		{"anonymous", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/notifications/admin", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
			}
		})
	}
}
