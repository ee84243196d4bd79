package clientip_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/auditoria/auditoria/pkg/clientip"
	"github.com/auditoria/auditoria/pkg/logger"
)

func TestResolverIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		trusted    []string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{name: "remote addr", remoteAddr: "203.0.113.7:5123", want: "203.0.113.7"},
		{name: "remote addr without port", remoteAddr: "203.0.113.7", want: "203.0.113.7"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{
			name:       "untrusted header ignored",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			remoteAddr: "10.0.0.2:80",
			want:       "10.0.0.2",
		},
		{
			name:       "first valid forwarded address",
			trusted:    clientip.DefaultHeaders,
			headers:    map[string]string{"X-Forwarded-For": "garbage, 198.51.100.1, 10.0.0.1"},
			remoteAddr: "10.0.0.2:80",
			want:       "198.51.100.1",
		},
		{
			name:    "header order wins",
			trusted: clientip.DefaultHeaders,
			headers: map[string]string{
				"CF-Connecting-IP": "192.0.2.10",
				"X-Forwarded-For":  "198.51.100.1",
			},
			remoteAddr: "10.0.0.2:80",
			want:       "192.0.2.10",
		},
		{
			name:       "invalid headers fall back",
			trusted:    clientip.DefaultHeaders,
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			remoteAddr: "10.0.0.2:80",
			want:       "10.0.0.2",
		},
		{name: "nothing parses", remoteAddr: "pipe", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.NewResolver(tt.trusted...).IP(r))
		})
	}
}

func TestMiddlewareAndLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithFormat(logger.FormatText),
		logger.WithContextExtractors(clientip.LoggerExtractor()),
	)

	var seen string
	h := clientip.NewResolver("X-Real-IP").Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientip.FromRequest(r)
		log.InfoContext(r.Context(), "handled")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "192.0.2.44")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.44", seen)
	assert.Contains(t, buf.String(), "client_ip=192.0.2.44")

	buf.Reset()
	log.Log(context.Background(), slog.LevelInfo, "no request")
	assert.NotContains(t, buf.String(), "client_ip")
}

func TestFromRequestWithoutMiddleware(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")
	assert.Equal(t, "192.0.2.1", clientip.FromRequest(r))
}
