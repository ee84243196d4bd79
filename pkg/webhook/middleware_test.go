package webhook

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyMiddleware(t *testing.T) {
	t.Parallel()

	const secret = "s3cret"
	body := `{"text":"hello"}`
	now := time.Unix(1_700_000_000, 0)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
		w.WriteHeader(http.StatusCreated)
	})
	h := VerifyMiddleware(secret, withClock(func() time.Time { return now }))(next)

	signed := func(payload string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/notifications/webhook", strings.NewReader(payload))
		sig, err := signAt(secret, []byte(body), now)
		require.NoError(t, err)
		sig.Apply(req.Header)
		return req
	}

	t.Run("valid signature reaches handler with body intact", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, signed(body))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, body, seen)
	})

	t.Run("tampered body rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, signed(`{"text":"evil"}`))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error"`)
	})

	t.Run("unsigned rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		small := VerifyMiddleware(secret, WithMaxBodySize(4), withClock(func() time.Time { return now }))(next)
		rec := httptest.NewRecorder()
		small.ServeHTTP(rec, signed(body))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("custom reject handler", func(t *testing.T) {
		custom := VerifyMiddleware(secret, WithRejectHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			assert.ErrorIs(t, err, ErrInvalidSignature)
			w.WriteHeader(http.StatusForbidden)
		}))(next)
		rec := httptest.NewRecorder()
		custom.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("empty secret disables verification", func(t *testing.T) {
		open := VerifyMiddleware("")(next)
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}
