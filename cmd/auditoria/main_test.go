package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notificationsmod "github.com/auditoria/auditoria/modules/notifications"
	"github.com/auditoria/auditoria/pkg/config"
	"github.com/auditoria/auditoria/pkg/jwt"
	"github.com/auditoria/auditoria/pkg/logger"
	"github.com/auditoria/auditoria/pkg/notifications"
	"github.com/auditoria/auditoria/pkg/pager"
	"github.com/auditoria/auditoria/pkg/ratelimiter"
	"github.com/auditoria/auditoria/pkg/taskrecords"
	"github.com/auditoria/auditoria/pkg/webhook"
)

func taskDataset(n int) []taskrecords.Entry {
	out := make([]taskrecords.Entry, n)
	for i := range out {
		out[i] = taskrecords.Entry{
			UUID:          fmt.Sprintf("task-%02d", i),
			FileName:      fmt.Sprintf("call-%02d.wav", i),
			Status:        "done",
			User:          "ana",
			Campaign:      taskrecords.NewScalar("spring"),
			AudioDuration: taskrecords.NewScalar("61.5"),
		}
	}
	return out
}

func testServerConfig(upstream string) serverConfig {
	return serverConfig{
		StoreBackend: storeMemory,
		KeyPrefix:    "test:",
		Notifications: notifications.Config{
			Storage:      notifications.StorageHash,
			TTL:          time.Hour,
			Workers:      2,
			QueueSize:    16,
			DrainTimeout: time.Second,
		},
		Routes: notificationsmod.Config{WebhookSecret: "whsec", WebhookMaxAge: time.Minute, AdminRole: "admin", TokenCookie: "token"},
		Tasks: taskrecords.Config{
			UpstreamURL:     upstream,
			UpstreamTimeout: 5 * time.Second,
			CacheKey:        taskrecords.DefaultCacheKey,
			CacheTTL:        time.Minute,
		},
	}
}

func TestNewAppReleasesWorkersOnError(t *testing.T) {
	before := runtime.NumGoroutine()

	cfg := testServerConfig("http://127.0.0.1:0")
	cfg.Notifications.Workers = 16
	cfg.RateLimit = ratelimiter.Config{Limit: 5, Window: time.Millisecond}

	a, err := newApp(cfg, logger.Discard())
	require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	assert.Nil(t, a)

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond, "dispatcher workers still running")
}

func TestApp(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": taskDataset(12)})
	}))
	t.Cleanup(upstream.Close)

	a, err := newApp(testServerConfig(upstream.URL), logger.Discard())
	require.NoError(t, err)
	srv := httptest.NewServer(a.router)
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		assert.NoError(t, a.drain(context.Background()))
		assert.NoError(t, a.closeStore(context.Background()))
	})

	t.Run("health", func(t *testing.T) {
		for _, path := range []string{"/healthz", "/readyz"} {
			resp, err := srv.Client().Get(srv.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
	})

	t.Run("notify", func(t *testing.T) {
		var out bytes.Buffer
		err := runNotify(context.Background(), &out, webhook.NewSender(), notifyOptions{
			server:  srv.URL,
			secret:  "whsec",
			payload: notifications.Payload{UUID: "n-1", Text: "Transcription ready"},
			taskID:  "task-01",
		})
		require.NoError(t, err)

		var n notifications.Notification
		require.NoError(t, json.Unmarshal(out.Bytes(), &n))
		assert.Equal(t, "n-1", n.UUID)
		assert.True(t, n.IsGlobal)

		a.engine.Wait()
		resp, err := srv.Client().Get(srv.URL + "/notifications")
		require.NoError(t, err)
		defer resp.Body.Close()
		var body struct {
			Notifications []notifications.Notification `json:"notifications"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Notifications, 1)
		assert.Equal(t, "task-01", body.Notifications[0].Task.Identifier)
	})

	t.Run("notify with wrong secret", func(t *testing.T) {
		err := runNotify(context.Background(), &bytes.Buffer{}, webhook.NewSender(), notifyOptions{
			server:  srv.URL,
			secret:  "wrong",
			payload: notifications.Payload{Text: "x"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, webhook.ErrPermanentFailure)
	})

	t.Run("tasks", func(t *testing.T) {
		var out bytes.Buffer
		err := runTasks(context.Background(), strings.NewReader(""), &out,
			pager.NewHTTPFetcher(srv.URL), tasksOptions{page: 1})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "task-10")
		assert.Contains(t, out.String(), "page 2/2, 12 results")
	})
}

func TestRunTasksInteractive(t *testing.T) {
	t.Parallel()

	data := taskDataset(25)
	fetcher := pager.FetcherFunc(func(_ context.Context, f taskrecords.Filter, page int) (taskrecords.Page, error) {
		return taskrecords.Apply(data, f, page), nil
	})

	input := strings.Join([]string{"n", "l", "n", "/call-0", "field status", "field nope", "q"}, "\n")
	var out bytes.Buffer
	err := runTasks(context.Background(), strings.NewReader(input), &out, fetcher, tasksOptions{interactive: true})
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "page 1/3, 25 results")
	assert.Contains(t, got, "page 2/3, 25 results")
	assert.Contains(t, got, "page 3/3, 25 results")
	assert.Contains(t, got, "no such page")
	assert.Contains(t, got, `page 1/1, 10 results for "call-0"`)
	assert.Contains(t, got, "page 1/1, 0 results for status=call-0")
	assert.Contains(t, got, `unknown filter field "nope"`)
}

func TestRunTasksUnknownField(t *testing.T) {
	t.Parallel()

	fetcher := pager.FetcherFunc(func(context.Context, taskrecords.Filter, int) (taskrecords.Page, error) {
		return taskrecords.Page{}, nil
	})
	err := runTasks(context.Background(), strings.NewReader(""), &bytes.Buffer{}, fetcher, tasksOptions{field: "owner"})
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "token-command-secret")
	t.Setenv("JWT_ADMIN_ROLE", "auditor")
	config.ResetCache()
	t.Cleanup(config.ResetCache)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--user", "u-7", "--admin"})
	require.NoError(t, cmd.Execute())

	tokens, err := jwt.New([]byte("token-command-secret"))
	require.NoError(t, err)
	claims, err := tokens.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "u-7", claims.RecipientID())
	assert.Equal(t, "auditor", claims.Role)
}
