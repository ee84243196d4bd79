package notifications_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditoria/auditoria/pkg/kvstore"
	"github.com/auditoria/auditoria/pkg/logger"
	"github.com/auditoria/auditoria/pkg/notifications"
)

type frame struct {
	event string
	data  string
}

type recordingWriter struct {
	mu       sync.Mutex
	frames   []frame
	comments int
}

func (w *recordingWriter) Event(name string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = append(w.frames, frame{event: name, data: string(data)})
	return nil
}

func (w *recordingWriter) Comment(string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.comments++
	return nil
}

func (w *recordingWriter) snapshot() []frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]frame(nil), w.frames...)
}

type failingSubscriber struct{}

func (failingSubscriber) Subscribe(context.Context, string) (kvstore.Subscription, error) {
	return nil, kvstore.ErrUnavailable
}

func TestGateway_StreamFraming(t *testing.T) {
	store := kvstore.NewMemory()
	gw := notifications.NewGateway(store,
		notifications.WithHeartbeat(0),
		notifications.WithGatewayLogger(logger.Discard()),
	)
	target := notifications.Recipient("u1")
	w := &recordingWriter{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Stream(ctx, target, w) }()

	require.Eventually(t, func() bool {
		return store.Subscribers(target.Channel()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, gw.Active())

	const n = 5
	for i := range n {
		require.NoError(t, store.Publish(context.Background(), target.Channel(), fmt.Sprintf(`{"i":%d}`, i)))
	}
	// other channels never reach this stream
	require.NoError(t, store.Publish(context.Background(), "notification:global", `{"g":1}`))

	require.Eventually(t, func() bool { return len(w.snapshot()) == n+1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, store.Subscribers(target.Channel()))
	assert.Zero(t, gw.Active())

	require.NoError(t, store.Publish(context.Background(), target.Channel(), `{"late":true}`))

	frames := w.snapshot()
	require.Len(t, frames, n+1)
	assert.Equal(t, frame{event: "connected", data: "{}"}, frames[0])
	for i := range n {
		assert.Equal(t, frame{event: "notification", data: fmt.Sprintf(`{"i":%d}`, i)}, frames[i+1])
	}
}

func TestGateway_SubscribeFailureEndsStream(t *testing.T) {
	gw := notifications.NewGateway(failingSubscriber{}, notifications.WithGatewayLogger(logger.Discard()))
	w := &recordingWriter{}

	err := gw.Stream(context.Background(), notifications.Global, w)
	assert.ErrorIs(t, err, notifications.ErrSubscribe)
	assert.ErrorIs(t, err, kvstore.ErrUnavailable)
	assert.Equal(t, []frame{{event: "connected", data: "{}"}}, w.snapshot())
}

func TestGateway_Heartbeat(t *testing.T) {
	store := kvstore.NewMemory()
	gw := notifications.NewGateway(store,
		notifications.WithHeartbeat(5*time.Millisecond),
		notifications.WithGatewayLogger(logger.Discard()),
	)
	w := &recordingWriter{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Stream(ctx, notifications.Global, w) }()

	assert.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.comments >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Len(t, w.snapshot(), 1, "heartbeats are not event frames")
}

type errWriter struct{}

func (errWriter) Event(string, []byte) error { return errors.New("client gone") }
func (errWriter) Comment(string) error       { return nil }

func TestGateway_WriteFailure(t *testing.T) {
	store := kvstore.NewMemory()
	gw := notifications.NewGateway(store, notifications.WithGatewayLogger(logger.Discard()))

	err := gw.Stream(context.Background(), notifications.Global, errWriter{})
	assert.EqualError(t, err, "client gone")
	assert.Zero(t, store.Subscribers(notifications.Global.Channel()))
}
